package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Get("/schemas", s.listSchemas)
		r.Get("/tables", s.listTables)
		r.Get("/table", s.browseTable)

		r.Route("/metadata", func(r chi.Router) {
			r.Get("/catalog", s.catalog)
			r.Get("/schemas/{schema}/indexes", s.listIndexes)
			r.Get("/schemas/{schema}/tables/{table}/columns", s.describeColumns)
			r.Get("/schemas/{schema}/{kind}", s.listObjects)
		})

		r.Post("/query", s.executeQuery)
		r.Post("/query/cancel", s.cancelQuery)

		r.Route("/datasets", func(r chi.Router) {
			r.Post("/", s.createDataset)
			r.Get("/", s.listDatasets)

			r.Route("/{datasetID}", func(r chi.Router) {
				r.Get("/", s.getDataset)
				r.Delete("/", s.deleteDataset)
				r.Get("/preview", s.previewDataset)

				r.Post("/tables", s.addTable)
				r.Get("/tables", s.listDatasetTables)
				r.Patch("/tables/{tableID}", s.moveTable)
				r.Delete("/tables/{tableID}", s.deleteTable)
				r.Put("/tables/{tableID}/columns/{column}", s.saveColumn)

				r.Post("/joins", s.addJoin)
				r.Get("/joins", s.listJoins)
				r.Delete("/joins/{joinID}", s.deleteJoin)

				r.Get("/columns", s.listColumns)
				r.Post("/columns", s.addColumn)
			})
		})

		r.Route("/semantic", func(r chi.Router) {
			r.Get("/types", s.listSemanticTypes)
			r.Post("/mapping", s.saveSemanticMapping)
			r.Post("/mapping/bulk", s.saveSemanticMappings)
			r.Get("/columns", s.semanticColumns)
		})
		r.Get("/semantic-modeling/column-types", s.semanticColumnTypes)
	})

	return r
}

// requestLogger logs one line per request with its status and duration.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
