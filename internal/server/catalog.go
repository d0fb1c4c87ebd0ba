package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/canvasql/internal/engine"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := s.engine.ListSchemas(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemas": schemas})
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	schema := r.URL.Query().Get("schema")
	if schema == "" {
		schema = engine.DefaultSchema
	}
	tables, err := s.engine.ListTables(r.Context(), schema)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": schema, "tables": tables})
}

func (s *Server) browseTable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("table") == "" {
		s.writeError(w, r, fmt.Errorf("%w: table is required", errBadRequest))
		return
	}

	limit, err := intParam(q.Get("limit"), "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := intParam(q.Get("offset"), "offset")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	autoGenerate := true
	if v := q.Get("auto_generate_schema"); v != "" {
		if autoGenerate, err = strconv.ParseBool(v); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: auto_generate_schema must be a boolean", errBadRequest))
			return
		}
	}

	res, err := s.engine.BrowseTable(r.Context(), engine.BrowseRequest{
		Schema:       q.Get("schema"),
		Table:        q.Get("table"),
		Limit:        limit,
		Offset:       offset,
		SortBy:       q.Get("sort_by"),
		SortDir:      q.Get("sort_dir"),
		Filters:      q.Get("filters"),
		AutoGenerate: autoGenerate,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) catalog(w http.ResponseWriter, r *http.Request) {
	tree, err := s.engine.SchemasAndTables(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) listObjects(w http.ResponseWriter, r *http.Request) {
	schema, kind := chi.URLParam(r, "schema"), chi.URLParam(r, "kind")
	names, err := s.engine.ListObjects(r.Context(), schema, kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": schema, kind: names})
}

func (s *Server) listIndexes(w http.ResponseWriter, r *http.Request) {
	schema := chi.URLParam(r, "schema")
	indexes, err := s.engine.ListIndexes(r.Context(), schema)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": schema, "indexes": indexes})
}

func (s *Server) describeColumns(w http.ResponseWriter, r *http.Request) {
	schema, table := chi.URLParam(r, "schema"), chi.URLParam(r, "table")
	cols, err := s.engine.DescribeColumns(r.Context(), schema, table)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": schema, "table": table, "columns": cols})
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return n, nil
}
