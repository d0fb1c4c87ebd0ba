package server

import (
	"fmt"
	"net/http"

	"github.com/leapstack-labs/canvasql/pkg/core"
)

type semanticTypeResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type columnTypeResponse struct {
	Code     string      `json:"code"`
	Type     core.UIType `json:"type"`
	Category string      `json:"category"`
	Name     string      `json:"name"`
}

type bulkMappingRequest struct {
	Mappings []core.SemanticMapping `json:"mappings"`
}

type bulkMappingResponse struct {
	Updated  int    `json:"updated"`
	Inserted int    `json:"inserted"`
	Failed   int    `json:"failed"`
	Message  string `json:"message"`
}

func (s *Server) listSemanticTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListSemanticTypes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]semanticTypeResponse, len(types))
	for i, t := range types {
		out[i] = semanticTypeResponse{Code: t.Code, Label: t.Label}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) saveSemanticMapping(w http.ResponseWriter, r *http.Request) {
	var in core.SemanticMapping
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SaveSemanticMapping(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) saveSemanticMappings(w http.ResponseWriter, r *http.Request) {
	var in bulkMappingRequest
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.store.SaveSemanticMappings(r.Context(), in.Mappings)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkMappingResponse{
		Updated:  res.Updated,
		Inserted: res.Inserted,
		Message:  "Bulk semantic mapping applied successfully",
	})
}

func (s *Server) semanticColumns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	schema, table := q.Get("schema"), q.Get("table")
	if schema == "" || table == "" {
		s.writeError(w, r, fmt.Errorf("%w: schema and table are required", errBadRequest))
		return
	}
	cols, err := s.engine.SemanticColumns(r.Context(), schema, table)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) semanticColumnTypes(w http.ResponseWriter, r *http.Request) {
	var filter core.UIType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, ok := core.ParseUIType(raw)
		if !ok {
			s.writeError(w, r, fmt.Errorf("%w: unknown type %q", errBadRequest, raw))
			return
		}
		filter = t
	}

	types, err := s.store.ListSemanticTypes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := []columnTypeResponse{}
	for _, t := range types {
		ui := t.UIType()
		if filter != "" && ui != filter {
			continue
		}
		out = append(out, columnTypeResponse{Code: t.Code, Type: ui, Category: t.Category, Name: t.Name})
	}
	writeJSON(w, http.StatusOK, out)
}
