package server

import (
	"fmt"
	"net/http"

	"github.com/leapstack-labs/canvasql/internal/adhoc"
)

type cancelRequest struct {
	QueryID string `json:"query_id"`
}

func (s *Server) executeQuery(w http.ResponseWriter, r *http.Request) {
	var req adhoc.Request
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Query == "" {
		s.writeError(w, r, fmt.Errorf("%w: query is required", errBadRequest))
		return
	}
	res, err := s.engine.ExecuteQuery(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) cancelQuery(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.QueryID == "" {
		s.writeError(w, r, fmt.Errorf("%w: query_id is required", errBadRequest))
		return
	}
	pid, err := s.engine.CancelQuery(r.Context(), req.QueryID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": true, "pid": pid})
}
