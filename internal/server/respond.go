package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/leapstack-labs/canvasql/internal/adhoc"
	"github.com/leapstack-labs/canvasql/internal/engine"
	"github.com/leapstack-labs/canvasql/internal/state"
	"github.com/leapstack-labs/canvasql/pkg/adapter"
	"github.com/leapstack-labs/canvasql/pkg/browse"
	"github.com/leapstack-labs/canvasql/pkg/dataset"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

var badRequestErrors = []error{
	errBadRequest,
	sqlguard.ErrInvalidIdentifier,
	sqlguard.ErrUnsafeStatement,
	browse.ErrUnknownColumn,
	browse.ErrSortingDisabled,
	browse.ErrInvalidSortDirection,
	browse.ErrInvalidOperator,
	browse.ErrInvalidFilterValue,
	browse.ErrMalformedFilter,
	engine.ErrInvalidPagination,
	engine.ErrUnknownObjectKind,
	engine.ErrInspectionUnsupported,
	adhoc.ErrInvalidPagination,
	adhoc.ErrDuplicateQueryID,
	state.ErrInvalidJoin,
	state.ErrInvalidTable,
	state.ErrInvalidColumn,
	state.ErrInvalidMapping,
}

var notFoundErrors = []error{
	adapter.ErrTableNotFound,
	state.ErrNotFound,
	adhoc.ErrQueryNotFound,
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var previewErr *dataset.PreviewError
	var execErr *adhoc.ExecutionError
	if errors.As(err, &previewErr) || errors.As(err, &execErr) {
		return http.StatusBadRequest
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if errors.Is(err, adhoc.ErrQueryNotFound) {
		msg = "Query ID not found or query already completed"
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
