package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/canvasql/internal/state"
)

// datasetDetail is a dataset with its full graph.
type datasetDetail struct {
	*state.Dataset
	Tables  []*state.DatasetTable  `json:"tables"`
	Joins   []*state.DatasetJoin   `json:"joins"`
	Columns []*state.DatasetColumn `json:"columns"`
}

type addColumnRequest struct {
	DatasetTableID string `json:"dataset_table_id"`
	state.ColumnInput
}

type positionRequest struct {
	PositionX *float64 `json:"position_x"`
	PositionY *float64 `json:"position_y"`
}

func (s *Server) createDataset(w http.ResponseWriter, r *http.Request) {
	var in state.NewDataset
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	ds, err := s.store.CreateDataset(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ds)
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.store.ListDatasets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, datasets)
}

func (s *Server) getDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "datasetID")

	ds, err := s.store.GetDataset(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	detail := datasetDetail{Dataset: ds}
	if detail.Tables, err = s.store.ListTables(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if detail.Joins, err = s.store.ListJoins(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if detail.Columns, err = s.store.ListColumns(ctx, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) deleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDataset(r.Context(), chi.URLParam(r, "datasetID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) previewDataset(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.PreviewDataset(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) addTable(w http.ResponseWriter, r *http.Request) {
	var in state.NewTable
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.AddTable(r.Context(), chi.URLParam(r, "datasetID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) listDatasetTables(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	if _, err := s.store.GetDataset(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	tables, err := s.store.ListTables(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) moveTable(w http.ResponseWriter, r *http.Request) {
	var in positionRequest
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.store.UpdateTablePosition(r.Context(),
		chi.URLParam(r, "datasetID"), chi.URLParam(r, "tableID"), in.PositionX, in.PositionY)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTable(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteTable(r.Context(), chi.URLParam(r, "datasetID"), chi.URLParam(r, "tableID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addJoin(w http.ResponseWriter, r *http.Request) {
	var in state.NewJoin
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	j, err := s.store.AddJoin(r.Context(), chi.URLParam(r, "datasetID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (s *Server) listJoins(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	if _, err := s.store.GetDataset(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	joins, err := s.store.ListJoins(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, joins)
}

func (s *Server) deleteJoin(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteJoin(r.Context(), chi.URLParam(r, "datasetID"), chi.URLParam(r, "joinID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) saveColumn(w http.ResponseWriter, r *http.Request) {
	var in state.ColumnInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.ColumnName = chi.URLParam(r, "column")
	c, err := s.store.SaveColumn(r.Context(), chi.URLParam(r, "datasetID"), chi.URLParam(r, "tableID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) addColumn(w http.ResponseWriter, r *http.Request) {
	var in addColumnRequest
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.DatasetTableID == "" {
		s.writeError(w, r, fmt.Errorf("%w: dataset_table_id is required", errBadRequest))
		return
	}
	c, err := s.store.SaveColumn(r.Context(), chi.URLParam(r, "datasetID"), in.DatasetTableID, in.ColumnInput)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) listColumns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	if _, err := s.store.GetDataset(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	cols, err := s.store.ListColumns(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}
