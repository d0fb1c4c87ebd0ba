package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/canvasql/internal/adhoc"
	"github.com/leapstack-labs/canvasql/internal/engine"
	"github.com/leapstack-labs/canvasql/internal/state"
	"github.com/leapstack-labs/canvasql/internal/testutil"
	"github.com/leapstack-labs/canvasql/pkg/adapter"
	"github.com/leapstack-labs/canvasql/pkg/browse"
	"github.com/leapstack-labs/canvasql/pkg/core"
	"github.com/leapstack-labs/canvasql/pkg/dataset"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

type testCatalog struct {
	*sql.DB
}

func (testCatalog) TableColumns(_ context.Context, schema, table string) ([]core.CatalogColumn, error) {
	if schema == "public" && table == "orders" {
		return []core.CatalogColumn{
			{Name: "id", Type: core.UITypeNumber, Position: 1},
			{Name: "status", Type: core.UITypeString, Position: 2},
		}, nil
	}
	return nil, adapter.ErrTableNotFound
}

func (testCatalog) ListSchemas(context.Context) ([]string, error) {
	return []string{"public"}, nil
}

func (testCatalog) ListTables(context.Context, string) ([]string, error) {
	return []string{"orders"}, nil
}

type testEnv struct {
	handler http.Handler
	store   *state.SQLiteStore
	mock    sqlmock.Sqlmock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testutil.NewTestLogger(t)

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())

	db, mock := testutil.NewMockDB(t)
	eng := engine.New(engine.Config{
		Catalog:   testCatalog{DB: db},
		Datasets:  store,
		Semantics: store,
		Executor:  adhoc.NewExecutor(db, adhoc.NewRegistry(nil, logger), logger),
		Logger:    logger,
	})

	srv := New(Config{Engine: eng, Store: store, Addr: ":0", Logger: logger})
	return &testEnv{handler: srv.Handler(), store: store, mock: mock}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestServer_Catalog(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/schemas", nil)
	assert.JSONEq(t, `{"schemas":["public"]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/tables", nil)
	assert.JSONEq(t, `{"schema":"public","tables":["orders"]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/metadata/catalog", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/metadata/schemas/public/gadgets", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_BrowseTable(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`SELECT COUNT(*) FROM "public"."orders" WHERE "id" > @p0`).
		WithArgs(testutil.NamedArgs(pgx.NamedArgs{"p0": int64(5)})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	env.mock.ExpectQuery(`SELECT * FROM "public"."orders" WHERE "id" > @p0 LIMIT @limit OFFSET @offset`).
		WithArgs(testutil.NamedArgs(pgx.NamedArgs{"p0": int64(5), "limit": 50, "offset": 0})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(int64(6), "paid"))

	rec := env.do(t, http.MethodGet,
		`/api/table?table=orders&filters=%5B%7B%22field%22%3A%22id%22%2C%22op%22%3A%22gt%22%2C%22value%22%3A5%7D%5D`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.Equal(t, map[string]any{"total": 1.0, "limit": 50.0, "offset": 0.0, "table": "public.orders"}, body["meta"])
	assert.Equal(t, []any{map[string]any{"id": 6.0, "status": "paid"}}, body["data"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestServer_BrowseTableErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing table", "/api/table", http.StatusBadRequest},
		{"bad limit", "/api/table?table=orders&limit=ten", http.StatusBadRequest},
		{"limit out of range", "/api/table?table=orders&limit=9000", http.StatusBadRequest},
		{"bad auto generate", "/api/table?table=orders&auto_generate_schema=maybe", http.StatusBadRequest},
		{"injected table", "/api/table?table=orders%3Bdrop", http.StatusBadRequest},
		{"unknown table", "/api/table?table=ghosts", http.StatusNotFound},
		{"bad sort direction", "/api/table?table=orders&sort_by=id&sort_dir=sideways", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestServer_Query(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/query", map[string]any{"query": "DROP TABLE orders"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/query", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/query/cancel", map[string]any{"query_id": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Query ID not found or query already completed"}`, rec.Body.String())
}

func TestServer_DatasetLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/datasets", map[string]any{"name": "sales"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ds := decode[state.Dataset](t, rec)
	base := "/api/datasets/" + ds.ID

	rec = env.do(t, http.MethodPost, base+"/tables", map[string]any{"table_name": "orders", "alias": "o"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orders := decode[state.DatasetTable](t, rec)

	rec = env.do(t, http.MethodPost, base+"/tables", map[string]any{"table_name": "customers", "alias": "c"})
	require.Equal(t, http.StatusCreated, rec.Code)
	customers := decode[state.DatasetTable](t, rec)

	join := map[string]any{
		"left_dataset_table_id": orders.ID, "left_column": "customer_id",
		"right_dataset_table_id": customers.ID, "right_column": "id", "join_type": "inner",
	}
	rec = env.do(t, http.MethodPost, base+"/joins", join)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, base+"/joins", join)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate join")

	rec = env.do(t, http.MethodPut, fmt.Sprintf("%s/tables/%s/columns/region", base, customers.ID),
		map[string]any{"role": "Dimension"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPut, fmt.Sprintf("%s/tables/%s/columns/amount", base, orders.ID),
		map[string]any{"role": "Indicator", "display_name": "Total"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("%s/tables/%s", base, orders.ID), map[string]any{"position_x": 120})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 120.0, decode[state.DatasetTable](t, rec).PositionX)

	rec = env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]any](t, rec)
	assert.Equal(t, "sales", detail["name"])
	assert.Len(t, detail["tables"], 2)
	assert.Len(t, detail["joins"], 1)
	assert.Len(t, detail["columns"], 2)

	graph, err := env.store.LoadGraph(context.Background(), ds.ID)
	require.NoError(t, err)
	stmt, err := dataset.CompileGraph(graph)
	require.NoError(t, err)
	env.mock.ExpectQuery(stmt).WillReturnRows(sqlmock.NewRows([]string{"region", "Total"}).AddRow("EU", int64(10)))

	rec = env.do(t, http.MethodGet, base+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[engine.DatasetPreview](t, rec)
	assert.Equal(t, stmt, preview.SQL)
	assert.Equal(t, []string{"region", "Total"}, preview.Columns)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("%s/tables/%s", base, customers.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, base+"/preview", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_DatasetErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/datasets", map[string]any{"name": "empty"})
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/api/datasets/" + decode[state.Dataset](t, rec).ID

	rec = env.do(t, http.MethodGet, base+"/preview", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"no tables in dataset"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, base+"/tables", map[string]any{"table_name": "a b"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, base+"/tables", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rec = env.do(t, http.MethodGet, "/api/datasets/missing/joins", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, base+"/joins/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_AddDatasetColumn(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/datasets", map[string]any{"name": "sales"})
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/api/datasets/" + decode[state.Dataset](t, rec).ID

	rec = env.do(t, http.MethodPost, base+"/tables", map[string]any{"table_name": "public.orders"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orders := decode[state.DatasetTable](t, rec)
	assert.Equal(t, "orders", orders.Alias)

	rec = env.do(t, http.MethodPost, base+"/columns", map[string]any{
		"dataset_table_id": orders.ID, "column_name": "amount", "role": "indicator", "display_name": "Total",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	col := decode[state.DatasetColumn](t, rec)
	assert.Equal(t, orders.ID, col.DatasetTableID)
	assert.Equal(t, core.RoleIndicator, col.Role)

	const stmt = "SELECT SUM(orders.amount) AS \"Total\"\nFROM public.orders orders"
	env.mock.ExpectQuery(stmt).WillReturnRows(sqlmock.NewRows([]string{"Total"}).AddRow(int64(42)))
	rec = env.do(t, http.MethodGet, base+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, stmt, decode[engine.DatasetPreview](t, rec).SQL)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing table id", map[string]any{"column_name": "amount", "role": "indicator"}, http.StatusBadRequest},
		{"table not in dataset", map[string]any{"dataset_table_id": "ghost", "column_name": "amount"}, http.StatusNotFound},
		{"bad role", map[string]any{"dataset_table_id": orders.ID, "column_name": "amount", "role": "measure"}, http.StatusBadRequest},
		{"bad column", map[string]any{"dataset_table_id": orders.ID, "column_name": "a;b"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, base+"/columns", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_SemanticLayer(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/semantic/types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	types := decode[[]map[string]string](t, rec)
	require.NotEmpty(t, types)
	assert.Equal(t, map[string]string{"code": "active_flag", "label": "Boolean Flag"}, types[0])

	rec = env.do(t, http.MethodGet, "/api/semantic-modeling/column-types?type=date", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"code":"event_date","type":"date","category":"time","name":"Event Date"}]`, rec.Body.String())
	rec = env.do(t, http.MethodGet, "/api/semantic-modeling/column-types?type=money", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/semantic/mapping/bulk", map[string]any{"mappings": []map[string]string{
		{"schema": "public", "table": "orders", "column": "status", "sm_code": "event_date"},
		{"schema": "public", "table": "orders", "column": "id", "sm_code": "quantity"},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"updated":0,"inserted":2,"failed":0,"message":"Bulk semantic mapping applied successfully"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/semantic/mapping",
		map[string]string{"schema": "public", "table": "orders", "column": "id", "sm_code": "amount"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/semantic/mapping",
		map[string]string{"schema": "public", "table": "orders", "column": "id", "sm_code": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/semantic/columns?schema=public&table=orders", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[
		{"column":"id","semanticType":"number","filterType":"range","source":"semantic"},
		{"column":"status","semanticType":"date","filterType":"range","source":"semantic"}
	]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/semantic/columns?schema=public", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the date mapping lets range operators through on the text column
	env.mock.ExpectQuery(`SELECT COUNT(*) FROM "public"."orders" WHERE "status" >= @p0`).
		WithArgs(testutil.NamedArgs(pgx.NamedArgs{"p0": "2024-01-01"})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	env.mock.ExpectQuery(`SELECT * FROM "public"."orders" WHERE "status" >= @p0 LIMIT @limit OFFSET @offset`).
		WithArgs(testutil.NamedArgs(pgx.NamedArgs{"p0": "2024-01-01", "limit": 50, "offset": 0})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))

	rec = env.do(t, http.MethodGet,
		`/api/table?table=orders&filters=%5B%7B%22field%22%3A%22status%22%2C%22op%22%3A%22gte%22%2C%22value%22%3A%222024-01-01%22%7D%5D`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", sqlguard.ErrInvalidIdentifier), http.StatusBadRequest},
		{sqlguard.ErrUnsafeStatement, http.StatusBadRequest},
		{browse.ErrInvalidOperator, http.StatusBadRequest},
		{dataset.ErrNoSelectedColumns, http.StatusBadRequest},
		{&adhoc.ExecutionError{QueryID: "q", Err: errors.New("syntax")}, http.StatusBadRequest},
		{state.ErrInvalidJoin, http.StatusBadRequest},
		{fmt.Errorf("mapping 0: %w", state.ErrInvalidMapping), http.StatusBadRequest},
		{adapter.ErrTableNotFound, http.StatusNotFound},
		{fmt.Errorf("dataset x: %w", state.ErrNotFound), http.StatusNotFound},
		{adhoc.ErrQueryNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
