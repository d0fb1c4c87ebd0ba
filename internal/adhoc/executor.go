package adhoc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

// DefaultLimit is the page size used when a request does not set one.
const DefaultLimit = 10

// sqlstate query_canceled
const queryCanceledCode = "57014"

// ErrInvalidPagination is returned for a negative limit or offset.
var ErrInvalidPagination = errors.New("limit and offset must not be negative")

// ConnProvider checks out dedicated database connections.
type ConnProvider interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// Request is one ad-hoc execution request.
type Request struct {
	Query   string `json:"query"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
	QueryID string `json:"query_id,omitempty"`
}

// Column describes a result column. Ad-hoc columns are always text.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Result is one page of an ad-hoc query.
type Result struct {
	Columns   []Column             `json:"columns"`
	Data      []map[string]*string `json:"data"`
	RowCount  int                  `json:"row_count"`
	TotalRows int64                `json:"total_rows"`
	HasMore   bool                 `json:"has_more"`
	QueryID   string               `json:"query_id"`
	Error     *string              `json:"error"`
}

// ExecutionError is a database error raised by a submitted statement,
// including a statement cancelled by a cancel request.
type ExecutionError struct {
	QueryID   string
	Cancelled bool
	Err       error
}

func (e *ExecutionError) Error() string {
	if e.Cancelled {
		return fmt.Sprintf("query %s was cancelled: %v", e.QueryID, e.Err)
	}
	return fmt.Sprintf("query %s failed: %v", e.QueryID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Option configures an Executor.
type Option func(*Executor)

// WithDefaultLimit sets the page size used when a request has no limit.
func WithDefaultLimit(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithIDGenerator replaces the query id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Executor) {
		e.newID = fn
	}
}

// Executor runs ad-hoc statements.
type Executor struct {
	conns        ConnProvider
	registry     *Registry
	logger       *slog.Logger
	defaultLimit int
	newID        func() string
}

// NewExecutor creates an executor that checks connections out of conns and
// tracks them in registry. If logger is nil, a discard logger is used.
func NewExecutor(conns ConnProvider, registry *Registry, logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Executor{
		conns:        conns,
		registry:     registry,
		logger:       logger,
		defaultLimit: DefaultLimit,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry shared with cancel requests.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute validates, wraps and runs req.Query and returns one page of it.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	queryID := req.QueryID
	if queryID == "" {
		queryID = e.newID()
	}

	if err := sqlguard.CheckQuery(req.Query); err != nil {
		return nil, err
	}

	limit, offset := req.Limit, req.Offset
	if limit < 0 || offset < 0 {
		return nil, ErrInvalidPagination
	}
	if limit == 0 {
		limit = e.defaultLimit
	}

	inner := strings.TrimSuffix(strings.TrimSpace(req.Query), ";")
	// inner stays on its own lines so a trailing line comment cannot swallow the wrapper.
	countSQL := "SELECT COUNT(*) FROM (\n" + inner + "\n) AS count_query"
	pageSQL := "SELECT * FROM (\n" + inner + "\n) AS limited_query LIMIT $1 OFFSET $2"

	conn, err := e.conns.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	var pid int
	if err := conn.QueryRowContext(ctx, "SELECT pg_backend_pid()").Scan(&pid); err != nil {
		return nil, fmt.Errorf("failed to read backend pid: %w", err)
	}

	if err := e.registry.Register(queryID, pid); err != nil {
		return nil, err
	}
	defer e.registry.Unregister(queryID)

	log := e.logger.With("query_id", queryID, "pid", pid)
	log.Debug("executing ad-hoc query", "limit", limit, "offset", offset)
	start := time.Now()

	var total int64
	if err := conn.QueryRowContext(ctx, countSQL).Scan(&total); err != nil {
		return nil, e.executionError(log, queryID, err)
	}

	rows, err := conn.QueryContext(ctx, pageSQL, limit, offset)
	if err != nil {
		return nil, e.executionError(log, queryID, err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, e.executionError(log, queryID, err)
	}

	res := &Result{
		Columns: make([]Column, len(names)),
		Data:    []map[string]*string{},
		QueryID: queryID,
	}
	for i, name := range names {
		res.Columns[i] = Column{Key: name, Label: name, Type: "string"}
	}

	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for len(res.Data) < limit && rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, e.executionError(log, queryID, err)
		}
		row := make(map[string]*string, len(names))
		for i, name := range names {
			row[name] = stringify(values[i])
		}
		res.Data = append(res.Data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, e.executionError(log, queryID, err)
	}

	res.RowCount = len(res.Data)
	res.TotalRows = total
	res.HasMore = int64(offset+res.RowCount) < total

	log.Info("ad-hoc query finished",
		"rows", res.RowCount,
		"total", total,
		"duration", time.Since(start))
	return res, nil
}

// Cancel cancels the pending query with the given id.
func (e *Executor) Cancel(ctx context.Context, queryID string) (int, error) {
	return e.registry.Cancel(ctx, queryID)
}

func (e *Executor) executionError(log *slog.Logger, queryID string, err error) error {
	cancelled := isCancellation(err)
	if cancelled {
		log.Info("ad-hoc query cancelled")
	} else {
		log.Warn("ad-hoc query failed", "error", err)
	}
	return &ExecutionError{QueryID: queryID, Cancelled: cancelled, Err: err}
}

func isCancellation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == queryCanceledCode {
		return true
	}
	return errors.Is(err, context.Canceled)
}

const timeLayout = "2006-01-02 15:04:05.999999999Z07:00"

// stringify renders a scanned cell as text. NULL stays nil.
func stringify(v any) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case []byte:
		s = string(x)
	case time.Time:
		s = x.Format(timeLayout)
	case bool:
		s = strconv.FormatBool(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		s = fmt.Sprint(x)
	}
	return &s
}
