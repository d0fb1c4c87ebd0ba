package adhoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrQueryNotFound is returned when cancelling an id that is not
	// pending, including a query that has already completed.
	ErrQueryNotFound = errors.New("query id not found or query already completed")

	// ErrDuplicateQueryID is returned when registering an id that is
	// already pending.
	ErrDuplicateQueryID = errors.New("query id already in use")
)

// BackendCanceler sends a cancel signal to a database backend.
type BackendCanceler interface {
	CancelBackend(ctx context.Context, pid int) (bool, error)
}

// Registry maps pending query ids to the backend pids executing them.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	pending  map[string]int
	canceler BackendCanceler
	logger   *slog.Logger
}

// NewRegistry creates an empty registry that cancels through canceler.
// If logger is nil, a discard logger is used.
func NewRegistry(canceler BackendCanceler, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		pending:  make(map[string]int),
		canceler: canceler,
		logger:   logger,
	}
}

// Register records pid as the backend executing queryID.
func (r *Registry) Register(queryID string, pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[queryID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateQueryID, queryID)
	}
	r.pending[queryID] = pid
	return nil
}

// Unregister removes queryID. Removing an unknown id is a no-op.
func (r *Registry) Unregister(queryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, queryID)
}

// Lookup returns the backend pid registered for queryID.
func (r *Registry) Lookup(queryID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pid, ok := r.pending[queryID]
	return pid, ok
}

// Len returns the number of pending queries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Cancel signals the backend executing queryID and returns its pid. It does
// not wait for the statement to stop and does not unregister the entry; the
// executing side does that when its statement returns.
//
// The pid is read before the signal is sent, so the query can complete in
// between and its pooled connection may already be running another
// statement on the same backend. pg_cancel_backend would then interrupt that
// statement instead. Cancel cannot rule this out; it detects an entry that
// disappeared while signalling, logs it, and reports ErrQueryNotFound.
func (r *Registry) Cancel(ctx context.Context, queryID string) (int, error) {
	pid, ok := r.Lookup(queryID)
	if !ok {
		return 0, ErrQueryNotFound
	}

	signalled, err := r.canceler.CancelBackend(ctx, pid)
	if err != nil {
		return 0, fmt.Errorf("cancel query %s: %w", queryID, err)
	}
	if !signalled {
		// The backend finished between the lookup and the signal.
		return 0, ErrQueryNotFound
	}
	if current, ok := r.Lookup(queryID); !ok || current != pid {
		r.logger.Warn("query completed while cancel was in flight; backend may have been reused",
			"query_id", queryID, "pid", pid)
		return 0, ErrQueryNotFound
	}

	r.logger.Info("query cancelled", "query_id", queryID, "pid", pid)
	return pid, nil
}
