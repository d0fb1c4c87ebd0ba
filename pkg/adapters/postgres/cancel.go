package postgres

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/canvasql/pkg/adapter"
)

// CancelBackend sends a cancel request for the statement running on the
// backend with the given pid. It runs on a pooled connection, never on the
// connection being cancelled, and returns without waiting for the target
// statement to stop.
func (a *Adapter) CancelBackend(ctx context.Context, pid int) (bool, error) {
	if a.DB == nil {
		return false, adapter.ErrNotConnected
	}

	var ok bool
	if err := a.DB.QueryRowContext(ctx, "SELECT pg_cancel_backend($1)", pid).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to cancel backend %d: %w", pid, err)
	}

	a.Logger.Debug("cancel requested", "pid", pid, "signalled", ok)
	return ok, nil
}
