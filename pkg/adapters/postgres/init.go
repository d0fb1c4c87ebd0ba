package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/canvasql/pkg/adapter"
)

// Name is the database.type value that selects this adapter.
const Name = "postgres"

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
