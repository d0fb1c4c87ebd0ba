package testutil

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
)

// namedArgsConverter passes pgx.NamedArgs through untouched, the way the
// pgx stdlib driver does, and converts everything else like database/sql.
type namedArgsConverter struct{}

func (namedArgsConverter) ConvertValue(v any) (driver.Value, error) {
	if _, ok := v.(pgx.NamedArgs); ok {
		return v, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

// NewMockDB returns a sqlmock database whose queries are matched by exact
// text and which accepts pgx.NamedArgs as a query argument. The database is
// closed when the test ends.
func NewMockDB(t testing.TB) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
		sqlmock.ValueConverterOption(namedArgsConverter{}),
	)
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// NamedArgs matches a pgx.NamedArgs query argument by deep equality.
func NamedArgs(want pgx.NamedArgs) sqlmock.Argument {
	return namedArgsMatcher{want: want}
}

type namedArgsMatcher struct {
	want pgx.NamedArgs
}

func (m namedArgsMatcher) Match(v driver.Value) bool {
	got, ok := v.(pgx.NamedArgs)
	return ok && reflect.DeepEqual(got, m.want)
}
