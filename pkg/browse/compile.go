package browse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/leapstack-labs/canvasql/pkg/core"
	"github.com/leapstack-labs/canvasql/pkg/sqlguard"
)

// Request is a table-browse request.
type Request struct {
	Schema  string
	Table   string
	Columns []core.ColumnDescriptor
	SortBy  string
	SortDir string // "asc" or "desc", empty means asc
	Filters []core.FilterClause
	Limit   int
	Offset  int
}

// Compiled holds the page and count queries for one browse request.
type Compiled struct {
	SelectSQL string
	CountSQL  string
	Args      pgx.NamedArgs // filter params plus limit and offset
	CountArgs pgx.NamedArgs // filter params only
}

var operatorsByType = map[core.UIType][]core.Operator{
	core.UITypeString:   {core.OpEq, core.OpContains, core.OpStartsWith, core.OpEndsWith},
	core.UITypeNumber:   {core.OpEq, core.OpGt, core.OpGte, core.OpLt, core.OpLte},
	core.UITypeBoolean:  {core.OpEq},
	core.UITypeDate:     {core.OpEq, core.OpGt, core.OpGte, core.OpLt, core.OpLte},
	core.UITypeDatetime: {core.OpEq, core.OpGt, core.OpGte, core.OpLt, core.OpLte},
}

var comparisonSymbols = map[core.Operator]string{
	core.OpEq:  "=",
	core.OpGt:  ">",
	core.OpGte: ">=",
	core.OpLt:  "<",
	core.OpLte: "<=",
}

// AllowedOperators returns the operators legal for a UI type.
func AllowedOperators(t core.UIType) []core.Operator {
	if ops, ok := operatorsByType[t]; ok {
		return ops
	}
	return []core.Operator{core.OpEq}
}

func operatorAllowed(t core.UIType, op core.Operator) bool {
	for _, allowed := range AllowedOperators(t) {
		if allowed == op {
			return true
		}
	}
	return false
}

// Compile validates req and renders its page and count queries.
func Compile(req Request) (*Compiled, error) {
	schema, err := sqlguard.ValidateIdentifier(req.Schema, "schema")
	if err != nil {
		return nil, err
	}
	table, err := sqlguard.ValidateIdentifier(req.Table, "table")
	if err != nil {
		return nil, err
	}
	from := sqlguard.QuoteIdentifier(schema, table)

	cols := make(map[string]core.ColumnDescriptor, len(req.Columns))
	for _, c := range req.Columns {
		cols[c.Key] = c
	}

	orderBy, err := compileSort(req, cols)
	if err != nil {
		return nil, err
	}

	var where []string
	params := pgx.NamedArgs{}

	for i, f := range req.Filters {
		if isEmptyValue(f.Value) {
			continue
		}
		if _, err := sqlguard.ValidateIdentifier(f.Field, "filter field"); err != nil {
			return nil, err
		}
		col, ok := cols[f.Field]
		if !ok {
			return nil, fmt.Errorf("invalid filter field %q: %w", f.Field, ErrUnknownColumn)
		}
		if !operatorAllowed(col.Type, f.Op) {
			return nil, fmt.Errorf("operator %q not valid for %s: %w", f.Op, col.Type, ErrInvalidOperator)
		}

		value, err := coerceFilterValue(f.Value, col.Type)
		if err != nil {
			return nil, fmt.Errorf("filter on %q: %w", f.Field, err)
		}

		name := "p" + strconv.Itoa(i)
		ref := sqlguard.QuoteIdentifier(f.Field)

		switch f.Op {
		case core.OpContains:
			where = append(where, ref+" ILIKE @"+name)
			params[name] = "%" + value.(string) + "%"
		case core.OpStartsWith:
			where = append(where, ref+" ILIKE @"+name)
			params[name] = value.(string) + "%"
		case core.OpEndsWith:
			where = append(where, ref+" ILIKE @"+name)
			params[name] = "%" + value.(string)
		default:
			where = append(where, ref+" "+comparisonSymbols[f.Op]+" @"+name)
			params[name] = value
		}
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	args := make(pgx.NamedArgs, len(params)+2)
	for k, v := range params {
		args[k] = v
	}
	args["limit"] = req.Limit
	args["offset"] = req.Offset

	return &Compiled{
		SelectSQL: "SELECT * FROM " + from + whereSQL + orderBy + " LIMIT @limit OFFSET @offset",
		CountSQL:  "SELECT COUNT(*) FROM " + from + whereSQL,
		Args:      args,
		CountArgs: params,
	}, nil
}

func compileSort(req Request, cols map[string]core.ColumnDescriptor) (string, error) {
	dir := strings.ToLower(strings.TrimSpace(req.SortDir))
	switch dir {
	case "", "asc":
		dir = "ASC"
	case "desc":
		dir = "DESC"
	default:
		return "", fmt.Errorf("%q: %w", req.SortDir, ErrInvalidSortDirection)
	}

	if req.SortBy == "" {
		return "", nil
	}
	if _, err := sqlguard.ValidateIdentifier(req.SortBy, "sort field"); err != nil {
		return "", err
	}
	col, ok := cols[req.SortBy]
	if !ok {
		return "", fmt.Errorf("unknown sort field %q: %w", req.SortBy, ErrUnknownColumn)
	}
	if !col.Sortable {
		return "", fmt.Errorf("sorting disabled for %q: %w", req.SortBy, ErrSortingDisabled)
	}
	return " ORDER BY " + sqlguard.QuoteIdentifier(req.SortBy) + " " + dir, nil
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case json.Number:
		return x == ""
	}
	return false
}

// coerceFilterValue converts a decoded filter value to the Go type bound for
// a column of type t. String columns always bind text.
func coerceFilterValue(v any, t core.UIType) (any, error) {
	switch t {
	case core.UITypeNumber:
		return coerceNumber(v)
	case core.UITypeBoolean:
		return coerceBool(v)
	case core.UITypeDate, core.UITypeDatetime:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected date text, got %T", ErrInvalidFilterValue, v)
		}
		return s, nil
	default:
		return textValue(v), nil
	}
}

func coerceNumber(v any) (any, error) {
	var s string
	switch x := v.(type) {
	case int, int32, int64, float32, float64:
		return x, nil
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return nil, fmt.Errorf("%w: expected number, got %T", ErrInvalidFilterValue, v)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidFilterValue, s)
}

func coerceBool(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, fmt.Errorf("%w: expected true or false, got %v", ErrInvalidFilterValue, v)
}

func textValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
