package browse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/canvasql/pkg/core"
)

// rawFilter is one element of the filters JSON array.
type rawFilter struct {
	Field string `mapstructure:"field"`
	Op    string `mapstructure:"op"`
	Value any    `mapstructure:"value"`
}

// DecodeFilters decodes the filters query parameter, a JSON array of
// {"field", "op", "value"} objects, into typed clauses.
//
// An empty payload yields no filters. Numbers are kept as json.Number so
// that Compile can coerce them by column type without losing precision.
func DecodeFilters(raw string) ([]core.FilterClause, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: filters must be a JSON array", ErrMalformedFilter)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after filters array", ErrMalformedFilter)
	}

	clauses := make([]core.FilterClause, 0, len(items))
	for i, item := range items {
		fc, err := decodeFilter(item)
		if err != nil {
			return nil, fmt.Errorf("%w: filter %d: %v", ErrMalformedFilter, i, err)
		}
		clauses = append(clauses, fc)
	}
	return clauses, nil
}

func decodeFilter(item any) (core.FilterClause, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return core.FilterClause{}, fmt.Errorf("expected object, got %T", item)
	}

	var rf rawFilter
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &rf,
	})
	if err != nil {
		return core.FilterClause{}, err
	}
	if err := dec.Decode(obj); err != nil {
		return core.FilterClause{}, err
	}

	if rf.Field == "" {
		return core.FilterClause{}, fmt.Errorf("missing field")
	}
	if rf.Op == "" {
		return core.FilterClause{}, fmt.Errorf("missing op")
	}
	op, ok := core.ParseOperator(rf.Op)
	if !ok {
		return core.FilterClause{}, fmt.Errorf("unknown operator %q", rf.Op)
	}

	switch rf.Value.(type) {
	case map[string]any, []any:
		return core.FilterClause{}, fmt.Errorf("value must be a scalar")
	}

	return core.FilterClause{Field: rf.Field, Op: op, Value: rf.Value}, nil
}
