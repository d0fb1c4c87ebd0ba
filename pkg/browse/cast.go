package browse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/canvasql/pkg/core"
)

const dateLayout = "2006-01-02"

// CastValue converts a scanned cell to its JSON representation for a
// column of type t. Numbers pass through, booleans become bool, dates and
// datetimes become ISO-8601 text and everything else becomes text.
func CastValue(v any, t core.UIType) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch t {
	case core.UITypeNumber:
		return v
	case core.UITypeBoolean:
		return castBool(v)
	case core.UITypeDate:
		if tm, ok := v.(time.Time); ok {
			return tm.Format(dateLayout)
		}
		return fmt.Sprint(v)
	case core.UITypeDatetime:
		if tm, ok := v.(time.Time); ok {
			return tm.Format(time.RFC3339Nano)
		}
		return fmt.Sprint(v)
	default:
		if tm, ok := v.(time.Time); ok {
			return tm.Format(time.RFC3339Nano)
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
}

func castBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b
		}
		return x != ""
	case int64:
		return x != 0
	case int32:
		return x != 0
	case int:
		return x != 0
	case float64:
		return x != 0
	}
	return true
}
