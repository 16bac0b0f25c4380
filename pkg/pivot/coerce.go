package pivot

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type boundSide int

const (
	exactValue boundSide = iota
	lowerBound
	upperBound
)

const dateTimeLayout = "2006-01-02 15:04:05"

var dateTimeLayouts = []string{
	dateTimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// coerceLiteral converts a decoded filter literal into a bind parameter of the field's type.
// A date-only upper bound on a datetime field covers the whole day.
func coerceLiteral(t ValueType, v interface{}, side boundSide) (Param, error) {
	if v == nil {
		return Param{}, fmt.Errorf("value is required")
	}

	switch t.Kind {
	case KindInteger:
		i, err := toInt64(v)
		if err != nil {
			return Param{}, err
		}
		return IntParam(i), nil
	case KindNumeric:
		f, err := toFloat64(v)
		if err != nil {
			return Param{}, err
		}
		return NumParam(f), nil
	case KindText:
		s, ok := v.(string)
		if !ok {
			return Param{}, fmt.Errorf("expected text, got %T", v)
		}
		return TextParam(s), nil
	case KindDate:
		d, _, err := parseTemporal(v)
		if err != nil {
			return Param{}, err
		}
		return TextParam(d.Format(dateLayout)), nil
	case KindDateTime:
		ts, dateOnly, err := parseTemporal(v)
		if err != nil {
			return Param{}, err
		}
		if dateOnly && side == upperBound {
			ts = ts.Add(24*time.Hour - time.Second)
		}
		return TextParam(ts.Format(dateTimeLayout)), nil
	case KindBoolean:
		b, err := toBool(v)
		if err != nil {
			return Param{}, err
		}
		if b {
			return IntParam(1), nil
		}
		return IntParam(0), nil
	case KindRef:
		if s, ok := v.(string); ok {
			return TextParam(s), nil
		}
		i, err := toInt64(v)
		if err != nil {
			return Param{}, err
		}
		return IntParam(i), nil
	default:
		return Param{}, fmt.Errorf("unsupported value type %s", t)
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", n.String())
		}
		return integral(f)
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d out of range", n)
		}
		return int64(n), nil
	case float64:
		return integral(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func integral(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("expected integer, got %v", f)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is itself out of range
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("integer %v out of range", f)
	}
	return int64(f), nil
}

func toFloat64(v interface{}) (float64, error) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n.String())
		}
		f = parsed
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", n)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("number must be finite")
	}
	return f, nil
}

func toBool(v interface{}) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q", b)
		}
		return parsed, nil
	default:
		i, err := toInt64(v)
		if err != nil || (i != 0 && i != 1) {
			return false, fmt.Errorf("expected boolean, got %v", v)
		}
		return i == 1, nil
	}
}

// parseTemporal accepts a date or a datetime, as text or time.Time
func parseTemporal(v interface{}) (time.Time, bool, error) {
	switch t := v.(type) {
	case time.Time:
		return t, false, nil
	case string:
		s := strings.TrimSpace(t)
		if d, err := time.Parse(dateLayout, s); err == nil {
			return d, true, nil
		}
		for _, layout := range dateTimeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, false, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("invalid date %q", t)
	default:
		return time.Time{}, false, fmt.Errorf("expected date, got %T", v)
	}
}
