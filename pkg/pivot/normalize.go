package pivot

import (
	"fmt"
	"strings"
	"time"

	"github.com/teknatem/mpbackoffice/pkg/query"
)

// Normalizer converts driver rows of one configuration into RawRows
type Normalizer struct {
	columns []Column
}

// NewNormalizer prepares a normalizer for the columns cfg projects from schema.
// Unknown fields in cfg are ignored.
func NewNormalizer(schema *DataSourceSchema, cfg *DashboardConfig) *Normalizer {
	return &Normalizer{columns: resolveColumns(schema, cfg)}
}

// Normalize converts one driver row
func Normalize(schema *DataSourceSchema, cfg *DashboardConfig, row query.Row) RawRow {
	return NewNormalizer(schema, cfg).Normalize(row)
}

// Normalize never fails: a missing or unreadable cell becomes Null.
// Ref columns fall back from the joined label to the raw id, then to Null.
func (n *Normalizer) Normalize(row query.Row) RawRow {
	out := make(RawRow, len(n.columns))
	for _, col := range n.columns {
		switch col.Role {
		case RoleGrouping, RoleDisplay:
			if refID := col.RefID(); refID != "" {
				raw := castCell(row[refID], col.Type)
				out[refID] = raw
				if label := castCell(row[col.ID], TextType); !label.IsNull() {
					out[col.ID] = label
				} else {
					out[col.ID] = raw
				}
				continue
			}
			out[col.ID] = castCell(row[col.ID], col.Type)
		case RoleAggregate:
			if col.Aggregate == AggCount {
				out[col.ID] = castCell(row[col.ID], IntegerType)
			} else {
				out[col.ID] = castCell(row[col.ID], NumericType)
			}
			if weight := col.WeightID(); weight != "" {
				out[weight] = castCell(row[weight], IntegerType)
			}
		}
	}
	return out
}

// castCell reads a driver value as t. Anything that does not fit is Null.
func castCell(v interface{}, t ValueType) CellValue {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return NullCell()
	}

	switch t.Kind {
	case KindInteger:
		i, err := toInt64(v)
		if err != nil {
			return NullCell()
		}
		return IntCell(i)
	case KindNumeric:
		f, err := toFloat64(v)
		if err != nil {
			return NullCell()
		}
		return NumberCell(f)
	case KindText:
		switch s := v.(type) {
		case string:
			return TextCell(s)
		case time.Time:
			return TextCell(s.Format(dateTimeLayout))
		case bool:
			return TextCell(fmt.Sprint(s))
		default:
			if f, err := toFloat64(v); err == nil {
				return TextCell(CellValue{Kind: CellNumber, Num: f}.String())
			}
			return NullCell()
		}
	case KindDate:
		ts, _, err := parseTemporal(trimTemporal(v))
		if err != nil {
			return NullCell()
		}
		return TextCell(ts.Format(dateLayout))
	case KindDateTime:
		ts, _, err := parseTemporal(trimTemporal(v))
		if err != nil {
			return NullCell()
		}
		return TextCell(ts.Format(dateTimeLayout))
	case KindBoolean:
		b, err := toBool(v)
		if err != nil {
			return NullCell()
		}
		if b {
			return IntCell(1)
		}
		return IntCell(0)
	case KindRef:
		if s, ok := v.(string); ok {
			return TextCell(s)
		}
		i, err := toInt64(v)
		if err != nil {
			return NullCell()
		}
		return IntCell(i)
	default:
		return NullCell()
	}
}

// trimTemporal drops fractional seconds some drivers append to datetime text
func trimTemporal(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if i := strings.IndexByte(s, '.'); i > 0 && len(s) >= 19 {
		return s[:i]
	}
	return s
}
