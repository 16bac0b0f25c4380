package pivot

// AggregateFunc is a SQL aggregate applied to a selected field
type AggregateFunc string

const (
	AggSum   AggregateFunc = "sum"
	AggCount AggregateFunc = "count"
	AggAvg   AggregateFunc = "avg"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
)

// SQL returns the SQL function name
func (a AggregateFunc) SQL() (string, bool) {
	switch a {
	case AggSum:
		return "SUM", true
	case AggCount:
		return "COUNT", true
	case AggAvg:
		return "AVG", true
	case AggMin:
		return "MIN", true
	case AggMax:
		return "MAX", true
	default:
		return "", false
	}
}

// SelectedField is a field requested in the report, optionally aggregated
type SelectedField struct {
	FieldID   string        `json:"field_id"`
	Aggregate AggregateFunc `json:"aggregate,omitempty"`
}

// SortSpec overrides the default ordering by groupings
type SortSpec struct {
	FieldID   string `json:"field_id"`
	Direction string `json:"direction,omitempty"`
}

// CalculatedField is a measure derived from aggregate values on every tree node
type CalculatedField struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Expression string `json:"expression"`
}

// DashboardConfig is a user-authored report definition
type DashboardConfig struct {
	DataSource     string            `json:"data_source"`
	Groupings      []string          `json:"groupings"`
	SelectedFields []SelectedField   `json:"selected_fields"`
	Filters        []FilterCondition `json:"filters"`
	DisplayFields  []string          `json:"display_fields,omitempty"`
	Calculated     []CalculatedField `json:"calculated,omitempty"`
	Sort           []SortSpec        `json:"sort,omitempty"`
	Limit          *int              `json:"limit,omitempty"`
}

// HasAggregates reports whether any selected field is aggregated
func (c *DashboardConfig) HasAggregates() bool {
	for _, sf := range c.SelectedFields {
		if sf.Aggregate != "" {
			return true
		}
	}
	return false
}
