package pivot

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/teknatem/mpbackoffice/pkg/errors"
	"github.com/teknatem/mpbackoffice/pkg/query"
)

// ColumnRole tells how a result column was produced
type ColumnRole string

const (
	RoleGrouping  ColumnRole = "grouping"
	RoleDisplay   ColumnRole = "display"
	RoleAggregate ColumnRole = "aggregate"
)

// Column describes one visible result column, in SELECT order
type Column struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      ValueType     `json:"value_type"`
	Role      ColumnRole    `json:"role"`
	Aggregate AggregateFunc `json:"aggregate,omitempty"`
	Field     *FieldDef     `json:"-"`
}

// RefID is the alias of the hidden raw-id column projected next to a ref label
func (c Column) RefID() string {
	if c.Role == RoleAggregate || c.Field == nil || !c.Field.IsRef() {
		return ""
	}
	return c.ID + RefIDSuffix
}

// WeightID is the alias of the hidden non-null count projected next to an AVG
func (c Column) WeightID() string {
	if c.Aggregate != AggAvg {
		return ""
	}
	return c.ID + WeightSuffix
}

// BuiltQuery is a parameterized SELECT ready for the executor
type BuiltQuery struct {
	SQL     string
	Params  []Param
	Columns []Column
}

// Args returns the driver values of the parameters, in placeholder order
func (q *BuiltQuery) Args() []interface{} {
	args := make([]interface{}, len(q.Params))
	for i, p := range q.Params {
		args[i] = p.Value()
	}
	return args
}

// ParamStrings renders the parameters for display
func (q *BuiltQuery) ParamStrings() []string {
	out := make([]string, len(q.Params))
	for i, p := range q.Params {
		out[i] = p.String()
	}
	return out
}

// Option configures a QueryBuilder
type Option func(*QueryBuilder)

// WithClock sets the clock used to resolve date presets
func WithClock(now func() time.Time) Option {
	return func(b *QueryBuilder) {
		if now != nil {
			b.now = now
		}
	}
}

// QueryBuilder translates dashboard configurations over one schema into SQL
type QueryBuilder struct {
	schema *DataSourceSchema
	now    func() time.Time
}

// NewQueryBuilder creates a builder for the given schema
func NewQueryBuilder(schema *DataSourceSchema, opts ...Option) *QueryBuilder {
	b := &QueryBuilder{schema: schema, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates cfg against schema and returns the generated statement
func Build(schema *DataSourceSchema, cfg *DashboardConfig) (*BuiltQuery, error) {
	return NewQueryBuilder(schema).Build(cfg)
}

// Build validates cfg and returns the generated statement.
// Every error is a *errors.BuildError and no SQL is returned alongside it.
func (b *QueryBuilder) Build(cfg *DashboardConfig) (*BuiltQuery, error) {
	if cfg == nil {
		return nil, apperrors.NewBuildError(apperrors.KindEmptySelection, "", "configuration is required")
	}
	if cfg.DataSource != b.schema.ID {
		return nil, apperrors.NewBuildError(apperrors.KindSchemaMismatch, "",
			"data source '%s' does not match schema '%s'", cfg.DataSource, b.schema.ID)
	}
	if err := b.checkFields(cfg); err != nil {
		return nil, err
	}

	var predicates []string
	var params []Param
	for _, cond := range cfg.Filters {
		pred, args, err := b.predicate(cond)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, pred)
		params = append(params, args...)
	}

	if cfg.Limit != nil && *cfg.Limit < 0 {
		return nil, apperrors.NewBuildError(apperrors.KindInvalidCondition, "", "limit must not be negative")
	}

	columns := resolveColumns(b.schema, cfg)
	table := b.schema.Table
	hasAggregates := cfg.HasAggregates()
	joins := newJoinSet(table)
	orderExprs := make(map[string]string, len(columns))

	qb := query.From(table)
	for _, col := range columns {
		raw := query.Column(table, col.Field.DBColumn)
		switch col.Role {
		case RoleGrouping, RoleDisplay:
			if col.Field.IsRef() {
				display := query.Column(joins.alias(col.Field), col.Field.RefDisplayColumn)
				qb.AddSelectRaw(display, col.ID)
				qb.AddSelectRaw(raw, col.RefID())
				if hasAggregates {
					qb.GroupByRaw(raw)
					qb.GroupByRaw(display)
				}
				orderExprs[col.ID] = display
			} else {
				qb.AddSelectRaw(raw, col.ID)
				if hasAggregates {
					qb.GroupByRaw(raw)
				}
				orderExprs[col.ID] = raw
			}
		case RoleAggregate:
			expr := aggregateExpr(col.Aggregate, raw)
			qb.AddSelectRaw(expr, col.ID)
			if weight := col.WeightID(); weight != "" {
				qb.AddSelectRaw("COUNT("+raw+")", weight)
			}
			orderExprs[col.ID] = expr
		}
	}

	for _, j := range joins.list {
		qb.LeftJoin(j.table, j.alias, fmt.Sprintf("%s = %s",
			query.Column(table, j.fkColumn), query.Column(j.alias, j.keyColumn)))
	}

	args := make([]interface{}, len(params))
	for i, p := range params {
		args[i] = p.Value()
	}
	if len(predicates) > 0 {
		qb.WhereRaw(strings.Join(predicates, " AND "), args)
	}

	if len(cfg.Sort) > 0 {
		for _, s := range cfg.Sort {
			expr, ok := orderExprs[s.FieldID]
			if !ok {
				if _, known := b.schema.Field(s.FieldID); !known {
					return nil, apperrors.NewBuildError(apperrors.KindUnknownField, s.FieldID, "sort field is not defined in '%s'", b.schema.ID)
				}
				return nil, apperrors.NewBuildError(apperrors.KindInvalidCondition, s.FieldID, "sort field is not part of the result")
			}
			dir, err := sortDirection(s)
			if err != nil {
				return nil, err
			}
			qb.OrderByRaw(expr, dir)
		}
	} else {
		for _, id := range cfg.Groupings {
			qb.OrderByRaw(orderExprs[id], "ASC")
		}
	}

	if cfg.Limit != nil {
		qb.Limit(*cfg.Limit)
	}

	built := qb.Build()
	return &BuiltQuery{SQL: built.SQL, Params: params, Columns: columns}, nil
}

func aggregateExpr(fn AggregateFunc, column string) string {
	if fn == AggCount {
		return "COUNT(*)"
	}
	name, _ := fn.SQL()
	return name + "(" + column + ")"
}

func sortDirection(s SortSpec) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s.Direction)) {
	case "", "asc":
		return "ASC", nil
	case "desc":
		return "DESC", nil
	default:
		return "", apperrors.NewBuildError(apperrors.KindInvalidCondition, s.FieldID, "unknown sort direction '%s'", s.Direction)
	}
}

const (
	rolePlain     = "plain"
	roleAggregate = "aggregate"
)

func (b *QueryBuilder) lookup(id string) (*FieldDef, error) {
	f, ok := b.schema.Field(id)
	if !ok {
		return nil, apperrors.NewBuildError(apperrors.KindUnknownField, id, "field is not defined in '%s'", b.schema.ID)
	}
	return f, nil
}

// checkFields enforces capabilities and rejects a field used in conflicting roles.
// A grouping that is also listed as a plain selected or display field is the same column.
func (b *QueryBuilder) checkFields(cfg *DashboardConfig) error {
	if len(cfg.Groupings) == 0 && len(cfg.SelectedFields) == 0 && len(cfg.DisplayFields) == 0 {
		return apperrors.NewBuildError(apperrors.KindEmptySelection, "", "select, group or display at least one field")
	}

	roles := make(map[string]string)
	for _, id := range cfg.Groupings {
		f, err := b.lookup(id)
		if err != nil {
			return err
		}
		if !f.CanGroup {
			return apperrors.NewBuildError(apperrors.KindFieldNotGroupable, id, "field cannot be used for grouping")
		}
		if roles[id] != "" {
			return apperrors.NewBuildError(apperrors.KindDuplicateField, id, "field is grouped more than once")
		}
		roles[id] = rolePlain
	}

	for _, sf := range cfg.SelectedFields {
		f, err := b.lookup(sf.FieldID)
		if err != nil {
			return err
		}
		if sf.Aggregate == "" {
			if roles[sf.FieldID] == roleAggregate {
				return apperrors.NewBuildError(apperrors.KindDuplicateField, sf.FieldID, "field is both aggregated and selected as is")
			}
			roles[sf.FieldID] = rolePlain
			continue
		}
		if err := checkAggregate(f, sf.Aggregate); err != nil {
			return err
		}
		if roles[sf.FieldID] != "" {
			return apperrors.NewBuildError(apperrors.KindDuplicateField, sf.FieldID, "field is used in conflicting roles")
		}
		roles[sf.FieldID] = roleAggregate
	}

	for _, id := range cfg.DisplayFields {
		if _, err := b.lookup(id); err != nil {
			return err
		}
		if roles[id] == roleAggregate {
			return apperrors.NewBuildError(apperrors.KindDuplicateField, id, "field is both aggregated and displayed")
		}
		roles[id] = rolePlain
	}
	return nil
}

func checkAggregate(f *FieldDef, fn AggregateFunc) error {
	if _, ok := fn.SQL(); !ok {
		return apperrors.NewBuildError(apperrors.KindUnsupportedAggregate, f.ID, "unknown aggregate function '%s'", fn)
	}
	if !f.CanAggregate {
		return apperrors.NewBuildError(apperrors.KindFieldNotAggregable, f.ID, "field cannot be aggregated")
	}
	if fn == AggCount {
		return nil
	}

	switch f.Type.Kind {
	case KindInteger, KindNumeric:
		return nil
	case KindText, KindDate, KindDateTime, KindBoolean, KindRef:
		return apperrors.NewBuildError(apperrors.KindUnsupportedAggregate, f.ID, "%s is not valid for %s fields", strings.ToUpper(string(fn)), f.Type)
	default:
		return apperrors.NewBuildError(apperrors.KindUnsupportedAggregate, f.ID, "unknown value type %s", f.Type)
	}
}

// resolveColumns lists result columns: groupings, then plain selected and display fields,
// then aggregates. Unknown or repeated ids are skipped so it can run on unchecked configs.
func resolveColumns(schema *DataSourceSchema, cfg *DashboardConfig) []Column {
	var columns []Column
	seen := make(map[string]bool)

	add := func(id string, role ColumnRole, fn AggregateFunc) {
		if seen[id] {
			return
		}
		f, ok := schema.Field(id)
		if !ok {
			return
		}
		seen[id] = true
		columns = append(columns, Column{ID: f.ID, Name: f.Name, Type: f.Type, Role: role, Aggregate: fn, Field: f})
	}

	for _, id := range cfg.Groupings {
		add(id, RoleGrouping, "")
	}
	for _, sf := range cfg.SelectedFields {
		if sf.Aggregate == "" {
			add(sf.FieldID, RoleDisplay, "")
		}
	}
	for _, id := range cfg.DisplayFields {
		add(id, RoleDisplay, "")
	}
	for _, sf := range cfg.SelectedFields {
		if sf.Aggregate != "" {
			add(sf.FieldID, RoleAggregate, sf.Aggregate)
		}
	}
	return columns
}

type refJoin struct {
	table     string
	alias     string
	fkColumn  string
	keyColumn string
}

// joinSet hands out one alias per (ref table, foreign key column), in first-use order
type joinSet struct {
	source string
	list   []refJoin
}

func newJoinSet(source string) *joinSet {
	return &joinSet{source: source}
}

func (s *joinSet) alias(f *FieldDef) string {
	for _, j := range s.list {
		if j.table == f.RefTable && j.fkColumn == f.DBColumn {
			return j.alias
		}
	}
	j := refJoin{
		table:     f.RefTable,
		alias:     fmt.Sprintf("j%d", len(s.list)+1),
		fkColumn:  f.DBColumn,
		keyColumn: f.RefKeyColumn,
	}
	s.list = append(s.list, j)
	return j.alias
}
