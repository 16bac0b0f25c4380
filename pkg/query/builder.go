package query

import (
	"fmt"
	"strings"
)

// QueryResult represents the built SQL query and parameters
type QueryResult struct {
	SQL    string
	Params []interface{}
}

// Builder is a fluent SELECT query builder.
// Identifiers are backtick-quoted; values only ever travel as `?` parameters.
type Builder struct {
	table        string
	fields       []string
	joins        []string
	whereClauses []string
	params       []interface{}
	groupBy      []string
	orderBy      []string
	limit        *int
}

// From creates a new SELECT query builder
func From(table string) *Builder {
	return &Builder{
		table:        table,
		fields:       make([]string, 0),
		joins:        make([]string, 0),
		whereClauses: make([]string, 0),
		params:       make([]interface{}, 0),
	}
}

// QuoteIdent quotes a single SQL identifier
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Column returns a table-qualified, quoted column reference
func Column(table, column string) string {
	return QuoteIdent(table) + "." + QuoteIdent(column)
}

// AddSelectRaw adds a raw select expression
func (b *Builder) AddSelectRaw(expression string, alias ...string) *Builder {
	if len(alias) > 0 && alias[0] != "" {
		b.fields = append(b.fields, fmt.Sprintf("%s AS %s", expression, QuoteIdent(alias[0])))
	} else {
		b.fields = append(b.fields, expression)
	}
	return b
}

// Join adds a JOIN clause
func (b *Builder) Join(joinType string, table string, alias string, on string) *Builder {
	b.joins = append(b.joins, fmt.Sprintf("%s JOIN %s AS %s ON %s", joinType, QuoteIdent(table), QuoteIdent(alias), on))
	return b
}

// LeftJoin adds a LEFT JOIN clause
func (b *Builder) LeftJoin(table string, alias string, on string) *Builder {
	return b.Join("LEFT", table, alias, on)
}

// WhereRaw adds a raw WHERE condition with parameters
func (b *Builder) WhereRaw(sql string, params []interface{}) *Builder {
	if sql != "" {
		b.whereClauses = append(b.whereClauses, sql)
		b.params = append(b.params, params...)
	}
	return b
}

// GroupByRaw adds a raw expression to the GROUP BY clause
func (b *Builder) GroupByRaw(expression string) *Builder {
	b.groupBy = append(b.groupBy, expression)
	return b
}

// OrderByRaw adds a raw expression to the ORDER BY clause
func (b *Builder) OrderByRaw(expression string, direction string) *Builder {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	if dir != "DESC" {
		dir = "ASC"
	}
	b.orderBy = append(b.orderBy, fmt.Sprintf("%s %s", expression, dir))
	return b
}

// Limit adds LIMIT clause
func (b *Builder) Limit(n int) *Builder {
	b.limit = &n
	return b
}

// Build constructs the final SQL query
func (b *Builder) Build() QueryResult {
	params := make([]interface{}, len(b.params))
	copy(params, b.params)
	return QueryResult{
		SQL:    b.buildSelect(),
		Params: params,
	}
}

func (b *Builder) buildSelect() string {
	var parts []string

	// SELECT
	fields := "*"
	if len(b.fields) > 0 {
		fields = strings.Join(b.fields, ", ")
	}
	parts = append(parts, fmt.Sprintf("SELECT %s FROM %s", fields, QuoteIdent(b.table)))

	// JOINs
	if len(b.joins) > 0 {
		parts = append(parts, strings.Join(b.joins, " "))
	}

	// WHERE
	if len(b.whereClauses) > 0 {
		parts = append(parts, fmt.Sprintf("WHERE %s", strings.Join(b.whereClauses, " AND ")))
	}

	// GROUP BY
	if len(b.groupBy) > 0 {
		parts = append(parts, fmt.Sprintf("GROUP BY %s", strings.Join(b.groupBy, ", ")))
	}

	// ORDER BY
	if len(b.orderBy) > 0 {
		parts = append(parts, fmt.Sprintf("ORDER BY %s", strings.Join(b.orderBy, ", ")))
	}

	// LIMIT
	if b.limit != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *b.limit))
	}

	return strings.Join(parts, " ")
}
