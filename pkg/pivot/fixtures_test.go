package pivot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func salesSchema(t *testing.T) *DataSourceSchema {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, registry.Register(DataSourceSchema{
		ID:    "sales",
		Name:  "Sales",
		Table: "sales",
		Fields: []FieldDef{
			{ID: "region", Type: TextType, CanGroup: true},
			{ID: "amount", Type: NumericType, CanAggregate: true},
			{ID: "cost", Type: NumericType, CanAggregate: true},
			{ID: "qty", Type: IntegerType, CanAggregate: true},
			{ID: "sale_date", Type: DateType, CanGroup: true},
			{ID: "created_at", Type: DateTimeType},
			{ID: "is_return", Type: BooleanType, CanGroup: true},
			{ID: "note", Type: TextType},
			{
				ID:               "marketplace",
				Type:             RefType("marketplace"),
				DBColumn:         "marketplace_id",
				RefTable:         "marketplace",
				RefDisplayColumn: "name",
				CanGroup:         true,
				CanAggregate:     true,
			},
			{
				ID:               "organization",
				Type:             RefType("organization"),
				DBColumn:         "organization_id",
				RefTable:         "organization",
				RefDisplayColumn: "description",
				CanGroup:         true,
			},
		},
	}))
	schema, ok := registry.Get("sales")
	require.True(t, ok)
	return schema
}

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 13, 45, 0, 0, time.UTC)
	}
}

func intPtr(i int) *int {
	return &i
}
