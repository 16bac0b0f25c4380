package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teknatem/mpbackoffice/internal/application/services"
	"github.com/teknatem/mpbackoffice/pkg/constants"
	"github.com/teknatem/mpbackoffice/pkg/pivot"
)

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	var ids []string
	for _, s := range registry.List() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{DataSourceSalesRegister, DataSourceWBFinanceReport, DataSourceNomenclaturePrices}, ids)

	sales, ok := registry.Get(DataSourceSalesRegister)
	require.True(t, ok)
	mp, ok := sales.Field("marketplace")
	require.True(t, ok)
	assert.Equal(t, constants.TableMarketplace, mp.RefTable)
	assert.Equal(t, constants.FieldID, mp.RefKeyColumn)
	assert.Equal(t, constants.TableSalesRegister, mp.SourceTable)
}

// Every data source must produce statements the validator accepts for all of its fields
func TestDataSources_BuildEveryField(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)
	validator := services.NewStatementValidator()

	for _, schema := range registry.List() {
		cfg := &pivot.DashboardConfig{DataSource: schema.ID}
		for _, f := range schema.Fields {
			switch {
			case f.CanGroup:
				cfg.Groupings = append(cfg.Groupings, f.ID)
			case f.CanAggregate:
				cfg.SelectedFields = append(cfg.SelectedFields, pivot.SelectedField{FieldID: f.ID, Aggregate: pivot.AggAvg})
			default:
				cfg.Filters = append(cfg.Filters, pivot.FilterCondition{
					FieldID:    f.ID,
					ValueType:  f.Type,
					Definition: pivot.Nullability{IsNull: false},
				})
			}
		}

		built, err := pivot.Build(schema, cfg)
		require.NoError(t, err, schema.ID)
		assert.NoError(t, validator.Validate(built.SQL, len(built.Params)), schema.ID)
	}
}
