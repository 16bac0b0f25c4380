package pivot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/teknatem/mpbackoffice/pkg/errors"
	"github.com/teknatem/mpbackoffice/pkg/expression"
)

func TestCalculator_Apply(t *testing.T) {
	cfg := &DashboardConfig{
		DataSource: "sales",
		Groupings:  []string{"region"},
		SelectedFields: []SelectedField{
			{FieldID: "amount", Aggregate: AggSum},
			{FieldID: "cost", Aggregate: AggSum},
		},
		Calculated: []CalculatedField{
			{ID: "margin", Expression: "amount - cost"},
			{ID: "margin_pct", Expression: "ROUND(DIV(margin, amount) * 100, 1)"},
		},
	}
	rows := []RawRow{
		{"region": TextCell("A"), "amount": NumberCell(200), "cost": NumberCell(150)},
		{"region": TextCell("B"), "amount": NumberCell(0), "cost": NumberCell(10)},
		{"region": TextCell("C"), "amount": NullCell(), "cost": NumberCell(5)},
	}

	calc, err := NewCalculator(expression.NewEngine(), cfg)
	require.NoError(t, err)

	root := NewTreeBuilder(cfg.Groupings, AggregateSpecs(cfg)).Build(rows)
	calc.Apply(root)

	assert.Equal(t, 35.0, root.Values["margin"])
	assert.Equal(t, 17.5, root.Values["margin_pct"])

	a := root.Child("A")
	assert.Equal(t, 50.0, a.Values["margin"])
	assert.Equal(t, 25.0, a.Values["margin_pct"])

	b := root.Child("B")
	assert.Equal(t, -10.0, b.Values["margin"])
	_, ok := b.Value("margin_pct")
	assert.False(t, ok, "division by zero leaves the measure absent")

	c := root.Child("C")
	_, ok = c.Value("margin")
	assert.False(t, ok, "a missing aggregate leaves the measure absent")
}

func TestNewCalculator_Rejects(t *testing.T) {
	base := func(calc ...CalculatedField) *DashboardConfig {
		return &DashboardConfig{
			DataSource:     "sales",
			Groupings:      []string{"region"},
			SelectedFields: []SelectedField{{FieldID: "amount", Aggregate: AggSum}},
			Calculated:     calc,
		}
	}

	tests := []struct {
		name string
		cfg  *DashboardConfig
		kind apperrors.BuildErrorKind
	}{
		{"Syntax error", base(CalculatedField{ID: "x", Expression: "amount +"}), apperrors.KindInvalidExpression},
		{"Unknown variable", base(CalculatedField{ID: "x", Expression: "amount * rate"}), apperrors.KindInvalidExpression},
		{"Grouping is not a number", base(CalculatedField{ID: "x", Expression: "region * 2"}), apperrors.KindInvalidExpression},
		{"Empty expression", base(CalculatedField{ID: "x", Expression: " "}), apperrors.KindInvalidExpression},
		{"Reserved id", base(CalculatedField{ID: "amount__n", Expression: "amount"}), apperrors.KindInvalidExpression},
		{"Id taken by a field", base(CalculatedField{ID: "region", Expression: "amount"}), apperrors.KindDuplicateField},
		{"Id repeated", base(
			CalculatedField{ID: "x", Expression: "amount"},
			CalculatedField{ID: "x", Expression: "amount * 2"},
		), apperrors.KindDuplicateField},
		{"Forward reference", base(
			CalculatedField{ID: "x", Expression: "y + 1"},
			CalculatedField{ID: "y", Expression: "amount"},
		), apperrors.KindInvalidExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalculator(expression.NewEngine(), tt.cfg)
			require.Error(t, err)
			assert.True(t, apperrors.IsBuildError(err, tt.kind), err.Error())
		})
	}
}
