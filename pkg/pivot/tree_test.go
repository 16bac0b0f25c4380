package pivot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesRows() []RawRow {
	return []RawRow{
		{"region": TextCell("B"), "channel": TextCell("web"), "amount": NumberCell(7), "qty": IntCell(1)},
		{"region": TextCell("A"), "channel": TextCell("shop"), "amount": NumberCell(10), "qty": IntCell(2)},
		{"region": TextCell("A"), "channel": TextCell("web"), "amount": NumberCell(5), "qty": NullCell()},
		{"region": TextCell("C"), "channel": TextCell("web"), "amount": NullCell(), "qty": IntCell(4)},
		{"region": TextCell("B"), "channel": TextCell("shop"), "amount": NumberCell(-3.5), "qty": IntCell(8)},
		{"region": TextCell("A"), "channel": TextCell("web"), "amount": NumberCell(12.25), "qty": IntCell(1)},
	}
}

func TestTreeBuilder_Scenario(t *testing.T) {
	rows := []RawRow{
		{"region": TextCell("A"), "amount": NumberCell(10)},
		{"region": TextCell("A"), "amount": NumberCell(5)},
		{"region": TextCell("B"), "amount": NumberCell(7)},
	}

	root := NewTreeBuilder([]string{"region"}, []AggregateSpec{{FieldID: "amount", Func: AggSum}}).Build(rows)

	assert.Equal(t, 22.0, root.Values["amount"])
	require.Len(t, root.Children, 2)
	assert.Equal(t, "A", root.Children[0].Label)
	assert.Equal(t, 15.0, root.Children[0].Values["amount"])
	assert.Equal(t, "B", root.Children[1].Label)
	assert.Equal(t, 7.0, root.Children[1].Values["amount"])
	assert.Equal(t, 3, root.RowCount)
	assert.Equal(t, 1, root.Children[0].Depth)
	assert.Equal(t, "region", root.Children[0].GroupField)
	assert.Empty(t, root.Children[0].Children)
}

func TestTreeBuilder_AverageSkipsNulls(t *testing.T) {
	rows := []RawRow{
		{"price": NumberCell(10)},
		{"price": IntCell(20)},
		{"price": NullCell()},
		{"price": NumberCell(30)},
	}

	root := NewTreeBuilder(nil, []AggregateSpec{
		{FieldID: "price", Func: AggAvg},
		{FieldID: "lines", Func: AggCount},
	}).Build(rows)

	avg, ok := root.Value("price")
	require.True(t, ok)
	assert.Equal(t, 20.0, avg)
	assert.Equal(t, 4.0, root.Values["lines"])
	assert.Empty(t, root.Children)
}

func TestTreeBuilder_RootEqualsTotal(t *testing.T) {
	rows := salesRows()
	specs := []AggregateSpec{
		{FieldID: "amount", Func: AggSum},
		{FieldID: "qty", Func: AggCount},
		{FieldID: "amount", Func: AggAvg},
		{FieldID: "qty", Func: AggMin},
		{FieldID: "amount", Func: AggMax},
	}
	var sum, avgSum float64
	var avgN int
	minQty, maxAmount := 0.0, 0.0
	seenQty, seenAmount := false, false
	for _, r := range rows {
		if v, ok := r["amount"].Float(); ok {
			sum += v
			avgSum += v
			avgN++
			if !seenAmount || v > maxAmount {
				maxAmount = v
			}
			seenAmount = true
		}
		if v, ok := r["qty"].Float(); ok {
			if !seenQty || v < minQty {
				minQty = v
			}
			seenQty = true
		}
	}

	for _, groupings := range [][]string{nil, {"region"}, {"region", "channel"}, {"channel", "region"}} {
		t.Run(groupingName(groupings), func(t *testing.T) {
			assertTotals := func(specs []AggregateSpec, id string, expected float64) {
				root := NewTreeBuilder(groupings, specs).Build(rows)
				assert.InDelta(t, expected, root.Values[id], 1e-9)
				assert.Equal(t, len(rows), root.RowCount)
				assertDepth(t, root, len(groupings))
			}
			assertTotals(specs[0:1], "amount", sum)
			assertTotals(specs[1:2], "qty", float64(len(rows)))
			assertTotals(specs[2:3], "amount", avgSum/float64(avgN))
			assertTotals(specs[3:4], "qty", minQty)
			assertTotals(specs[4:5], "amount", maxAmount)
		})
	}
}

func groupingName(groupings []string) string {
	if len(groupings) == 0 {
		return "no groupings"
	}
	name := ""
	for i, g := range groupings {
		if i > 0 {
			name += ">"
		}
		name += g
	}
	return name
}

func assertDepth(t *testing.T, root *TreeNode, depth int) {
	t.Helper()
	root.Walk(func(n *TreeNode) {
		if len(n.Children) == 0 {
			assert.Equal(t, depth, n.Depth)
		}
		childRows := 0
		for _, c := range n.Children {
			childRows += c.RowCount
		}
		if len(n.Children) > 0 {
			assert.Equal(t, n.RowCount, childRows)
		}
	})
}

func TestTreeBuilder_FirstSeenOrder(t *testing.T) {
	root := NewTreeBuilder([]string{"region", "channel"}, nil).Build(salesRows())

	var labels []string
	for _, c := range root.Children {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"B", "A", "C"}, labels)

	a := root.Child("A")
	require.NotNil(t, a)
	require.Len(t, a.Children, 2)
	assert.Equal(t, "shop", a.Children[0].Label)
	assert.Equal(t, "web", a.Children[1].Label)
	assert.Equal(t, 2, a.Child("web").RowCount)
	assert.Equal(t, 2, a.Child("web").Depth)
	assert.Nil(t, root.Child("D"))
}

func TestTreeBuilder_NullsAndEmptyGroups(t *testing.T) {
	rows := []RawRow{
		{"region": NullCell(), "amount": NullCell()},
		{"region": TextCell(""), "amount": NumberCell(4)},
		{"region": NullCell(), "amount": NullCell()},
	}

	root := NewTreeBuilder([]string{"region"}, []AggregateSpec{
		{FieldID: "amount", Func: AggSum},
		{FieldID: "amount_count", Func: AggCount},
	}).Build(rows)

	require.Len(t, root.Children, 2)
	nullGroup := root.Children[0]
	assert.True(t, nullGroup.Key.IsNull())
	assert.Equal(t, 2, nullGroup.RowCount)
	_, ok := nullGroup.Value("amount")
	assert.False(t, ok)
	assert.Equal(t, 2.0, nullGroup.Values["amount_count"])

	emptyGroup := root.Children[1]
	assert.False(t, emptyGroup.Key.IsNull())
	assert.Equal(t, 4.0, emptyGroup.Values["amount"])
	assert.Equal(t, 4.0, root.Values["amount"])
}

func TestTreeBuilder_RefKeysUseRawID(t *testing.T) {
	rows := []RawRow{
		{"organization": TextCell("Acme"), "organization__id": IntCell(1), "amount": NumberCell(1)},
		{"organization": TextCell("Acme"), "organization__id": IntCell(2), "amount": NumberCell(2)},
		{"organization": TextCell("Acme"), "organization__id": IntCell(1), "amount": NumberCell(3)},
	}

	root := NewTreeBuilder([]string{"organization"}, []AggregateSpec{{FieldID: "amount", Func: AggSum}}).Build(rows)

	require.Len(t, root.Children, 2)
	assert.Equal(t, IntCell(1), root.Children[0].Key)
	assert.Equal(t, "Acme", root.Children[0].Label)
	assert.Equal(t, 4.0, root.Children[0].Values["amount"])
	assert.Equal(t, 2.0, root.Children[1].Values["amount"])
}

func TestTreeBuilder_RollupOfSQLPartials(t *testing.T) {
	cfg := &DashboardConfig{
		DataSource: "sales",
		Groupings:  []string{"region"},
		SelectedFields: []SelectedField{
			{FieldID: "price", Aggregate: AggAvg},
			{FieldID: "lines", Aggregate: AggCount},
			{FieldID: "amount", Aggregate: AggSum},
			{FieldID: "cheapest", Aggregate: AggMin},
		},
	}
	// region A/web averages 10 over 2 values, A/shop 40 over 1, B/web has no prices
	partials := []RawRow{
		{"region": TextCell("A"), "price": NumberCell(10), "price__n": IntCell(2), "lines": IntCell(3), "amount": NumberCell(20), "cheapest": NumberCell(5)},
		{"region": TextCell("A"), "price": NumberCell(40), "price__n": IntCell(1), "lines": IntCell(1), "amount": NumberCell(40), "cheapest": NumberCell(40)},
		{"region": TextCell("B"), "price": NullCell(), "price__n": IntCell(0), "lines": IntCell(2), "amount": NullCell(), "cheapest": NullCell()},
	}

	specs := RollupSpecs(cfg)
	assert.Equal(t, []AggregateSpec{
		{FieldID: "price", Func: AggAvg, WeightField: "price__n"},
		{FieldID: "lines", Func: AggSum},
		{FieldID: "amount", Func: AggSum},
		{FieldID: "cheapest", Func: AggMin},
	}, specs)

	root := NewTreeBuilder(cfg.Groupings, specs).Build(partials)
	assert.InDelta(t, 20.0, root.Values["price"], 1e-9)
	assert.Equal(t, 6.0, root.Values["lines"])
	assert.Equal(t, 60.0, root.Values["amount"])
	assert.Equal(t, 5.0, root.Values["cheapest"])

	b := root.Child("B")
	require.NotNil(t, b)
	assert.Equal(t, 2.0, b.Values["lines"])
	_, ok := b.Value("price")
	assert.False(t, ok)

	assert.Equal(t, []AggregateSpec{
		{FieldID: "price", Func: AggAvg},
		{FieldID: "lines", Func: AggCount},
		{FieldID: "amount", Func: AggSum},
		{FieldID: "cheapest", Func: AggMin},
	}, AggregateSpecs(cfg))
}
