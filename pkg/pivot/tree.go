package pivot

// AggregateSpec tells the tree builder how to combine one field.
// With WeightField set, AVG treats each row as a partial average carrying that many values.
type AggregateSpec struct {
	FieldID     string        `json:"field_id"`
	Func        AggregateFunc `json:"func"`
	WeightField string        `json:"weight_field,omitempty"`
}

// AggregateSpecs combines source rows the way the configuration's aggregates ask for
func AggregateSpecs(cfg *DashboardConfig) []AggregateSpec {
	var specs []AggregateSpec
	for _, sf := range aggregatedFields(cfg) {
		specs = append(specs, AggregateSpec{FieldID: sf.FieldID, Func: sf.Aggregate})
	}
	return specs
}

// RollupSpecs combines rows that are already SQL GROUP BY partials.
// Counts are summed and averages re-weighted by their hidden non-null count.
func RollupSpecs(cfg *DashboardConfig) []AggregateSpec {
	var specs []AggregateSpec
	for _, sf := range aggregatedFields(cfg) {
		spec := AggregateSpec{FieldID: sf.FieldID, Func: sf.Aggregate}
		switch sf.Aggregate {
		case AggCount:
			spec.Func = AggSum
		case AggAvg:
			spec.WeightField = sf.FieldID + WeightSuffix
		}
		specs = append(specs, spec)
	}
	return specs
}

func aggregatedFields(cfg *DashboardConfig) []SelectedField {
	var out []SelectedField
	seen := make(map[string]bool)
	for _, sf := range cfg.SelectedFields {
		if sf.Aggregate == "" || seen[sf.FieldID] {
			continue
		}
		seen[sf.FieldID] = true
		out = append(out, sf)
	}
	return out
}

// TreeNode is one group of the pivot tree. The root has no group field and holds the grand total.
type TreeNode struct {
	GroupField string             `json:"group_field,omitempty"`
	Key        CellValue          `json:"key"`
	Label      string             `json:"label"`
	Depth      int                `json:"depth"`
	RowCount   int                `json:"row_count"`
	Values     map[string]float64 `json:"values"`
	Children   []*TreeNode        `json:"children,omitempty"`

	childIndex map[string]int
	acc        []accumulator
}

// Value returns an aggregated value. Absent means the group had no data for it.
func (n *TreeNode) Value(id string) (float64, bool) {
	v, ok := n.Values[id]
	return v, ok
}

// Child finds a direct child by label
func (n *TreeNode) Child(label string) *TreeNode {
	for _, c := range n.Children {
		if c.Label == label {
			return c
		}
	}
	return nil
}

// Walk visits the node and its descendants depth first
func (n *TreeNode) Walk(fn func(*TreeNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

type accumulator struct {
	sum    float64
	weight float64
	count  int64
	extent float64
	seen   bool
}

// TreeBuilder folds normalized rows into a pivot tree
type TreeBuilder struct {
	groupings []string
	specs     []AggregateSpec
}

// NewTreeBuilder creates a builder for the given grouping order (outer to inner) and aggregates
func NewTreeBuilder(groupings []string, specs []AggregateSpec) *TreeBuilder {
	return &TreeBuilder{groupings: groupings, specs: specs}
}

// Build folds rows in input order. Siblings keep first-seen order.
func (b *TreeBuilder) Build(rows []RawRow) *TreeNode {
	root := b.newNode("", NullCell(), "", 0)
	path := make([]*TreeNode, 0, len(b.groupings)+1)

	for _, row := range rows {
		path = append(path[:0], root)
		node := root
		for depth, field := range b.groupings {
			key := groupKey(row, field)
			idx, ok := node.childIndex[key.key()]
			if !ok {
				child := b.newNode(field, key, row.Get(field).String(), depth+1)
				idx = len(node.Children)
				node.Children = append(node.Children, child)
				node.childIndex[key.key()] = idx
			}
			node = node.Children[idx]
			path = append(path, node)
		}
		for _, n := range path {
			b.accumulate(n, row)
		}
	}

	root.Walk(b.finalize)
	return root
}

// groupKey prefers the raw id of a ref grouping so equal labels of different records stay apart
func groupKey(row RawRow, field string) CellValue {
	if id, ok := row[field+RefIDSuffix]; ok && !id.IsNull() {
		return id
	}
	return row.Get(field)
}

func (b *TreeBuilder) newNode(field string, key CellValue, label string, depth int) *TreeNode {
	return &TreeNode{
		GroupField: field,
		Key:        key,
		Label:      label,
		Depth:      depth,
		Values:     make(map[string]float64, len(b.specs)),
		childIndex: make(map[string]int),
		acc:        make([]accumulator, len(b.specs)),
	}
}

func (b *TreeBuilder) accumulate(n *TreeNode, row RawRow) {
	n.RowCount++
	for i, spec := range b.specs {
		a := &n.acc[i]
		if spec.Func == AggCount {
			a.count++
			continue
		}
		v, ok := row.Get(spec.FieldID).Float()
		if !ok {
			continue
		}

		switch spec.Func {
		case AggSum:
			a.sum += v
			a.seen = true
		case AggAvg:
			w := 1.0
			if spec.WeightField != "" {
				w, ok = row.Get(spec.WeightField).Float()
				if !ok || w <= 0 {
					continue
				}
			}
			a.sum += v * w
			a.weight += w
		case AggMin:
			if !a.seen || v < a.extent {
				a.extent = v
			}
			a.seen = true
		case AggMax:
			if !a.seen || v > a.extent {
				a.extent = v
			}
			a.seen = true
		}
	}
}

func (b *TreeBuilder) finalize(n *TreeNode) {
	for i, spec := range b.specs {
		a := n.acc[i]
		switch spec.Func {
		case AggCount:
			n.Values[spec.FieldID] = float64(a.count)
		case AggSum:
			if a.seen {
				n.Values[spec.FieldID] = a.sum
			}
		case AggAvg:
			if a.weight > 0 {
				n.Values[spec.FieldID] = a.sum / a.weight
			}
		case AggMin, AggMax:
			if a.seen {
				n.Values[spec.FieldID] = a.extent
			}
		}
	}
	n.acc = nil
	n.childIndex = nil
}
