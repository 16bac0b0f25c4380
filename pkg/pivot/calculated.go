package pivot

import (
	"strings"

	apperrors "github.com/teknatem/mpbackoffice/pkg/errors"
	"github.com/teknatem/mpbackoffice/pkg/expression"
)

// Calculator evaluates calculated measures on every node of a finished tree.
// A measure sees the node's aggregate values and the measures declared before it.
type Calculator struct {
	engine *expression.Engine
	fields []CalculatedField
}

// NewCalculator compiles the configuration's calculated measures
func NewCalculator(engine *expression.Engine, cfg *DashboardConfig) (*Calculator, error) {
	taken := make(map[string]bool)
	for _, id := range cfg.Groupings {
		taken[id] = true
	}
	for _, id := range cfg.DisplayFields {
		taken[id] = true
	}

	env := make(map[string]interface{})
	for _, sf := range cfg.SelectedFields {
		taken[sf.FieldID] = true
		if sf.Aggregate != "" {
			env[sf.FieldID] = float64(0)
		}
	}

	for _, cf := range cfg.Calculated {
		if !identRe.MatchString(cf.ID) || strings.Contains(cf.ID, "__") {
			return nil, apperrors.NewBuildError(apperrors.KindInvalidExpression, cf.ID, "invalid measure id")
		}
		if taken[cf.ID] {
			return nil, apperrors.NewBuildError(apperrors.KindDuplicateField, cf.ID, "measure id is already used by a field")
		}
		if strings.TrimSpace(cf.Expression) == "" {
			return nil, apperrors.NewBuildError(apperrors.KindInvalidExpression, cf.ID, "expression is required")
		}
		if err := engine.Validate(cf.Expression, env); err != nil {
			return nil, apperrors.NewBuildError(apperrors.KindInvalidExpression, cf.ID, "%v", err)
		}
		taken[cf.ID] = true
		env[cf.ID] = float64(0)
	}

	return &Calculator{engine: engine, fields: cfg.Calculated}, nil
}

// Apply adds the measures to every node. A measure that fails or is not finite on a node
// is left absent there.
func (c *Calculator) Apply(root *TreeNode) {
	if len(c.fields) == 0 {
		return
	}
	root.Walk(func(n *TreeNode) {
		env := make(map[string]interface{}, len(n.Values)+len(c.fields))
		for k, v := range n.Values {
			env[k] = v
		}
		for _, cf := range c.fields {
			v, err := c.engine.EvaluateFloat(cf.Expression, env)
			if err != nil {
				continue
			}
			n.Values[cf.ID] = v
			env[cf.ID] = v
		}
	})
}
