package pivot

import (
	"errors"
	"strings"

	apperrors "github.com/teknatem/mpbackoffice/pkg/errors"
	"github.com/teknatem/mpbackoffice/pkg/query"
)

// likeEscape is the ESCAPE character of Contains patterns. It has no special meaning in
// MySQL or SQLite string literals.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// predicate renders one filter as a WHERE fragment with one placeholder per literal
func (b *QueryBuilder) predicate(cond FilterCondition) (string, []Param, error) {
	f, err := b.lookup(cond.FieldID)
	if err != nil {
		return "", nil, err
	}
	if !cond.ValueType.Equal(f.Type) {
		return "", nil, apperrors.NewBuildError(apperrors.KindConditionTypeMismatch, f.ID,
			"condition type %s does not match field type %s", cond.ValueType, f.Type)
	}
	if cond.Definition == nil {
		return "", nil, apperrors.NewBuildError(apperrors.KindInvalidCondition, f.ID, "condition definition is required")
	}
	if !conditionAllowed(f.Type, cond.Definition) {
		return "", nil, apperrors.NewBuildError(apperrors.KindUnsupportedCondition, f.ID,
			"%s condition is not valid for %s fields", cond.Definition.Kind(), f.Type)
	}

	col := query.Column(b.schema.Table, f.DBColumn)
	invalid := func(format string, args ...interface{}) error {
		return apperrors.NewBuildError(apperrors.KindInvalidCondition, f.ID, format, args...)
	}

	switch def := cond.Definition.(type) {
	case Comparison:
		op, ok := def.Operator.SQL()
		if !ok {
			return "", nil, invalid("unknown operator '%s'", def.Operator)
		}
		p, err := coerceLiteral(f.Type, def.Value, exactValue)
		if err != nil {
			return "", nil, invalid("%v", err)
		}
		return col + " " + op + " ?", []Param{p}, nil

	case Range:
		from, to, err := rangeBounds(f.Type, def.From, def.To)
		if err != nil {
			return "", nil, invalid("%v", err)
		}
		return boundedPredicate(col, from, to)

	case DatePeriod:
		fromRaw, toRaw := def.From, def.To
		if fromRaw == "" && toRaw == "" {
			if def.Preset == "" {
				return "", nil, invalid("date period needs a preset or explicit bounds")
			}
			start, end, ok := def.Preset.Resolve(b.now())
			if !ok {
				return "", nil, invalid("unknown date preset '%s'", def.Preset)
			}
			fromRaw, toRaw = start.Format(dateLayout), end.Format(dateLayout)
		}
		var fromVal, toVal interface{}
		if fromRaw != "" {
			fromVal = fromRaw
		}
		if toRaw != "" {
			toVal = toRaw
		}
		from, to, err := rangeBounds(f.Type, fromVal, toVal)
		if err != nil {
			return "", nil, invalid("%v", err)
		}
		return boundedPredicate(col, from, to)

	case Nullability:
		if def.IsNull {
			return col + " IS NULL", nil, nil
		}
		return col + " IS NOT NULL", nil, nil

	case Contains:
		if def.Pattern == "" {
			return "", nil, invalid("contains pattern must not be empty")
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(def.Pattern)) + "%"
		return "LOWER(" + col + ") LIKE ? ESCAPE '" + likeEscape + "'", []Param{TextParam(pattern)}, nil

	case InList:
		if len(def.Values) == 0 {
			return "", nil, invalid("in-list must contain at least one value")
		}
		params := make([]Param, 0, len(def.Values))
		for _, v := range def.Values {
			p, err := coerceLiteral(f.Type, v, exactValue)
			if err != nil {
				return "", nil, invalid("%v", err)
			}
			params = append(params, p)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
		return col + " IN (" + placeholders + ")", params, nil

	default:
		return "", nil, invalid("unknown condition %T", cond.Definition)
	}
}

// conditionAllowed reports which condition variants each value type accepts.
// Ordering comparisons need an ordered type.
func conditionAllowed(t ValueType, def ConditionDef) bool {
	switch d := def.(type) {
	case Comparison:
		if d.Operator == OpEq || d.Operator == OpNe {
			return true
		}
		if _, known := d.Operator.SQL(); !known {
			// reported as an invalid operator
			return true
		}
		return t.IsOrdered()
	case Range:
		return t.IsOrdered()
	case DatePeriod:
		return t.IsTemporal()
	case Nullability, InList:
		return true
	case Contains:
		return t.Kind == KindText
	default:
		return false
	}
}

func rangeBounds(t ValueType, fromVal, toVal interface{}) (*Param, *Param, error) {
	var from, to *Param
	if fromVal != nil {
		p, err := coerceLiteral(t, fromVal, lowerBound)
		if err != nil {
			return nil, nil, err
		}
		from = &p
	}
	if toVal != nil {
		p, err := coerceLiteral(t, toVal, upperBound)
		if err != nil {
			return nil, nil, err
		}
		to = &p
	}
	if from == nil && to == nil {
		return nil, nil, errEmptyRange
	}
	return from, to, nil
}

var errEmptyRange = errors.New("range needs at least one bound")

func boundedPredicate(col string, from, to *Param) (string, []Param, error) {
	switch {
	case from != nil && to != nil:
		return col + " BETWEEN ? AND ?", []Param{*from, *to}, nil
	case from != nil:
		return col + " >= ?", []Param{*from}, nil
	default:
		return col + " <= ?", []Param{*to}, nil
	}
}
