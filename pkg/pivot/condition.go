package pivot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ConditionKind is the wire tag of a condition definition
type ConditionKind string

const (
	ConditionComparison  ConditionKind = "comparison"
	ConditionRange       ConditionKind = "range"
	ConditionDatePeriod  ConditionKind = "date_period"
	ConditionNullability ConditionKind = "nullability"
	ConditionContains    ConditionKind = "contains"
	ConditionInList      ConditionKind = "in_list"
)

// CompareOp is the operator of a Comparison condition
type CompareOp string

const (
	OpEq  CompareOp = "eq"
	OpNe  CompareOp = "ne"
	OpGt  CompareOp = "gt"
	OpGte CompareOp = "gte"
	OpLt  CompareOp = "lt"
	OpLte CompareOp = "lte"
)

// SQL returns the operator's SQL token
func (op CompareOp) SQL() (string, bool) {
	switch op {
	case OpEq:
		return "=", true
	case OpNe:
		return "<>", true
	case OpGt:
		return ">", true
	case OpGte:
		return ">=", true
	case OpLt:
		return "<", true
	case OpLte:
		return "<=", true
	default:
		return "", false
	}
}

// ConditionDef is the closed set of filter definitions.
// Literal values are kept as decoded JSON (string, json.Number, bool) and coerced against
// the target field's type when the query is built.
type ConditionDef interface {
	Kind() ConditionKind
	isCondition()
}

// Comparison compares the field against one literal
type Comparison struct {
	Operator CompareOp   `json:"operator"`
	Value    interface{} `json:"value"`
}

// Range bounds the field on either or both sides, inclusively
type Range struct {
	From interface{} `json:"from,omitempty"`
	To   interface{} `json:"to,omitempty"`
}

// DatePeriod bounds a date field by a preset or explicit dates.
// The preset is only used when both From and To are empty.
type DatePeriod struct {
	Preset DatePreset `json:"preset,omitempty"`
	From   string     `json:"from,omitempty"`
	To     string     `json:"to,omitempty"`
}

// Nullability tests the field for NULL
type Nullability struct {
	IsNull bool `json:"is_null"`
}

// Contains is a case-insensitive substring match
type Contains struct {
	Pattern string `json:"pattern"`
}

// InList matches any of the listed values
type InList struct {
	Values []interface{} `json:"values"`
}

func (Comparison) Kind() ConditionKind  { return ConditionComparison }
func (Range) Kind() ConditionKind       { return ConditionRange }
func (DatePeriod) Kind() ConditionKind  { return ConditionDatePeriod }
func (Nullability) Kind() ConditionKind { return ConditionNullability }
func (Contains) Kind() ConditionKind    { return ConditionContains }
func (InList) Kind() ConditionKind      { return ConditionInList }

func (Comparison) isCondition()  {}
func (Range) isCondition()       {}
func (DatePeriod) isCondition()  {}
func (Nullability) isCondition() {}
func (Contains) isCondition()    {}
func (InList) isCondition()      {}

// FilterCondition is one user filter. Conditions combine with AND.
type FilterCondition struct {
	FieldID    string       `json:"field_id"`
	ValueType  ValueType    `json:"value_type"`
	Definition ConditionDef `json:"definition"`
}

type filterConditionWire struct {
	FieldID    string          `json:"field_id"`
	ValueType  ValueType       `json:"value_type"`
	Definition json.RawMessage `json:"definition"`
}

// MarshalJSON writes the definition with its "type" tag
func (c FilterCondition) MarshalJSON() ([]byte, error) {
	var def json.RawMessage
	if c.Definition != nil {
		body, err := json.Marshal(c.Definition)
		if err != nil {
			return nil, err
		}
		tagged, err := withTypeTag(body, c.Definition.Kind())
		if err != nil {
			return nil, err
		}
		def = tagged
	} else {
		def = json.RawMessage("null")
	}
	return json.Marshal(filterConditionWire{
		FieldID:    c.FieldID,
		ValueType:  c.ValueType,
		Definition: def,
	})
}

// UnmarshalJSON dispatches on the definition's "type" tag.
// Numbers are kept as json.Number so integer literals survive unchanged.
func (c *FilterCondition) UnmarshalJSON(data []byte) error {
	var wire filterConditionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.FieldID = wire.FieldID
	c.ValueType = wire.ValueType
	c.Definition = nil

	if len(wire.Definition) == 0 || string(wire.Definition) == "null" {
		return fmt.Errorf("filter on %q: definition is required", wire.FieldID)
	}

	var tag struct {
		Type ConditionKind `json:"type"`
	}
	if err := json.Unmarshal(wire.Definition, &tag); err != nil {
		return fmt.Errorf("filter on %q: %w", wire.FieldID, err)
	}

	var def ConditionDef
	var err error
	switch tag.Type {
	case ConditionComparison:
		var d Comparison
		err = decodeDefinition(wire.Definition, &d)
		def = d
	case ConditionRange:
		var d Range
		err = decodeDefinition(wire.Definition, &d)
		def = d
	case ConditionDatePeriod:
		var d DatePeriod
		err = decodeDefinition(wire.Definition, &d)
		def = d
	case ConditionNullability:
		var d Nullability
		err = decodeDefinition(wire.Definition, &d)
		def = d
	case ConditionContains:
		var d Contains
		err = decodeDefinition(wire.Definition, &d)
		def = d
	case ConditionInList:
		var d InList
		err = decodeDefinition(wire.Definition, &d)
		def = d
	default:
		return fmt.Errorf("filter on %q: unknown condition type %q", wire.FieldID, tag.Type)
	}
	if err != nil {
		return fmt.Errorf("filter on %q: %w", wire.FieldID, err)
	}
	c.Definition = def
	return nil
}

func decodeDefinition(data []byte, target interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(target)
}

func withTypeTag(body []byte, kind ConditionKind) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}
