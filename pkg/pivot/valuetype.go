package pivot

import "fmt"

// ValueKind is the closed set of value types a report field can have
type ValueKind string

const (
	KindInteger  ValueKind = "integer"
	KindNumeric  ValueKind = "numeric"
	KindText     ValueKind = "text"
	KindDate     ValueKind = "date"
	KindDateTime ValueKind = "datetime"
	KindBoolean  ValueKind = "boolean"
	KindRef      ValueKind = "ref"
)

// ValueType is a field's declared type. RefTable is only set for KindRef.
type ValueType struct {
	Kind     ValueKind `json:"kind"`
	RefTable string    `json:"ref_table,omitempty"`
}

var (
	IntegerType  = ValueType{Kind: KindInteger}
	NumericType  = ValueType{Kind: KindNumeric}
	TextType     = ValueType{Kind: KindText}
	DateType     = ValueType{Kind: KindDate}
	DateTimeType = ValueType{Kind: KindDateTime}
	BooleanType  = ValueType{Kind: KindBoolean}
)

// RefType returns the type of a foreign key into table
func RefType(table string) ValueType {
	return ValueType{Kind: KindRef, RefTable: table}
}

// Equal reports whether two value types are identical
func (t ValueType) Equal(other ValueType) bool {
	return t.Kind == other.Kind && t.RefTable == other.RefTable
}

func (t ValueType) String() string {
	if t.Kind == KindRef {
		return fmt.Sprintf("ref(%s)", t.RefTable)
	}
	return string(t.Kind)
}

// Valid reports whether the kind is one of the known kinds
func (t ValueType) Valid() bool {
	switch t.Kind {
	case KindInteger, KindNumeric, KindText, KindDate, KindDateTime, KindBoolean:
		return t.RefTable == ""
	case KindRef:
		return t.RefTable != ""
	default:
		return false
	}
}

// IsNumber reports whether values of this type can be summed and averaged
func (t ValueType) IsNumber() bool {
	switch t.Kind {
	case KindInteger, KindNumeric:
		return true
	case KindText, KindDate, KindDateTime, KindBoolean, KindRef:
		return false
	default:
		return false
	}
}

// IsOrdered reports whether values of this type support <, <=, >, >= and ranges
func (t ValueType) IsOrdered() bool {
	switch t.Kind {
	case KindInteger, KindNumeric, KindDate, KindDateTime:
		return true
	case KindText, KindBoolean, KindRef:
		return false
	default:
		return false
	}
}

// IsTemporal reports whether the type holds a calendar date
func (t ValueType) IsTemporal() bool {
	switch t.Kind {
	case KindDate, KindDateTime:
		return true
	case KindInteger, KindNumeric, KindText, KindBoolean, KindRef:
		return false
	default:
		return false
	}
}
