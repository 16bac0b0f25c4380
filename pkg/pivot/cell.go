package pivot

import (
	"encoding/json"
	"strconv"
)

// CellKind tags a CellValue
type CellKind uint8

const (
	CellNull CellKind = iota
	CellText
	CellInteger
	CellNumber
)

// CellValue is one normalized result value
type CellValue struct {
	Kind CellKind
	Text string
	Int  int64
	Num  float64
}

func NullCell() CellValue            { return CellValue{Kind: CellNull} }
func TextCell(s string) CellValue    { return CellValue{Kind: CellText, Text: s} }
func IntCell(i int64) CellValue      { return CellValue{Kind: CellInteger, Int: i} }
func NumberCell(f float64) CellValue { return CellValue{Kind: CellNumber, Num: f} }

// IsNull reports whether the cell holds no value
func (c CellValue) IsNull() bool {
	return c.Kind == CellNull
}

// Float returns the numeric value of Integer and Number cells
func (c CellValue) Float() (float64, bool) {
	switch c.Kind {
	case CellInteger:
		return float64(c.Int), true
	case CellNumber:
		return c.Num, true
	default:
		return 0, false
	}
}

// String renders the cell as a label. Null renders empty.
func (c CellValue) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellInteger:
		return strconv.FormatInt(c.Int, 10)
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// key distinguishes cells of different kinds with equal renderings
func (c CellValue) key() string {
	return string(rune('0'+c.Kind)) + c.String()
}

func (c CellValue) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellInteger:
		return json.Marshal(c.Int)
	case CellNumber:
		return json.Marshal(c.Num)
	default:
		return []byte("null"), nil
	}
}

// RawRow is one normalized result row keyed by field id
type RawRow map[string]CellValue

// Get returns the cell for id, Null when absent
func (r RawRow) Get(id string) CellValue {
	if c, ok := r[id]; ok {
		return c
	}
	return NullCell()
}
