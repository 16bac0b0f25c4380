package pivot

import "strconv"

// ParamType is the declared type of a bind parameter
type ParamType string

const (
	ParamText    ParamType = "text"
	ParamInteger ParamType = "integer"
	ParamNumeric ParamType = "numeric"
)

// Param is one typed positional bind parameter
type Param struct {
	Type ParamType
	Text string
	Int  int64
	Num  float64
}

func TextParam(s string) Param { return Param{Type: ParamText, Text: s} }
func IntParam(i int64) Param   { return Param{Type: ParamInteger, Int: i} }
func NumParam(f float64) Param { return Param{Type: ParamNumeric, Num: f} }

// Value returns the driver value of the parameter
func (p Param) Value() interface{} {
	switch p.Type {
	case ParamInteger:
		return p.Int
	case ParamNumeric:
		return p.Num
	default:
		return p.Text
	}
}

// String renders the parameter for display
func (p Param) String() string {
	switch p.Type {
	case ParamInteger:
		return strconv.FormatInt(p.Int, 10)
	case ParamNumeric:
		return strconv.FormatFloat(p.Num, 'f', -1, 64)
	default:
		return p.Text
	}
}
