package bioregion

import (
	"encoding/json"
	"strconv"

	"github.com/jcristia/CGA/pkg/apperr"
)

// Fraction is a ratio of two areas that may be undefined when its
// denominator is zero. It never holds NaN or Inf.
type Fraction struct {
	value   float64
	defined bool
	what    string
}

// Ratio divides num by den. what names the ratio in the error returned by
// Float when den is zero.
func Ratio(num, den float64, what string) Fraction {
	if den == 0 {
		return Fraction{what: what}
	}
	return Fraction{value: num / den, defined: true, what: what}
}

// Defined reports whether the denominator was non-zero.
func (f Fraction) Defined() bool { return f.defined }

// Float returns the ratio, or a data integrity error when undefined.
func (f Fraction) Float() (float64, error) {
	if !f.defined {
		return 0, apperr.Integrityf(f.what, "zero denominator")
	}
	return f.value, nil
}

// Value returns the ratio, or 0 when undefined. Use only after checking
// Defined.
func (f Fraction) Value() float64 { return f.value }

// Scale multiplies a defined fraction by k.
func (f Fraction) Scale(k float64) Fraction {
	if f.defined {
		f.value *= k
	}
	return f
}

// String renders the ratio for tables; undefined ratios render as
// "undefined".
func (f Fraction) String() string {
	if !f.defined {
		return "undefined"
	}
	return strconv.FormatFloat(f.value, 'f', -1, 64)
}

// MarshalJSON encodes undefined ratios as null.
func (f Fraction) MarshalJSON() ([]byte, error) {
	if !f.defined {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
