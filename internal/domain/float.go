package domain

import (
	"math"
	"strconv"
)

// Float is a float64 that encodes NaN and infinities as JSON null.
type Float float64

// IsNaN reports whether f is NaN.
func (f Float) IsNaN() bool { return math.IsNaN(float64(f)) }

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// Floats is a float64 slice whose missing values encode as JSON null.
type Floats []float64

func (fs Floats) MarshalJSON() ([]byte, error) {
	if fs == nil {
		return []byte("[]"), nil
	}
	buf := make([]byte, 0, 2+len(fs)*8)
	buf = append(buf, '[')
	for i, v := range fs {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}
