package estimate

import (
	"encoding/json"
	"math"

	"github.com/spf13/cast"
)

// Number is a float64 that decodes leniently. Estimates are assembled from
// partially filled forms and old exports, so null, empty strings, numeric
// strings and outright garbage must all decode without failing the document.
type Number float64

// Float returns the value with NaN and infinities mapped to zero.
func (n Number) Float() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		*n = 0
		return nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		f = 0
	}
	*n = Number(f)
	return nil
}

// MarshalJSON implements json.Marshaler. Non-finite values encode as 0.
func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Float())
}
