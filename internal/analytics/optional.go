package analytics

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Optional is a numeric statistic that may have no data behind it.
type Optional struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// None is the "no data" value.
var None = Optional{}

// Get returns the value and whether it is present.
func (o Optional) Get() (float64, bool) {
	return o.Value, o.Valid
}

// Format renders the value with the given precision, or "No data".
func (o Optional) Format(prec int) string {
	if !o.Valid {
		return "No data"
	}
	return strconv.FormatFloat(o.Value, 'f', prec, 64)
}

func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
