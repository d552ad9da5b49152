package experience

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const notFoundLabel = "Not Found"

// Value is a number of years or the NotFound sentinel.
type Value struct {
	years float64
	found bool
}

// NotFound is the absent-value sentinel. It serialises as "Not Found".
var NotFound = Value{}

// Years wraps a numeric year count.
func Years(v float64) Value {
	return Value{years: v, found: true}
}

// Float returns the numeric value and whether it is present.
func (v Value) Float() (float64, bool) {
	return v.years, v.found
}

// IsFound reports whether the value carries a number.
func (v Value) IsFound() bool {
	return v.found
}

func (v Value) String() string {
	if !v.found {
		return notFoundLabel
	}
	return strconv.FormatFloat(v.years, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.found {
		return json.Marshal(notFoundLabel)
	}
	return json.Marshal(v.years)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = NotFound
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == notFoundLabel || s == "" {
			*v = NotFound
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid years value %q", s)
		}
		*v = Years(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Years(f)
	return nil
}
