package jobs

import (
	"encoding/json"
	"strconv"
)

// flexString accepts a JSON string, number or bool. Anything else decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*f = flexString(strconv.FormatBool(v))
		return nil
	}
	*f = ""
	return nil
}

func (f flexString) String() string { return string(f) }
