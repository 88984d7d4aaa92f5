package twdata

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

func isPlaceholder(s string) bool {
	switch s {
	case "", "-", "--", "N/A", "—":
		return true
	}
	return false
}

// ParseFloat parses a locale formatted decimal ("1,234.5"). Placeholders
// ("", "-", "--", "N/A"), unparseable text and non-finite values ("NaN",
// "Inf") are reported as absent.
func ParseFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if isPlaceholder(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var signedInt = regexp.MustCompile(`^[+-]?\d+$`)
var whitespace = regexp.MustCompile(`\s+`)

// ParseInt parses a signed share count, "1,234,000" or "-5 000". Decimals
// are rejected.
func ParseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if isPlaceholder(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = whitespace.ReplaceAllString(s, "")
	if !signedInt.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseVolume parses an integer that may be written as a decimal,
// "1,200.0" -> 1200.
func ParseVolume(s string) (int64, bool) {
	v, ok := ParseFloat(s)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// FloatPtr is ParseFloat returning nil when the value is absent, so it can be
// encoded as JSON null.
func FloatPtr(s string) *float64 {
	v, ok := ParseFloat(s)
	if !ok {
		return nil
	}
	return &v
}

// IntPtr is ParseInt returning nil when the value is absent.
func IntPtr(s string) *int64 {
	v, ok := ParseInt(s)
	if !ok {
		return nil
	}
	return &v
}

// Cell is a single value of an exchange JSON table. Upstream rows mix strings
// and bare numbers, both decode to their textual form, null decodes to "".
type Cell string

func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cell(s)
		return nil
	}
	*c = Cell(data)
	return nil
}

func (c Cell) String() string {
	return strings.TrimSpace(string(c))
}
