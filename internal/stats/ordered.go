package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// member is one key/value pair of a JSON object, in document order.
type member struct {
	Key   string
	Value json.RawMessage
}

var errNotObject = errors.New("not a JSON object")

// decodeObject splits a JSON object into its members, preserving order.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}
	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		out = append(out, member{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// scalarText renders a JSON scalar the way it is shown in a CSV cell:
// numbers in shortest form, strings unquoted, null/bool literally.
func scalarText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	case '{', '[':
		return string(v)
	}
	if f, err := strconv.ParseFloat(string(v), 64); err == nil {
		return formatNumber(f)
	}
	return string(v)
}

// formatNumber renders f like a JavaScript number: plain decimals, with
// exponent form for magnitudes of at least 1e21 or below 1e-6.
func formatNumber(f float64) string {
	if abs := math.Abs(f); f != 0 && (abs >= 1e21 || abs < 1e-6) {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + exp[:1] + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// numericKey parses a time key; ok is false for non-numeric keys.
// NaN and the infinities other than "Infinity" are not numeric.
func numericKey(k string) (float64, bool) {
	f, err := strconv.ParseFloat(k, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	if math.IsInf(f, 0) && strings.TrimLeft(k, "+-") != "Infinity" {
		return 0, false
	}
	return f, true
}
