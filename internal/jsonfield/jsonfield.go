// Package jsonfield reads loosely typed values out of gjson results.
//
// Census and the local config documents are inconsistent about whether
// numbers are sent as JSON numbers or as strings. The strict helpers only
// accept the matching JSON type, the Loose helpers accept either.
package jsonfield

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Str returns the value if it is a JSON string
func Str(r gjson.Result) (string, bool) {
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// TrimmedStr returns the trimmed value if it is a non-empty JSON string
func TrimmedStr(r gjson.Result) (string, bool) {
	s, ok := Str(r)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// StringList accepts either a single string or an array of strings.
// Entries are trimmed and empty entries are dropped.
func StringList(r gjson.Result) []string {
	out := []string{}
	switch {
	case r.Type == gjson.String:
		if s := strings.TrimSpace(r.Str); s != "" {
			out = append(out, s)
		}
	case r.IsArray():
		for _, item := range r.Array() {
			if s, ok := TrimmedStr(item); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func Bool(r gjson.Result) (bool, bool) {
	switch r.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	default:
		return false, false
	}
}

func Float(r gjson.Result) (float64, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	return r.Num, true
}

// Uint returns the value if it is a non-negative integral JSON number
func Uint(r gjson.Result) (uint64, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	v, err := strconv.ParseUint(r.Raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IntLoose accepts an integral JSON number or a string holding one
func IntLoose(r gjson.Result) (int64, bool) {
	switch r.Type {
	case gjson.Number:
		v, err := strconv.ParseInt(r.Raw, 10, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	case gjson.String:
		v, err := strconv.ParseInt(strings.TrimSpace(r.Str), 10, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Uint32Loose accepts a JSON number or a string holding a value in the uint32 range
func Uint32Loose(r gjson.Result) (uint32, bool) {
	var raw string
	switch r.Type {
	case gjson.Number:
		raw = r.Raw
	case gjson.String:
		raw = r.Str
	default:
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// FloatLoose accepts a JSON number or a string holding a float
func FloatLoose(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.String:
		v, err := strconv.ParseFloat(r.Str, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// TextLoose returns strings as-is and numbers as their literal text
func TextLoose(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.String:
		return r.Str, true
	case gjson.Number:
		return r.Raw, true
	default:
		return "", false
	}
}
