package action

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// String returns the named field, or "" with ok=false if absent.
func (p Params) String(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// MustString returns the named mandatory field; the loader already
// validated presence, so a missing field here is a programming error.
func (p Params) MustString(name string) string {
	v, ok := p[name]
	if !ok {
		panic(fmt.Sprintf("action: mandatory parameter %q missing", name))
	}
	return v
}

// Float parses the named field as a float, 0/false if absent or malformed.
func (p Params) Float(name string) (float64, bool) {
	v, ok := p[name]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

// Duration parses a time-expr field: a plain float/int is seconds,
// otherwise the value is passed through as a Go duration string
// ("1.5s", "500ms") — the scenario DSL's "time-expr" values are one of
// these two shapes (spec §3 parameter kinds).
func (p Params) Duration(name string) (time.Duration, bool) {
	v, ok := p[name]
	if !ok {
		return 0, false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), true
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Bool parses the named field as a boolean ("true"/"1"/"yes").
func (p Params) Bool(name string) (bool, bool) {
	v, ok := p[name]
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

// Int parses the named field as an integer.
func (p Params) Int(name string) (int, bool) {
	v, ok := p[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}
