// Package variable resolves "$pullconf::NAME" placeholders appearing in
// resource parameter positions against a host's declared variable map.
// Grounded on spec.md §4.2 and original_source/server/src/variables.rs.
package variable

import (
	"fmt"
	"strconv"
	"strings"
)

const prefix = "$pullconf::"

// Kind classifies why resolution failed, mirroring the original's two error
// variants so the compiler can report them distinctly.
type Kind int

const (
	UnknownVariable Kind = iota
	InvalidValue
)

// Error is returned by every Resolve* function on failure.
type Error struct {
	Kind  Kind
	Name  string
	Field string
	Msg   string
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnknownVariable:
		return fmt.Sprintf("%s: unknown variable %q", e.Field, e.Name)
	default:
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
}

// Name reports whether raw is a "$pullconf::NAME" reference, and if so the
// bare variable name.
func Name(raw string) (string, bool) {
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	return strings.TrimPrefix(raw, prefix), true
}

func lookup(vars map[string]any, field, name string) (any, error) {
	v, ok := vars[name]
	if !ok {
		return nil, &Error{Kind: UnknownVariable, Name: name, Field: field}
	}
	return v, nil
}

// ResolveString resolves a variable-or-value parameter expected to coerce to
// a string. A non-reference raw value is returned as-is.
func ResolveString(field, raw string, vars map[string]any) (string, error) {
	name, isRef := Name(raw)
	if !isRef {
		return raw, nil
	}
	v, err := lookup(vars, field, name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &Error{Kind: InvalidValue, Name: name, Field: field, Msg: fmt.Sprintf("variable %q is not a string", name)}
	}
	return s, nil
}

// ResolveBool resolves a variable-or-value parameter expected to coerce to a
// bool. raw may be a bool value or a variable reference; a string such as
// "true" is rejected.
func ResolveBool(field string, raw any, vars map[string]any) (bool, error) {
	if s, ok := raw.(string); ok {
		if name, isRef := Name(s); isRef {
			v, err := lookup(vars, field, name)
			if err != nil {
				return false, err
			}
			b, ok := v.(bool)
			if !ok {
				return false, &Error{Kind: InvalidValue, Name: name, Field: field, Msg: fmt.Sprintf("variable %q is not a boolean", name)}
			}
			return b, nil
		}
	}
	b, ok := raw.(bool)
	if !ok {
		return false, &Error{Kind: InvalidValue, Field: field, Msg: "value is not a boolean"}
	}
	return b, nil
}

// ResolveInt resolves a variable-or-value parameter expected to coerce to an
// int64.
func ResolveInt(field string, raw any, vars map[string]any) (int64, error) {
	if s, ok := raw.(string); ok {
		if name, isRef := Name(s); isRef {
			v, err := lookup(vars, field, name)
			if err != nil {
				return 0, err
			}
			return coerceInt(field, name, v)
		}
	}
	return coerceInt(field, "", raw)
}

func coerceInt(field, name string, v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, &Error{Kind: InvalidValue, Name: name, Field: field, Msg: fmt.Sprintf("value %q is not an integer", n)}
		}
		return parsed, nil
	default:
		return 0, &Error{Kind: InvalidValue, Name: name, Field: field, Msg: "value is not an integer"}
	}
}

// ResolveStringSlice resolves a variable-or-value array parameter, where the
// whole array or any individual element may be a variable reference.
// Elements are resolved independently per spec.md §4.2.
func ResolveStringSlice(field string, raw any, vars map[string]any) ([]string, error) {
	if s, ok := raw.(string); ok {
		if name, isRef := Name(s); isRef {
			v, err := lookup(vars, field, name)
			if err != nil {
				return nil, err
			}
			list, ok := v.([]any)
			if !ok {
				return nil, &Error{Kind: InvalidValue, Name: name, Field: field, Msg: fmt.Sprintf("variable %q is not an array", name)}
			}
			return resolveElements(field, list, vars)
		}
		return nil, &Error{Kind: InvalidValue, Field: field, Msg: "value is not an array"}
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, &Error{Kind: InvalidValue, Field: field, Msg: "value is not an array"}
	}
	return resolveElements(field, list, vars)
}

func resolveElements(field string, list []any, vars map[string]any) ([]string, error) {
	out := make([]string, len(list))
	for i, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, &Error{Kind: InvalidValue, Field: field, Msg: fmt.Sprintf("element %d is not a string", i)}
		}
		resolved, err := ResolveString(field, s, vars)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

// ResolveOptionalString resolves a variable-or-value parameter that may be
// absent (raw == nil).
func ResolveOptionalString(field string, raw any, vars map[string]any) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, &Error{Kind: InvalidValue, Field: field, Msg: "value is not a string"}
	}
	resolved, err := ResolveString(field, s, vars)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}
