package block

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}

// StringParam returns params[key] as a string, or "" when missing.
func (p Params) StringParam(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("parameter %s: %w", key, err)
	}
	return s, nil
}

// BoolParam returns params[key] as a bool, or def when missing.
func (p Params) BoolParam(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("parameter %s: %w", key, err)
	}
	return b, nil
}

// MapParam returns params[key] as a nested mapping, or nil when missing.
func (p Params) MapParam(key string) (Params, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", key, err)
	}
	return m, nil
}
