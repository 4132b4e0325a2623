// Package normalization maps loosely typed configuration strings onto
// typed enum values.
package normalization

import (
	"fmt"
	"slices"
	"strings"
)

// Normalizer converts case- and whitespace-insensitive strings to enum values.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string
}

// NewNormalizer creates a normalizer from string->value pairs.
// Keys are folded with strings.ToLower and TrimSpace.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	n := &Normalizer[T]{
		values:       make(map[string]T, len(values)),
		defaultValue: defaultValue,
	}
	for k, v := range values {
		key := fold(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	slices.Sort(n.keys)
	return n
}

// Normalize returns the matching value or the default.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[fold(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// NormalizeWithError returns an error listing the valid keys when raw is unknown.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.values[fold(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// NormalizeField normalizes the value of a named field and returns a
// human-readable warning when the stored spelling differed from the
// canonical one. Empty input yields the default without a warning.
func (n *Normalizer[T]) NormalizeField(field, raw string) (T, string) {
	if strings.TrimSpace(raw) == "" {
		return n.defaultValue, ""
	}
	v, err := n.NormalizeWithError(raw)
	if err != nil {
		return n.defaultValue, fmt.Sprintf("%s: %v, using default", field, err)
	}
	if fold(raw) != raw {
		return v, fmt.Sprintf("normalized %s from %q to %q", field, raw, fold(raw))
	}
	return v, ""
}

// ValidKeys returns the sorted canonical keys.
func (n *Normalizer[T]) ValidKeys() []string {
	return slices.Clone(n.keys)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
