// Package merge provides the field-level policies used to fold streamed
// chunks into a snapshot.
//
// Every function returns the merged value together with a changed flag.
// When nothing changed the left operand is returned as-is, so callers can
// keep structural sharing and skip rebuilding parents.
package merge

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Replace returns next when it is present and differs from prev.
func Replace[T comparable](prev, next *T) (*T, bool) {
	if next == nil {
		return prev, false
	}
	if prev != nil && *prev == *next {
		return prev, false
	}
	return next, true
}

// ReplaceFunc is Replace with a caller-supplied equality.
func ReplaceFunc[T any](prev, next *T, equal func(a, b *T) bool) (*T, bool) {
	if next == nil {
		return prev, false
	}
	if prev != nil && equal(prev, next) {
		return prev, false
	}
	return next, true
}

// ReplaceDeep is Replace for values that are not comparable with ==.
func ReplaceDeep[T any](prev, next *T) (*T, bool) {
	return ReplaceFunc(prev, next, func(a, b *T) bool {
		return reflect.DeepEqual(a, b)
	})
}

// Raw replaces an opaque JSON value. A nil or zero-length next is absent.
// A literal JSON null is a present value.
func Raw(prev, next json.RawMessage) (json.RawMessage, bool) {
	if len(next) == 0 {
		return prev, false
	}
	if bytes.Equal(prev, next) {
		return prev, false
	}
	return next, true
}

// Append concatenates string fragments. An absent or empty fragment is a no-op.
func Append(prev, next *string) (*string, bool) {
	if next == nil || *next == "" {
		return prev, false
	}
	if prev == nil {
		return next, true
	}
	s := *prev + *next
	return &s, true
}

// Object merges a nested record with fn when both sides are present.
func Object[T any](prev, next *T, fn func(a, b *T) (*T, bool)) (*T, bool) {
	switch {
	case next == nil:
		return prev, false
	case prev == nil:
		return next, true
	default:
		return fn(prev, next)
	}
}
