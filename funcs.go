// Copyright (c) The ryft Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import (
	"fmt"
	"strings"
)

// Equal returns true if the same set of keys and values are in m1 and
// m2, regardless of order. Values are compared using ==.
func Equal[K any, V comparable](m1, m2 *Map[K, V]) bool {
	return EqualFunc(m1, m2, func(a, b V) bool { return a == b })
}

// EqualFunc returns true if the same set of keys and values are in m1
// and m2, regardless of order. Values are compared using eq.
func EqualFunc[K, V any](m1, m2 *Map[K, V], eq func(V, V) bool) bool {
	if m1.Len() != m2.Len() {
		return false
	}
	for k, v1 := range m1.All() {
		v2, ok := m2.Lookup(k)
		if !ok || !eq(v1, v2) {
			return false
		}
	}
	return true
}

// String converts m to a string representation using K's and V's
// String functions, in enumeration order.
func String[K fmt.Stringer, V fmt.Stringer](m *Map[K, V]) string {
	return StringFunc(m,
		func(key K) string { return key.String() },
		func(val V) string { return val.String() },
	)
}

// StringFunc converts m to a string representation with the help of
// strK and strV functions to stringify m's keys and values.
func StringFunc[K, V any](m *Map[K, V],
	strK func(key K) string,
	strV func(val V) string) string {
	if m == nil || m.Len() == 0 {
		return "dict.Map[]"
	}
	var b strings.Builder
	b.WriteString("dict.Map[")
	first := true
	for k, v := range m.All() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(strK(k))
		b.WriteByte(':')
		b.WriteString(strV(v))
	}
	b.WriteByte(']')
	return b.String()
}

// Invert returns a new Map mapping m's values to its keys, built
// under value equality. Values appearing more than once collapse, the
// later entry in enumeration order winning.
func Invert[K, V comparable](m *Map[K, V]) *Map[V, K] {
	out := NewHint[V, K](m.Len(), ValueComparator[V]())
	for k, v := range m.All() {
		out.tbl.insert(v, k)
	}
	return out
}

// HasValue reports whether any entry of m holds v. Values are not
// indexed, so this is a full scan.
func HasValue[K any, V comparable](m *Map[K, V], v V) bool {
	_, ok := KeyOf(m, v)
	return ok
}

// KeyOf returns the key of the first entry, in enumeration order,
// whose value is v.
func KeyOf[K any, V comparable](m *Map[K, V], v V) (K, bool) {
	var (
		key   K
		found bool
	)
	_ = m.foreach(func(k K, val V) (Step, error) {
		if val == v {
			key, found = k, true
			return Stop, nil
		}
		return Continue, nil
	})
	return key, found
}

// Rassoc returns the first entry, in enumeration order, whose value
// is v.
func Rassoc[K any, V comparable](m *Map[K, V], v V) (Pair[K, V], bool) {
	var (
		p     Pair[K, V]
		found bool
	)
	_ = m.foreach(func(k K, val V) (Step, error) {
		if val == v {
			p, found = Pair[K, V]{Key: k, Val: val}, true
			return Stop, nil
		}
		return Continue, nil
	})
	return p, found
}
