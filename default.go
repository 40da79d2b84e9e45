// Copyright (c) The ryft Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

type defaultKind uint8

const (
	defaultNone defaultKind = iota
	defaultStatic
	defaultComputed
)

// defaultPolicy answers lookup misses for Get. Exactly one of the
// three kinds is active; setting a static default clears a computed
// one and vice versa. There is no way back to defaultNone on a live
// Map, only construction observes it.
type defaultPolicy[K, V any] struct {
	kind  defaultKind
	value V
	fn    func(*Map[K, V], K) V
}

func (d *defaultPolicy[K, V]) miss(m *Map[K, V], k K) V {
	switch d.kind {
	case defaultStatic:
		return d.value
	case defaultComputed:
		// The callback may re-enter m, including storing a value for
		// k. Misses carry no traversal context, so no tombstone
		// machinery applies here.
		return d.fn(m, k)
	default:
		var zero V
		return zero
	}
}

// SetDefault makes v the answer for every lookup miss, clearing any
// default function.
func (m *Map[K, V]) SetDefault(v V) error {
	if m.frozen {
		return ErrFrozen
	}
	m.def = defaultPolicy[K, V]{kind: defaultStatic, value: v}
	return nil
}

// SetDefaultFunc makes fn the answer for every lookup miss, clearing
// any static default. fn must be non-nil.
func (m *Map[K, V]) SetDefaultFunc(fn func(*Map[K, V], K) V) error {
	if fn == nil {
		panic("SetDefaultFunc called with nil fn")
	}
	if m.frozen {
		return ErrFrozen
	}
	m.def = defaultPolicy[K, V]{kind: defaultComputed, fn: fn}
	return nil
}

// Default returns the static default value, if one is set. A Map with
// a default function reports false here; the function is only
// consulted with a key in hand, through Get or DefaultFor.
func (m *Map[K, V]) Default() (V, bool) {
	if m.def.kind == defaultStatic {
		return m.def.value, true
	}
	var zero V
	return zero, false
}

// DefaultFor returns what a lookup miss on k would yield, without
// touching the entries.
func (m *Map[K, V]) DefaultFor(k K) V {
	return m.def.miss(m, k)
}

// DefaultFunc returns the default function, or nil if the policy is
// not a computed one.
func (m *Map[K, V]) DefaultFunc() func(*Map[K, V], K) V {
	if m.def.kind == defaultComputed {
		return m.def.fn
	}
	return nil
}
