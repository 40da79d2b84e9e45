// Copyright (c) The ryft Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dict provides Map, the ordered associative collection
// backing ryft's built-in key/value type.
//
// A Map enumerates its entries in insertion order, compares keys
// through a pluggable Comparator (structural equality by default,
// reference identity after CompareByIdentity), and can answer lookup
// misses through a default-value policy. Entries may be deleted from
// within a traversal of the same Map: the traversal machinery defers
// the physical removal so that neither the cursor nor any nested
// traversal skips or repeats an entry.
//
// A Map is not safe for concurrent use from multiple goroutines;
// callers own the serialization. What it does guarantee is reentrancy:
// callbacks running under a traversal may read, write and re-traverse
// the same Map.
//
// The zero Map is not usable; construct one with New or its variants.
package dict

import "fmt"

// Pair is one key/value entry.
type Pair[K, V any] struct {
	Key K
	Val V
}

// Map is an insertion-ordered hash map.
type Map[K, V any] struct {
	tbl store[K, V]
	def defaultPolicy[K, V]

	// depth counts traversals of this Map currently on the stack.
	// While it is nonzero, deletions are deferred as tombstones.
	depth    int
	frozen   bool
	identity bool
}

// New instantiates a Map that compares keys with cmp, seeded with any
// pairs passed, in order.
func New[K, V any](cmp Comparator[K], pairs ...Pair[K, V]) *Map[K, V] {
	m := NewHint[K, V](len(pairs), cmp)
	for _, p := range pairs {
		m.tbl.insert(p.Key, p.Val)
	}
	return m
}

// NewHint instantiates an empty Map with room for hint entries.
func NewHint[K, V any](hint int, cmp Comparator[K]) *Map[K, V] {
	m := &Map[K, V]{}
	m.tbl.init(hint, cmp)
	return m
}

// NewWithDefault instantiates a Map whose lookup misses yield def.
func NewWithDefault[K, V any](cmp Comparator[K], def V) *Map[K, V] {
	m := NewHint[K, V](0, cmp)
	m.def = defaultPolicy[K, V]{kind: defaultStatic, value: def}
	return m
}

// NewWithDefaultFunc instantiates a Map whose lookup misses are
// answered by fn, called with the Map and the missing key. fn may
// mutate the Map, including storing a value for the key.
func NewWithDefaultFunc[K, V any](cmp Comparator[K], fn func(*Map[K, V], K) V) *Map[K, V] {
	m := NewHint[K, V](0, cmp)
	m.def = defaultPolicy[K, V]{kind: defaultComputed, fn: fn}
	return m
}

// FromPairs instantiates a Map from a pair slice, in order.
func FromPairs[K, V any](cmp Comparator[K], pairs []Pair[K, V]) *Map[K, V] {
	return New(cmp, pairs...)
}

// Len returns the number of live entries in m.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return m.tbl.nlive
}

// Empty reports whether m has no entries.
func (m *Map[K, V]) Empty() bool {
	return m.Len() == 0
}

// Lookup returns the value stored for k and whether k is present. It
// never consults the default policy; absence is reported by the
// second return, which is how a stored zero value and a miss stay
// distinguishable.
func (m *Map[K, V]) Lookup(k K) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	if idx, ok := m.tbl.lookup(k); ok {
		return m.tbl.entries[idx].val, true
	}
	var zero V
	return zero, false
}

// Get returns the value stored for k. On a miss it consults the
// default policy: a static default is returned as is, a default
// function is invoked with (m, k), and with no policy the zero value
// is returned.
func (m *Map[K, V]) Get(k K) V {
	if v, ok := m.Lookup(k); ok {
		return v
	}
	return m.def.miss(m, k)
}

// HasKey reports whether k is present.
func (m *Map[K, V]) HasKey(k K) bool {
	_, ok := m.Lookup(k)
	return ok
}

// Fetch returns the value stored for k, or ErrKeyNotFound. The
// default policy is deliberately not consulted; Fetch is the strict
// counterpart of Get.
func (m *Map[K, V]) Fetch(k K) (V, error) {
	if v, ok := m.Lookup(k); ok {
		return v, nil
	}
	var zero V
	return zero, fmt.Errorf("%w: %v", ErrKeyNotFound, k)
}

// FetchOr returns the value stored for k, or fallback on a miss,
// bypassing the default policy.
func (m *Map[K, V]) FetchOr(k K, fallback V) V {
	if v, ok := m.Lookup(k); ok {
		return v
	}
	return fallback
}

// FetchFunc returns the value stored for k, or onmiss(k) on a miss,
// bypassing the default policy.
func (m *Map[K, V]) FetchFunc(k K, onmiss func(K) V) V {
	if v, ok := m.Lookup(k); ok {
		return v
	}
	return onmiss(k)
}

// Set stores v under k. A new key is appended to the enumeration
// order; an existing key keeps its position and its original key
// object. Fails with ErrFrozen on a frozen Map.
func (m *Map[K, V]) Set(k K, v V) error {
	if m.frozen {
		return ErrFrozen
	}
	m.tbl.insert(k, v)
	return nil
}

// Delete removes k, returning the removed value and whether k was
// present. While a traversal of m is in progress the entry is only
// tombstoned: every observer sees it gone immediately, but the
// physical removal waits until the outermost traversal ends.
func (m *Map[K, V]) Delete(k K) (V, bool, error) {
	if m.frozen {
		var zero V
		return zero, false, ErrFrozen
	}
	v, ok := m.tbl.remove(k)
	if m.depth == 0 {
		m.tbl.maybeCompact()
	}
	return v, ok, nil
}

// DeleteOr removes k like Delete, but answers a miss with onmiss(k).
func (m *Map[K, V]) DeleteOr(k K, onmiss func(K) V) (V, error) {
	v, ok, err := m.Delete(k)
	if err != nil {
		return v, err
	}
	if !ok {
		return onmiss(k), nil
	}
	return v, nil
}

// Clear removes all entries.
func (m *Map[K, V]) Clear() error {
	if m.frozen {
		return ErrFrozen
	}
	m.tbl.clear()
	return nil
}

// Shift removes and returns the oldest live entry.
func (m *Map[K, V]) Shift() (Pair[K, V], bool, error) {
	if m.frozen {
		return Pair[K, V]{}, false, ErrFrozen
	}
	for i := range m.tbl.entries {
		e := &m.tbl.entries[i]
		if !e.live {
			continue
		}
		p := Pair[K, V]{Key: e.key, Val: e.val}
		m.tbl.removeAt(i)
		if m.depth == 0 {
			m.tbl.maybeCompact()
		}
		return p, true, nil
	}
	return Pair[K, V]{}, false, nil
}

// Freeze makes m permanently immutable: every later mutating
// operation fails with ErrFrozen.
func (m *Map[K, V]) Freeze() {
	m.frozen = true
}

// Frozen reports whether m is frozen.
func (m *Map[K, V]) Frozen() bool {
	return m.frozen
}

// Dup returns a shallow copy of m: same comparator, same default
// policy, entries in the same order. The copy is not frozen even if m
// is, and its tombstones are compacted away.
func (m *Map[K, V]) Dup() *Map[K, V] {
	d := NewHint[K, V](m.Len(), m.tbl.cmp)
	d.identity = m.identity
	d.def = m.def
	for i := range m.tbl.entries {
		if e := &m.tbl.entries[i]; e.live {
			d.tbl.insert(e.key, e.val)
		}
	}
	return d
}

// Replace makes m an in-place copy of other: entries, enumeration
// order, comparator and default policy. A traversal of m that is in
// progress fails with ErrIterationInvalidated at its next step.
func (m *Map[K, V]) Replace(other *Map[K, V]) error {
	if m.frozen {
		return ErrFrozen
	}
	if other == m {
		return nil
	}
	m.tbl.clear()
	m.tbl.cmp = other.tbl.cmp
	m.identity = other.identity
	m.def = other.def
	return other.foreach(func(k K, v V) (Step, error) {
		m.tbl.insert(k, v)
		return Continue, nil
	})
}

// MergeInto folds other's entries into m, in other's order. Keys
// already present keep their position and take the incoming value,
// unless resolver is non-nil, in which case they take
// resolver(key, existing, incoming). New keys are appended.
func (m *Map[K, V]) MergeInto(other *Map[K, V], resolver func(k K, existing, incoming V) V) error {
	if m.frozen {
		return ErrFrozen
	}
	return other.foreach(func(k K, v V) (Step, error) {
		if resolver != nil {
			if old, ok := m.Lookup(k); ok {
				v = resolver(k, old, v)
			}
		}
		m.tbl.insert(k, v)
		return Continue, nil
	})
}

// Merge is the non-destructive MergeInto: it returns a new Map and
// leaves m untouched.
func (m *Map[K, V]) Merge(other *Map[K, V], resolver func(k K, existing, incoming V) V) (*Map[K, V], error) {
	d := m.Dup()
	if err := d.MergeInto(other, resolver); err != nil {
		return nil, err
	}
	return d, nil
}

// Select returns a new Map holding the entries pred accepts, in m's
// order. The new Map inherits m's comparator but not its default
// policy.
func (m *Map[K, V]) Select(pred func(K, V) bool) (*Map[K, V], error) {
	out := NewHint[K, V](0, m.tbl.cmp)
	out.identity = m.identity
	err := m.foreach(func(k K, v V) (Step, error) {
		if pred(k, v) {
			out.tbl.insert(k, v)
		}
		return Continue, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject is Select with the predicate inverted.
func (m *Map[K, V]) Reject(pred func(K, V) bool) (*Map[K, V], error) {
	return m.Select(func(k K, v V) bool { return !pred(k, v) })
}

// DeleteIf removes every entry pred accepts. Each live entry is
// visited exactly once even though removal is interleaved with the
// traversal.
func (m *Map[K, V]) DeleteIf(pred func(K, V) bool) error {
	if m.frozen {
		return ErrFrozen
	}
	return m.foreach(func(k K, v V) (Step, error) {
		if pred(k, v) {
			return DeleteEntry, nil
		}
		return Continue, nil
	})
}

// RejectIf is DeleteIf reporting whether anything was removed.
func (m *Map[K, V]) RejectIf(pred func(K, V) bool) (bool, error) {
	if m.frozen {
		return false, ErrFrozen
	}
	changed := false
	err := m.foreach(func(k K, v V) (Step, error) {
		if pred(k, v) {
			changed = true
			return DeleteEntry, nil
		}
		return Continue, nil
	})
	return changed, err
}

// Find returns the first entry pred accepts, in enumeration order.
func (m *Map[K, V]) Find(pred func(K, V) bool) (Pair[K, V], bool, error) {
	var (
		p     Pair[K, V]
		found bool
	)
	err := m.foreach(func(k K, v V) (Step, error) {
		if pred(k, v) {
			p, found = Pair[K, V]{Key: k, Val: v}, true
			return Stop, nil
		}
		return Continue, nil
	})
	return p, found, err
}

// Assoc returns the entry stored for k as a Pair. The returned key is
// the stored key object, which under an identity comparator need not
// be the argument.
func (m *Map[K, V]) Assoc(k K) (Pair[K, V], bool) {
	if m == nil {
		return Pair[K, V]{}, false
	}
	if idx, ok := m.tbl.lookup(k); ok {
		e := &m.tbl.entries[idx]
		return Pair[K, V]{Key: e.key, Val: e.val}, true
	}
	return Pair[K, V]{}, false
}

// KeySlice returns the live keys in enumeration order.
func (m *Map[K, V]) KeySlice() []K {
	out := make([]K, 0, m.Len())
	_ = m.foreach(func(k K, _ V) (Step, error) {
		out = append(out, k)
		return Continue, nil
	})
	return out
}

// ValueSlice returns the live values in enumeration order.
func (m *Map[K, V]) ValueSlice() []V {
	out := make([]V, 0, m.Len())
	_ = m.foreach(func(_ K, v V) (Step, error) {
		out = append(out, v)
		return Continue, nil
	})
	return out
}

// Pairs returns the live entries in enumeration order.
func (m *Map[K, V]) Pairs() []Pair[K, V] {
	out := make([]Pair[K, V], 0, m.Len())
	_ = m.foreach(func(k K, v V) (Step, error) {
		out = append(out, Pair[K, V]{Key: k, Val: v})
		return Continue, nil
	})
	return out
}

// ValuesAt returns the values for keys, in argument order, answering
// misses through the default policy like Get.
func (m *Map[K, V]) ValuesAt(keys ...K) []V {
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = m.Get(k)
	}
	return out
}

// Flatten returns the entries as alternating key, value, key, value,
// in enumeration order.
func (m *Map[K, V]) Flatten() []any {
	out := make([]any, 0, 2*m.Len())
	_ = m.foreach(func(k K, v V) (Step, error) {
		out = append(out, k, v)
		return Continue, nil
	})
	return out
}

// CompareByIdentity switches m, permanently, to comparing keys by
// reference identity, rebuilding the table under the new comparator.
// It is a no-op on a Map already in identity mode and fails with
// ErrIterationInvalidated while a traversal is in progress, the same
// way an explicit Rehash would.
func (m *Map[K, V]) CompareByIdentity() error {
	if m.frozen {
		return ErrFrozen
	}
	if m.identity {
		return nil
	}
	if m.depth > 0 {
		return ErrIterationInvalidated
	}
	m.identity = true
	m.tbl.rebuild(IdentityComparator[K]())
	return nil
}

// ComparesByIdentity reports whether m compares keys by identity.
func (m *Map[K, V]) ComparesByIdentity() bool {
	return m.identity
}

// Rehash re-buckets every key under the current comparator, for use
// after key objects were mutated in ways that change their hash.
// Entries whose keys now collide collapse, earliest position winning,
// latest value winning.
func (m *Map[K, V]) Rehash() error {
	if m.frozen {
		return ErrFrozen
	}
	if m.depth > 0 {
		return ErrIterationInvalidated
	}
	m.tbl.rebuild(m.tbl.cmp)
	return nil
}
