// Copyright (c) The ryft Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import "iter"

// Step is a traversal callback's verdict on the entry it was handed.
type Step int

const (
	// Continue moves on to the next entry.
	Continue Step = iota
	// Stop ends the traversal early.
	Stop
	// DeleteEntry removes the entry just visited, then continues. The
	// removal is deferred through the tombstone path, so the cursor
	// stays valid.
	DeleteEntry
)

// foreach is the one traversal primitive; every enumerating operation
// routes through it. It visits the live entries in insertion order
// and tolerates the callback mutating m: deletions are tombstoned and
// compacted when the outermost traversal ends, insertions that fit
// without growing the index are visited by the running traversal, and
// anything structural -- growth, Clear, Replace, Rehash -- fails the
// traversal with ErrIterationInvalidated at its next step instead of
// walking invalidated state. Traversals nest freely.
func (m *Map[K, V]) foreach(fn func(K, V) (Step, error)) error {
	if m == nil || m.tbl.nlive == 0 {
		return nil
	}
	m.depth++
	defer func() {
		// Runs on every exit path: success, early stop and error
		// alike. Tombstones are compacted exactly when the outermost
		// traversal unwinds.
		m.depth--
		if m.depth == 0 && m.tbl.ndead > 0 {
			m.tbl.compact()
		}
	}()

	gen := m.tbl.gen
	for i := 0; i < len(m.tbl.entries); i++ {
		e := &m.tbl.entries[i]
		if !e.live {
			continue
		}
		step, err := fn(e.key, e.val)
		if err != nil {
			return err
		}
		if m.tbl.gen != gen {
			return ErrIterationInvalidated
		}
		switch step {
		case Stop:
			return nil
		case DeleteEntry:
			if m.frozen {
				return ErrFrozen
			}
			// e may be stale if the callback appended entries; go
			// through the index-position path.
			m.tbl.removeAt(i)
		}
	}
	return nil
}

// Each visits every live entry in insertion order. The callback
// steers the traversal through its Step result; it may also mutate m
// directly, under the same rules as foreach.
func (m *Map[K, V]) Each(fn func(K, V) Step) error {
	return m.foreach(func(k K, v V) (Step, error) {
		return fn(k, v), nil
	})
}

// EachKey visits every live key in insertion order.
func (m *Map[K, V]) EachKey(fn func(K) Step) error {
	return m.foreach(func(k K, _ V) (Step, error) {
		return fn(k), nil
	})
}

// EachValue visits every live value in insertion order.
func (m *Map[K, V]) EachValue(fn func(V) Step) error {
	return m.foreach(func(_ K, v V) (Step, error) {
		return fn(v), nil
	})
}

// All returns an iterator over key-value pairs from m, in insertion
// order. Structurally changing m mid-range panics with
// ErrIterationInvalidated, since a range cannot return an error.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		err := m.foreach(func(k K, v V) (Step, error) {
			if !yield(k, v) {
				return Stop, nil
			}
			return Continue, nil
		})
		if err != nil {
			panic(err)
		}
	}
}

// Keys returns an iterator over keys in m, in insertion order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		err := m.foreach(func(k K, _ V) (Step, error) {
			if !yield(k) {
				return Stop, nil
			}
			return Continue, nil
		})
		if err != nil {
			panic(err)
		}
	}
}

// Values returns an iterator over values in m, in insertion order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		err := m.foreach(func(_ K, v V) (Step, error) {
			if !yield(v) {
				return Stop, nil
			}
			return Continue, nil
		})
		if err != nil {
			panic(err)
		}
	}
}
