// Copyright (c) The ryft Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package env presents the process environment through the same
// protocol as dict.Map. Nothing is cached: every read re-queries the
// environment table and every write re-issues an environment
// mutation, so the view is always live. The environment has no notion
// of a stable cursor and can be mutated by unrelated code in the same
// process, so every multi-step operation snapshots the full name list
// before iterating and skips names unset since the snapshot.
//
// The view is always value-equality over string names, carries no
// default policy and cannot be frozen.
package env

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ryftlang/dict"
)

// ErrBadIdentifier is returned for a malformed variable name or value:
// an empty name, or an embedded '=' or NUL where the environment
// representation cannot carry one.
var ErrBadIdentifier = errors.New("env: bad environment variable")

// Table is the OS capability the view is built on. The real process
// environment satisfies it through the os package; tests substitute
// an in-memory MemTable.
type Table interface {
	Get(name string) (string, bool)
	Set(name, value string) error
	Unset(name string) error
	Names() []string
}

// osTable is the live process environment.
type osTable struct{}

func (osTable) Get(name string) (string, bool) { return os.LookupEnv(name) }
func (osTable) Set(name, value string) error   { return os.Setenv(name, value) }
func (osTable) Unset(name string) error        { return os.Unsetenv(name) }

func (osTable) Names() []string {
	environ := os.Environ()
	names := make([]string, 0, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			names = append(names, kv[:i])
		}
	}
	return names
}

// System is the process-wide view over the real environment. Like the
// environment itself it is shared state; concurrent use from multiple
// goroutines is the caller's problem, not this package's.
var System = New(osTable{})

// Env is a map-shaped view over a Table.
type Env struct {
	tbl Table
}

// New returns a view over tbl.
func New(tbl Table) *Env {
	return &Env{tbl: tbl}
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, "=\x00") {
		return fmt.Errorf("%w name: %q", ErrBadIdentifier, name)
	}
	return nil
}

func checkValue(value string) error {
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("%w value: %q", ErrBadIdentifier, value)
	}
	return nil
}

// Lookup returns the value of name and whether it is set.
func (e *Env) Lookup(name string) (string, bool) {
	return e.tbl.Get(name)
}

// Get returns the value of name, or "" when unset. The view has no
// default policy; "" is its only miss answer.
func (e *Env) Get(name string) string {
	v, _ := e.tbl.Get(name)
	return v
}

// HasKey reports whether name is set.
func (e *Env) HasKey(name string) bool {
	_, ok := e.tbl.Get(name)
	return ok
}

// Fetch returns the value of name, or dict.ErrKeyNotFound.
func (e *Env) Fetch(name string) (string, error) {
	if v, ok := e.tbl.Get(name); ok {
		return v, nil
	}
	return "", fmt.Errorf("env: %w: %q", dict.ErrKeyNotFound, name)
}

// FetchOr returns the value of name, or fallback when unset.
func (e *Env) FetchOr(name, fallback string) string {
	if v, ok := e.tbl.Get(name); ok {
		return v
	}
	return fallback
}

// FetchFunc returns the value of name, or onmiss(name) when unset.
func (e *Env) FetchFunc(name string, onmiss func(string) string) string {
	if v, ok := e.tbl.Get(name); ok {
		return v
	}
	return onmiss(name)
}

// Set stores value under name, validating both first.
func (e *Env) Set(name, value string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := checkValue(value); err != nil {
		return err
	}
	return e.tbl.Set(name, value)
}

// Delete unsets name, returning the value it had.
func (e *Env) Delete(name string) (string, bool, error) {
	v, ok := e.tbl.Get(name)
	if !ok {
		return "", false, nil
	}
	if err := e.tbl.Unset(name); err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Each visits every variable. The name list is snapshotted before the
// first visit, so the traversal observes one consistent set of names
// even if fn itself mutates the environment; values are read live,
// and names unset since the snapshot are skipped. fn returns false to
// stop early.
func (e *Env) Each(fn func(name, value string) bool) {
	for _, name := range e.tbl.Names() {
		v, ok := e.tbl.Get(name)
		if !ok {
			continue
		}
		if !fn(name, v) {
			return
		}
	}
}

// EachKey visits every set name, from one snapshot.
func (e *Env) EachKey(fn func(name string) bool) {
	e.Each(func(name, _ string) bool { return fn(name) })
}

// EachValue visits every value, from one snapshot of the names.
func (e *Env) EachValue(fn func(value string) bool) {
	e.Each(func(_, value string) bool { return fn(value) })
}

// Keys returns a snapshot of the set names.
func (e *Env) Keys() []string {
	names := e.tbl.Names()
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := e.tbl.Get(name); ok {
			out = append(out, name)
		}
	}
	return out
}

// Values returns a snapshot of the values.
func (e *Env) Values() []string {
	var out []string
	e.Each(func(_, value string) bool {
		out = append(out, value)
		return true
	})
	return out
}

// ValuesAt returns the values of names, in argument order, "" for any
// that are unset.
func (e *Env) ValuesAt(names ...string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = e.Get(name)
	}
	return out
}

// Len returns the number of set variables.
func (e *Env) Len() int {
	return len(e.Keys())
}

// Empty reports whether no variables are set.
func (e *Env) Empty() bool {
	return e.Len() == 0
}

// HasValue reports whether any variable holds value.
func (e *Env) HasValue(value string) bool {
	_, ok := e.KeyOf(value)
	return ok
}

// KeyOf returns the name of the first variable, in snapshot order,
// holding value.
func (e *Env) KeyOf(value string) (string, bool) {
	var (
		key   string
		found bool
	)
	e.Each(func(name, v string) bool {
		if v == value {
			key, found = name, true
			return false
		}
		return true
	})
	return key, found
}

// Assoc returns name and its value as a Pair.
func (e *Env) Assoc(name string) (dict.Pair[string, string], bool) {
	if v, ok := e.tbl.Get(name); ok {
		return dict.Pair[string, string]{Key: name, Val: v}, true
	}
	return dict.Pair[string, string]{}, false
}

// Rassoc returns the first variable, in snapshot order, holding value.
func (e *Env) Rassoc(value string) (dict.Pair[string, string], bool) {
	if name, ok := e.KeyOf(value); ok {
		return dict.Pair[string, string]{Key: name, Val: value}, true
	}
	return dict.Pair[string, string]{}, false
}

// Pairs returns a snapshot of the environment as ordered pairs.
func (e *Env) Pairs() []dict.Pair[string, string] {
	var out []dict.Pair[string, string]
	e.Each(func(name, value string) bool {
		out = append(out, dict.Pair[string, string]{Key: name, Val: value})
		return true
	})
	return out
}

// ToMap snapshots the environment into a dict.Map.
func (e *Env) ToMap() *dict.Map[string, string] {
	m := dict.NewHint[string, string](len(e.tbl.Names()), dict.ValueComparator[string]())
	e.Each(func(name, value string) bool {
		_ = m.Set(name, value)
		return true
	})
	return m
}

// Select snapshots the variables pred accepts into a dict.Map.
func (e *Env) Select(pred func(name, value string) bool) *dict.Map[string, string] {
	m := dict.NewHint[string, string](0, dict.ValueComparator[string]())
	e.Each(func(name, value string) bool {
		if pred(name, value) {
			_ = m.Set(name, value)
		}
		return true
	})
	return m
}

// Reject is Select with the predicate inverted.
func (e *Env) Reject(pred func(name, value string) bool) *dict.Map[string, string] {
	return e.Select(func(name, value string) bool { return !pred(name, value) })
}

// Invert snapshots the environment value-to-name, later names in
// snapshot order winning duplicated values.
func (e *Env) Invert() *dict.Map[string, string] {
	m := dict.NewHint[string, string](0, dict.ValueComparator[string]())
	e.Each(func(name, value string) bool {
		_ = m.Set(value, name)
		return true
	})
	return m
}

// DeleteIf unsets every variable pred accepts, from one snapshot.
func (e *Env) DeleteIf(pred func(name, value string) bool) error {
	_, err := e.RejectIf(pred)
	return err
}

// RejectIf is DeleteIf reporting whether anything was unset.
func (e *Env) RejectIf(pred func(name, value string) bool) (bool, error) {
	var err error
	changed := false
	e.Each(func(name, value string) bool {
		if pred(name, value) {
			if uerr := e.tbl.Unset(name); uerr != nil {
				err = uerr
				return false
			}
			changed = true
		}
		return true
	})
	return changed, err
}

// Shift unsets and returns the first variable in snapshot order.
func (e *Env) Shift() (dict.Pair[string, string], bool, error) {
	var (
		p   dict.Pair[string, string]
		ok  bool
		err error
	)
	e.Each(func(name, value string) bool {
		p = dict.Pair[string, string]{Key: name, Val: value}
		ok = true
		err = e.tbl.Unset(name)
		return false
	})
	if err != nil {
		return dict.Pair[string, string]{}, false, err
	}
	return p, ok, nil
}

// Clear unsets every variable, from one snapshot.
func (e *Env) Clear() error {
	for _, name := range e.tbl.Names() {
		if err := e.tbl.Unset(name); err != nil {
			return err
		}
	}
	return nil
}

// Replace makes the environment match m: one Unset per name going
// away, one Set per name added or changed. Names present in both with
// an unchanged value are left untouched, so concurrent readers never
// observe an emptied-out environment mid-replace.
func (e *Env) Replace(m *dict.Map[string, string]) error {
	stale := make(map[string]struct{})
	for _, name := range e.tbl.Names() {
		stale[name] = struct{}{}
	}
	var setErr error
	err := m.Each(func(name, value string) dict.Step {
		delete(stale, name)
		if cur, ok := e.tbl.Get(name); ok && cur == value {
			return dict.Continue
		}
		if setErr = e.Set(name, value); setErr != nil {
			return dict.Stop
		}
		return dict.Continue
	})
	if err != nil {
		return err
	}
	if setErr != nil {
		return setErr
	}
	for name := range stale {
		if err := e.tbl.Unset(name); err != nil {
			return err
		}
	}
	return nil
}

// Update folds m into the environment, in m's order. Names already
// set take the incoming value, unless resolver is non-nil, in which
// case they take resolver(name, existing, incoming).
func (e *Env) Update(m *dict.Map[string, string], resolver func(name, existing, incoming string) string) error {
	var setErr error
	err := m.Each(func(name, value string) dict.Step {
		if resolver != nil {
			if old, ok := e.tbl.Get(name); ok {
				value = resolver(name, old, value)
			}
		}
		if setErr = e.Set(name, value); setErr != nil {
			return dict.Stop
		}
		return dict.Continue
	})
	if err != nil {
		return err
	}
	return setErr
}

// String identifies the view, not its contents; the environment can
// hold secrets and does not belong in casual output.
func (e *Env) String() string {
	return "ENV"
}
