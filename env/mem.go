// Copyright (c) The ryft Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package env

// MemTable is an in-memory Table with deterministic, insertion-ordered
// Names. It backs tests and sandboxed interpreters that must not touch
// the real process environment.
type MemTable struct {
	names []string
	vals  map[string]string
}

// NewMemTable returns an empty MemTable, optionally seeded from
// name/value pairs in vars.
func NewMemTable(vars map[string]string) *MemTable {
	t := &MemTable{vals: make(map[string]string)}
	for name, value := range vars {
		t.vals[name] = value
		t.names = append(t.names, name)
	}
	return t
}

func (t *MemTable) Get(name string) (string, bool) {
	v, ok := t.vals[name]
	return v, ok
}

func (t *MemTable) Set(name, value string) error {
	if _, ok := t.vals[name]; !ok {
		t.names = append(t.names, name)
	}
	t.vals[name] = value
	return nil
}

func (t *MemTable) Unset(name string) error {
	if _, ok := t.vals[name]; !ok {
		return nil
	}
	delete(t.vals, name)
	for i, n := range t.names {
		if n == name {
			t.names = append(t.names[:i], t.names[i+1:]...)
			break
		}
	}
	return nil
}

func (t *MemTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
