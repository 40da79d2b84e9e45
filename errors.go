// Copyright (c) The ryft Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import "errors"

var (
	// ErrFrozen is returned by every mutating operation on a frozen Map.
	ErrFrozen = errors.New("dict: can't modify frozen map")

	// ErrKeyNotFound is returned by Fetch when the key is absent and no
	// fallback was supplied.
	ErrKeyNotFound = errors.New("dict: key not found")

	// ErrIterationInvalidated is returned when the table is structurally
	// changed (grown, rebuilt, cleared) while a traversal is in
	// progress. Deleting entries during a traversal is fine; that goes
	// through the tombstone path.
	ErrIterationInvalidated = errors.New("dict: map modified during iteration")
)
