// Copyright (c) The ryft Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

import (
	"bytes"
	"hash/maphash"
	"reflect"
	"unsafe"
)

// Comparator decides key equality and produces the hash codes the
// slot store indexes by. The usual requirements apply:
//   - Equal(a, b) => Hash(a) == Hash(b)
//   - Equal(a, a) must be true for all a. Be careful around NaN
//     float values.
//   - Mutating data a key references in a way that changes Equal or
//     Hash results leads to undefined behavior; see Map.Rehash.
type Comparator[K any] struct {
	Equal func(a, b K) bool
	Hash  func(seed maphash.Seed, k K) uint64
}

// ValueComparator returns the structural-equality comparator: keys
// are equal when == says so.
func ValueComparator[K comparable]() Comparator[K] {
	return Comparator[K]{
		Equal: func(a, b K) bool { return a == b },
		Hash:  maphash.Comparable[K],
	}
}

// ValueFunc builds a comparator from user-supplied equality and hash
// functions, for key types whose structural equality is not ==.
func ValueFunc[K any](equal func(a, b K) bool, hash func(maphash.Seed, K) uint64) Comparator[K] {
	return Comparator[K]{Equal: equal, Hash: hash}
}

// IdentityComparator returns the reference-identity comparator: two
// keys are equal only when they are the same object.
//
// For reference kinds (pointers, interfaces, maps, channels, funcs,
// slices, strings) identity means the representation words match: two
// separately allocated but equal-contents strings are distinct keys.
// Plain value kinds carry no object identity, so they degrade to
// representation equality, the way immediates do in dynamic runtimes.
//
// Hashing the representation relies on Go's non-moving collector:
// a key's data pointer never changes while the key is reachable.
func IdentityComparator[K any]() Comparator[K] {
	var zero K
	wordSize := unsafe.Sizeof(uintptr(0))
	switch reflect.TypeOf(&zero).Elem().Kind() {
	case reflect.Interface, reflect.String:
		// type word + data word, or data pointer + length.
		return repComparator[K](2 * wordSize)
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan, reflect.Func:
		return repComparator[K](wordSize)
	case reflect.Slice:
		// Identity follows the backing array, not the length: a
		// reslice of the same array is the same object.
		return repComparator[K](wordSize)
	default:
		return repComparator[K](unsafe.Sizeof(zero))
	}
}

// repComparator compares and hashes the first n bytes of the key's
// in-memory representation.
func repComparator[K any](n uintptr) Comparator[K] {
	return Comparator[K]{
		Equal: func(a, b K) bool {
			return bytes.Equal(
				unsafe.Slice((*byte)(unsafe.Pointer(&a)), n),
				unsafe.Slice((*byte)(unsafe.Pointer(&b)), n))
		},
		Hash: func(seed maphash.Seed, k K) uint64 {
			return maphash.Bytes(seed, unsafe.Slice((*byte)(unsafe.Pointer(&k)), n))
		},
	}
}
