// Copyright (c) The ryft Authors.
// Portions derived from Go's runtime map via github.com/aristanetworks/gomap.
// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dict

// This file contains the slot store: the storage layer underneath Map.
//
// Entries live in a flat array in insertion order; that array is the
// source of truth for enumeration. A bucketized hash index maps keys
// to positions in the entry array. Buckets hold up to 8 slots, each
// tagged with the top byte of the key's hash so most probes are
// resolved without touching the entry array, and chain onto overflow
// buckets when full.
//
// Unlike Go's runtime map there is no incremental evacuation: because
// enumeration walks the entry array rather than the buckets, the index
// can be thrown away and rebuilt in one shot when the table grows. Any
// such rebuild bumps the generation counter, which is how an in-flight
// traversal detects that the table changed underneath it. Deleting an
// entry only unlinks it from the index and marks it dead in the entry
// array; dead entries are invisible to lookups and enumeration and are
// physically compacted later, when no traversal can be holding a
// cursor over the array.

import "hash/maphash"

const (
	// Maximum number of slots a bucket can hold.
	bucketCntBits = 3
	bucketCnt     = 1 << bucketCntBits

	// Maximum average load of a bucket that triggers growth is 6.5.
	// Represent as loadFactorNum/loadFactorDen, to allow integer math.
	loadFactorNum = 13
	loadFactorDen = 2

	// emptySlot marks an unused slot in a bucket. Real tophash values
	// are offset past it.
	emptySlot  = 0
	minTopHash = 1
)

// bucket is one group of hash-index slots. slots[i] is a position in
// store.entries, valid only while tophash[i] != emptySlot.
type bucket struct {
	tophash  [bucketCnt]uint8
	slots    [bucketCnt]int32
	overflow *bucket
}

// entry is one key/value pair in insertion order. A dead entry is a
// tombstone: it has been deleted and unlinked from the index but not
// yet compacted out of the array.
type entry[K, V any] struct {
	key  K
	val  V
	live bool
}

type store[K, V any] struct {
	entries []entry[K, V] // insertion order; may contain dead entries
	nlive   int
	ndead   int // dead entries awaiting compaction

	buckets []bucket // hash index; always a power-of-two length
	seed    maphash.Seed
	cmp     Comparator[K]

	// gen counts structural changes to the index: growth, rebuild,
	// compaction, clear. Tombstoning an entry is not structural.
	gen uint64
}

// tophash calculates the bucket tag for hash.
func tophash(hash uint64) uint8 {
	top := uint8(hash >> 56)
	if top < minTopHash {
		top += minTopHash
	}
	return top
}

// overLoadFactor reports whether count entries in nbuckets buckets is
// over the 6.5 load factor.
func overLoadFactor(count, nbuckets int) bool {
	return count > bucketCnt && uint64(count) > loadFactorNum*(uint64(nbuckets)/loadFactorDen)
}

func (s *store[K, V]) init(hint int, cmp Comparator[K]) {
	s.cmp = cmp
	s.seed = maphash.MakeSeed()
	if hint > 0 {
		nbuckets := 1
		for overLoadFactor(hint, nbuckets) {
			nbuckets *= 2
		}
		s.buckets = make([]bucket, nbuckets)
		s.entries = make([]entry[K, V], 0, hint)
	}
}

func (s *store[K, V]) bucketMask() uint64 {
	return uint64(len(s.buckets) - 1)
}

// lookup returns the entry array position of the live entry for k.
func (s *store[K, V]) lookup(k K) (int, bool) {
	if s.nlive == 0 {
		return 0, false
	}
	hash := s.cmp.Hash(s.seed, k)
	top := tophash(hash)
	for b := &s.buckets[hash&s.bucketMask()]; b != nil; b = b.overflow {
		for i := 0; i < bucketCnt; i++ {
			if b.tophash[i] != top {
				continue
			}
			if idx := int(b.slots[i]); s.cmp.Equal(k, s.entries[idx].key) {
				return idx, true
			}
		}
	}
	return 0, false
}

// insert stores v under k. An existing live entry keeps its position
// (and its original key); a new key is appended to the entry array.
// Reports whether a new entry was created.
func (s *store[K, V]) insert(k K, v V) bool {
	if s.buckets == nil {
		s.buckets = make([]bucket, 1)
	}
	hash := s.cmp.Hash(s.seed, k)
	top := tophash(hash)

	var (
		b    *bucket
		insb *bucket
		insi int
	)
again:
	insb = nil
	b = &s.buckets[hash&s.bucketMask()]
	for {
		for i := 0; i < bucketCnt; i++ {
			if b.tophash[i] == emptySlot {
				if insb == nil {
					insb, insi = b, i
				}
				continue
			}
			if b.tophash[i] != top {
				continue
			}
			if idx := int(b.slots[i]); s.cmp.Equal(k, s.entries[idx].key) {
				// Already have a mapping for k. Update it, keeping the
				// stored key and the entry's position.
				s.entries[idx].val = v
				return false
			}
		}
		if b.overflow == nil {
			break
		}
		b = b.overflow
	}

	// Did not find a mapping for k; a new entry is needed.

	if overLoadFactor(s.nlive+1, len(s.buckets)) {
		// Growing rebuilds the index, invalidating the probe above.
		s.reindex(len(s.buckets) * 2)
		goto again
	}

	if insb == nil {
		// The bucket and all its overflows are full.
		insb = &bucket{}
		b.overflow = insb
		insi = 0
	}
	insb.tophash[insi] = top
	insb.slots[insi] = int32(len(s.entries))
	s.entries = append(s.entries, entry[K, V]{key: k, val: v, live: true})
	s.nlive++
	return true
}

// remove tombstones the live entry for k: it is unlinked from the
// index and marked dead, but stays in the entry array until compact.
func (s *store[K, V]) remove(k K) (V, bool) {
	if idx, ok := s.lookup(k); ok {
		return s.removeAt(idx)
	}
	var zero V
	return zero, false
}

// removeAt tombstones the entry at position idx.
func (s *store[K, V]) removeAt(idx int) (V, bool) {
	e := &s.entries[idx]
	if !e.live {
		var zero V
		return zero, false
	}
	s.unlink(s.cmp.Hash(s.seed, e.key), int32(idx))
	v := e.val
	var (
		zeroK K
		zeroV V
	)
	// Clear key and val in case they hold pointers.
	e.key, e.val, e.live = zeroK, zeroV, false
	s.nlive--
	s.ndead++
	return v, true
}

// unlink clears the index slot pointing at entry idx. Not a
// structural change: no generation bump.
func (s *store[K, V]) unlink(hash uint64, idx int32) {
	top := tophash(hash)
	for b := &s.buckets[hash&s.bucketMask()]; b != nil; b = b.overflow {
		for i := 0; i < bucketCnt; i++ {
			if b.tophash[i] == top && b.slots[i] == idx {
				b.tophash[i] = emptySlot
				return
			}
		}
	}
}

// link adds entry idx to the index without checking for duplicates.
// Only for reindexing, where entries are known to be distinct.
func (s *store[K, V]) link(hash uint64, idx int32) {
	top := tophash(hash)
	b := &s.buckets[hash&s.bucketMask()]
	for {
		for i := 0; i < bucketCnt; i++ {
			if b.tophash[i] == emptySlot {
				b.tophash[i] = top
				b.slots[i] = idx
				return
			}
		}
		if b.overflow == nil {
			b.overflow = &bucket{}
		}
		b = b.overflow
	}
}

// reindex replaces the hash index with a freshly built one of nbuckets
// buckets. nbuckets must be a power of two.
func (s *store[K, V]) reindex(nbuckets int) {
	if nbuckets&(nbuckets-1) != 0 {
		panic("nbuckets is not power of 2")
	}
	s.buckets = make([]bucket, nbuckets)
	for i := range s.entries {
		if e := &s.entries[i]; e.live {
			s.link(s.cmp.Hash(s.seed, e.key), int32(i))
		}
	}
	s.gen++
}

// compact squeezes dead entries out of the entry array and rebuilds
// the index for the shifted positions. Callers must ensure no
// traversal holds a cursor over the entry array.
func (s *store[K, V]) compact() {
	if s.ndead == 0 {
		return
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.live {
			kept = append(kept, e)
		}
	}
	clear(s.entries[len(kept):])
	s.entries = kept
	s.ndead = 0
	s.reindex(len(s.buckets))
}

// maybeCompact compacts once enough of the entry array is dead that
// walking it would mostly skip tombstones.
func (s *store[K, V]) maybeCompact() {
	if s.ndead >= bucketCnt && s.ndead > len(s.entries)/2 {
		s.compact()
	}
}

func (s *store[K, V]) clear() {
	clear(s.entries)
	s.entries = s.entries[:0]
	s.nlive, s.ndead = 0, 0
	s.buckets = nil
	// Reset the hash seed to make it more difficult for attackers to
	// repeatedly trigger hash collisions.
	s.seed = maphash.MakeSeed()
	s.gen++
}

// rebuild re-hashes every live entry under cmp, preserving insertion
// order. Keys that collide under the new comparator collapse into the
// earliest entry, which keeps its position and takes the latest value,
// the same way insert resolves an existing key.
func (s *store[K, V]) rebuild(cmp Comparator[K]) {
	old := s.entries
	s.cmp = cmp
	s.entries = nil
	s.buckets = nil
	s.nlive, s.ndead = 0, 0
	s.gen++
	for i := range old {
		if e := &old[i]; e.live {
			s.insert(e.key, e.val)
		}
	}
}
