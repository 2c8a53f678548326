// identity_table.go: identity-keyed hash table with chaining and slot reuse
//
// IdentityTable is the storage engine under the creator cache. Entries live in
// a single backing slice; buckets hold 1-based indices of chain heads. Removed
// slots are threaded onto a free list through their own next field, so a
// removal is O(1) and the slot is reused by the next insert.
//
// An IdentityTable is not safe for concurrent mutation. It is safe for any
// number of concurrent readers as long as nobody mutates it, which is how the
// creator cache uses it: tables are built privately, frozen, then published.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import (
	"hash/maphash"
	"iter"
	"reflect"
	"slices"
)

// InsertBehavior selects what Insert does when the key is already present.
type InsertBehavior uint8

const (
	// InsertNone leaves the existing entry untouched.
	InsertNone InsertBehavior = iota
	// InsertOverwrite replaces the existing value.
	InsertOverwrite
	// InsertThrowOnDuplicate fails with a DuplicateKey error.
	InsertThrowOnDuplicate
)

// startOfFreeList is the offset used to encode free-list links in the next
// field. A free slot stores startOfFreeList - nextFree, which is always <= -2
// because nextFree >= -1; live slots store a chain index >= -1.
const startOfFreeList = -3

// tableEntry is one slot of the backing slice.
type tableEntry[K comparable, V any] struct {
	hashCode uint64
	next     int // >= -1: live, next in chain (-1 = end); <= -2: free
	key      K
	value    V
}

// tableSeed seeds the default hasher. Hash codes are only meaningful within
// one process, and clones keep their source's hash codes.
var tableSeed = maphash.MakeSeed()

// IdentityTable is a hash table keyed by identity-comparable keys such as
// reflect.Type or pointers.
//
// Capacity is always prime. The table grows to the next prime at or above
// twice its size when full.
type IdentityTable[K comparable, V any] struct {
	buckets   []int // 1-based index of the chain head, 0 = empty bucket
	entries   []tableEntry[K, V]
	count     int // slots handed out so far, live or free
	freeList  int // head of the free list, -1 = empty
	freeCount int
	version   uint64
	frozen    bool

	hasher     func(K) uint64
	valueEqual func(a, b V) bool
	nilable    bool // K can hold nil
}

// TableOption configures an IdentityTable at construction.
type TableOption[K comparable, V any] func(*IdentityTable[K, V])

// WithHasher replaces the default maphash-based hasher.
// The hasher must be consistent with == on K.
func WithHasher[K comparable, V any](hasher func(K) uint64) TableOption[K, V] {
	return func(t *IdentityTable[K, V]) {
		if hasher != nil {
			t.hasher = hasher
		}
	}
}

// WithValueEqual replaces the value comparison used by ContainsValue.
// The default is reflect.DeepEqual.
func WithValueEqual[K comparable, V any](equal func(a, b V) bool) TableOption[K, V] {
	return func(t *IdentityTable[K, V]) {
		if equal != nil {
			t.valueEqual = equal
		}
	}
}

// NewIdentityTable creates a table. A positive capacity pre-allocates
// NextPrime(capacity) slots; zero defers allocation to the first insert.
func NewIdentityTable[K comparable, V any](capacity int, opts ...TableOption[K, V]) (*IdentityTable[K, V], error) {
	if capacity < 0 {
		return nil, NewErrInvalidArgument("NewIdentityTable", "capacity must be non-negative")
	}

	t := &IdentityTable[K, V]{
		freeList: -1,
		hasher: func(k K) uint64 {
			return maphash.Comparable(tableSeed, k)
		},
		valueEqual: func(a, b V) bool {
			return reflect.DeepEqual(a, b)
		},
		nilable: isNilableKind(reflect.TypeFor[K]().Kind()),
	}
	for _, opt := range opts {
		opt(t)
	}

	if capacity > 0 {
		t.initialize(capacity)
	}
	return t, nil
}

func isNilableKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Interface, reflect.Pointer, reflect.Chan, reflect.UnsafePointer,
		reflect.Map, reflect.Slice, reflect.Func:
		return true
	}
	return false
}

// isNilKey reports whether key is a nil interface or a nil pointer-like value.
func (t *IdentityTable[K, V]) isNilKey(key K) bool {
	if !t.nilable {
		return false
	}
	v := any(key)
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if isNilableKind(rv.Kind()) {
		return rv.IsNil()
	}
	return false
}

func (t *IdentityTable[K, V]) initialize(capacity int) {
	size := NextPrime(capacity)
	t.buckets = make([]int, size)
	t.entries = make([]tableEntry[K, V], size)
	t.freeList = -1
}

func (t *IdentityTable[K, V]) bucketIndex(hashCode uint64) int {
	return int(hashCode % uint64(len(t.buckets))) // #nosec G115 - modulo of a positive table size
}

// findEntry returns the slot holding key, or -1.
func (t *IdentityTable[K, V]) findEntry(key K) int {
	if t.buckets == nil {
		return -1
	}

	hashCode := t.hasher(key)
	i := t.buckets[t.bucketIndex(hashCode)] - 1
	collisions := 0

	for uint(i) < uint(len(t.entries)) {
		e := &t.entries[i]
		if e.hashCode == hashCode && e.key == key {
			return i
		}
		i = e.next

		collisions++
		if collisions > len(t.entries) {
			// A chain can never be longer than the table; a cycle means the
			// table was mutated concurrently with this read.
			panic(NewErrChainOverrun("find", len(t.entries)))
		}
	}
	return -1
}

// Insert adds or updates key according to behavior and reports whether the
// table was modified.
func (t *IdentityTable[K, V]) Insert(key K, value V, behavior InsertBehavior) (bool, error) {
	if t.isNilKey(key) {
		return false, NewErrNilKey("Insert")
	}
	if t.frozen {
		return false, NewErrReadOnly("Insert")
	}
	if t.buckets == nil {
		t.initialize(minTableSize)
	}

	hashCode := t.hasher(key)
	bucket := t.bucketIndex(hashCode)
	collisions := 0

	for i := t.buckets[bucket] - 1; uint(i) < uint(len(t.entries)); {
		e := &t.entries[i]
		if e.hashCode == hashCode && e.key == key {
			switch behavior {
			case InsertOverwrite:
				e.value = value
				t.version++
				return true, nil
			case InsertThrowOnDuplicate:
				return false, NewErrDuplicateKey(key)
			default:
				return false, nil
			}
		}
		i = e.next

		collisions++
		if collisions > len(t.entries) {
			return false, NewErrChainOverrun("Insert", len(t.entries))
		}
	}

	var index int
	if t.freeCount > 0 {
		index = t.freeList
		t.freeList = startOfFreeList - t.entries[index].next
		t.freeCount--
	} else {
		if t.count == len(t.entries) {
			newSize := ExpandPrime(t.count)
			if newSize <= t.count {
				return false, NewErrInvalidArgument("Insert", "table has reached its maximum capacity")
			}
			t.resize(newSize)
			bucket = t.bucketIndex(hashCode)
		}
		index = t.count
		t.count++
	}

	e := &t.entries[index]
	e.hashCode = hashCode
	e.next = t.buckets[bucket] - 1
	e.key = key
	e.value = value
	t.buckets[bucket] = index + 1
	t.version++

	return true, nil
}

// Add inserts key and fails with DuplicateKey if it is already present.
func (t *IdentityTable[K, V]) Add(key K, value V) error {
	_, err := t.Insert(key, value, InsertThrowOnDuplicate)
	return err
}

// Set inserts key or overwrites its value.
func (t *IdentityTable[K, V]) Set(key K, value V) error {
	_, err := t.Insert(key, value, InsertOverwrite)
	return err
}

// resize moves every slot into fresh arrays of newSize and rebuilds chains.
// It is only called when the table is full, so every slot is live.
func (t *IdentityTable[K, V]) resize(newSize int) {
	entries := make([]tableEntry[K, V], newSize)
	copy(entries, t.entries[:t.count])

	buckets := make([]int, newSize)
	for i := 0; i < t.count; i++ {
		if entries[i].next >= -1 {
			b := int(entries[i].hashCode % uint64(newSize)) // #nosec G115 - newSize is positive
			entries[i].next = buckets[b] - 1
			buckets[b] = i + 1
		}
	}

	t.buckets = buckets
	t.entries = entries
	t.version++
}

// TryGetValue returns the value stored under key.
// A nil key is never present.
//
// TryGetValue panics with a ConcurrentModification error if it walks a chain
// longer than the table, which only happens when the table is mutated while
// being read.
func (t *IdentityTable[K, V]) TryGetValue(key K) (V, bool) {
	if !t.isNilKey(key) {
		if i := t.findEntry(key); i >= 0 {
			return t.entries[i].value, true
		}
	}
	var zero V
	return zero, false
}

// Get returns the value stored under key, failing with KeyNotFound when it is absent.
func (t *IdentityTable[K, V]) Get(key K) (V, error) {
	var zero V
	if t.isNilKey(key) {
		return zero, NewErrNilKey("Get")
	}
	i := t.findEntry(key)
	if i < 0 {
		return zero, NewErrKeyNotFound(key)
	}
	return t.entries[i].value, nil
}

// ContainsKey reports whether key is present.
func (t *IdentityTable[K, V]) ContainsKey(key K) bool {
	if t.isNilKey(key) {
		return false
	}
	return t.findEntry(key) >= 0
}

// ContainsValue reports whether any live entry holds value. O(n).
func (t *IdentityTable[K, V]) ContainsValue(value V) bool {
	for i := 0; i < t.count; i++ {
		if t.entries[i].next >= -1 && t.valueEqual(t.entries[i].value, value) {
			return true
		}
	}
	return false
}

// Remove deletes key and recycles its slot. It reports whether key was present.
func (t *IdentityTable[K, V]) Remove(key K) (bool, error) {
	if t.isNilKey(key) {
		return false, NewErrNilKey("Remove")
	}
	if t.frozen {
		return false, NewErrReadOnly("Remove")
	}
	if t.buckets == nil {
		return false, nil
	}

	hashCode := t.hasher(key)
	bucket := t.bucketIndex(hashCode)
	last := -1
	collisions := 0

	for i := t.buckets[bucket] - 1; uint(i) < uint(len(t.entries)); {
		e := &t.entries[i]
		if e.hashCode == hashCode && e.key == key {
			if last < 0 {
				t.buckets[bucket] = e.next + 1
			} else {
				t.entries[last].next = e.next
			}

			var zeroKey K
			var zeroValue V
			e.hashCode = 0
			e.next = startOfFreeList - t.freeList
			e.key = zeroKey
			e.value = zeroValue

			t.freeList = i
			t.freeCount++
			t.version++
			return true, nil
		}
		last = i
		i = e.next

		collisions++
		if collisions > len(t.entries) {
			return false, NewErrChainOverrun("Remove", len(t.entries))
		}
	}
	return false, nil
}

// Clear removes every entry. Capacity is kept.
func (t *IdentityTable[K, V]) Clear() error {
	if t.frozen {
		return NewErrReadOnly("Clear")
	}
	if t.count > 0 {
		clear(t.buckets)
		clear(t.entries[:t.count])
		t.count = 0
		t.freeList = -1
		t.freeCount = 0
		t.version++
	}
	return nil
}

// Count returns the number of live entries.
func (t *IdentityTable[K, V]) Count() int {
	return t.count - t.freeCount
}

// Capacity returns the length of the backing slice. It is always prime, or
// zero before the first insert into a table created with zero capacity.
func (t *IdentityTable[K, V]) Capacity() int {
	return len(t.entries)
}

// Version returns the mutation counter used to invalidate enumerators.
func (t *IdentityTable[K, V]) Version() uint64 {
	return t.version
}

// Freeze makes the table read-only. It cannot be undone; use Clone to get a
// mutable copy.
func (t *IdentityTable[K, V]) Freeze() {
	t.frozen = true
}

// Frozen reports whether the table rejects mutation.
func (t *IdentityTable[K, V]) Frozen() bool {
	return t.frozen
}

// Clone returns a mutable structural copy: same capacity, same slot layout,
// same free list. Keys and values are copied shallowly.
func (t *IdentityTable[K, V]) Clone() *IdentityTable[K, V] {
	c := &IdentityTable[K, V]{
		count:      t.count,
		freeList:   t.freeList,
		freeCount:  t.freeCount,
		hasher:     t.hasher,
		valueEqual: t.valueEqual,
		nilable:    t.nilable,
	}
	if t.buckets != nil {
		c.buckets = slices.Clone(t.buckets)
		c.entries = slices.Clone(t.entries)
	}
	return c
}

// =============================================================================
// ENUMERATION
// =============================================================================

// Enumerator walks a table in slot order. It fails fast once the table is
// modified after the enumerator was created.
type Enumerator[K comparable, V any] struct {
	table   *IdentityTable[K, V]
	version uint64
	index   int
	key     K
	value   V
	err     error
}

// Enumerator returns an enumerator positioned before the first entry.
func (t *IdentityTable[K, V]) Enumerator() *Enumerator[K, V] {
	return &Enumerator[K, V]{
		table:   t,
		version: t.version,
	}
}

// MoveNext advances to the next live entry. It returns false at the end.
// Once it has returned a ConcurrentModification error it keeps returning it.
func (e *Enumerator[K, V]) MoveNext() (bool, error) {
	if e.err != nil {
		return false, e.err
	}
	if e.version != e.table.version {
		e.err = NewErrConcurrentModification(e.version, e.table.version)
		e.clearCurrent()
		return false, e.err
	}

	for uint(e.index) < uint(e.table.count) {
		entry := &e.table.entries[e.index]
		e.index++
		if entry.next >= -1 {
			e.key = entry.key
			e.value = entry.value
			return true, nil
		}
	}

	e.index = e.table.count + 1
	e.clearCurrent()
	return false, nil
}

// Current returns the entry the enumerator is positioned on.
func (e *Enumerator[K, V]) Current() (K, V) {
	return e.key, e.value
}

// Reset rewinds the enumerator. It fails if the table has been modified.
func (e *Enumerator[K, V]) Reset() error {
	if e.err != nil {
		return e.err
	}
	if e.version != e.table.version {
		e.err = NewErrConcurrentModification(e.version, e.table.version)
		return e.err
	}
	e.index = 0
	e.clearCurrent()
	return nil
}

func (e *Enumerator[K, V]) clearCurrent() {
	var zeroKey K
	var zeroValue V
	e.key = zeroKey
	e.value = zeroValue
}

// Range calls fn for every live entry until fn returns false. It returns a
// ConcurrentModification error if fn mutates the table.
func (t *IdentityTable[K, V]) Range(fn func(key K, value V) bool) error {
	e := t.Enumerator()
	for {
		ok, err := e.MoveNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if !fn(e.key, e.value) {
			return nil
		}
	}
}

// All returns an iterator over the live entries.
// It panics with a ConcurrentModification error if the loop body mutates the table.
func (t *IdentityTable[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if err := t.Range(yield); err != nil {
			panic(err)
		}
	}
}
