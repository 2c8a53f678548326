// identity_table_views.go: read-only key and value projections
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import "iter"

// KeyCollection is a live, read-only view of a table's keys.
// It reflects later changes to the table; mutation through it is rejected.
type KeyCollection[K comparable, V any] struct {
	table *IdentityTable[K, V]
}

// Keys returns a read-only view of the table's keys.
func (t *IdentityTable[K, V]) Keys() KeyCollection[K, V] {
	return KeyCollection[K, V]{table: t}
}

// Count returns the number of keys.
func (c KeyCollection[K, V]) Count() int { return c.table.Count() }

// IsReadOnly always reports true.
func (c KeyCollection[K, V]) IsReadOnly() bool { return true }

// Contains reports whether key is present in the underlying table.
func (c KeyCollection[K, V]) Contains(key K) bool { return c.table.ContainsKey(key) }

// Add is not supported on a view.
func (c KeyCollection[K, V]) Add(K) error { return NewErrReadOnly("KeyCollection.Add") }

// Remove is not supported on a view.
func (c KeyCollection[K, V]) Remove(K) (bool, error) {
	return false, NewErrReadOnly("KeyCollection.Remove")
}

// Clear is not supported on a view.
func (c KeyCollection[K, V]) Clear() error { return NewErrReadOnly("KeyCollection.Clear") }

// Enumerator returns a fail-fast enumerator over the keys.
func (c KeyCollection[K, V]) Enumerator() *KeyEnumerator[K, V] {
	return &KeyEnumerator[K, V]{inner: c.table.Enumerator()}
}

// Range calls fn for every key until fn returns false.
func (c KeyCollection[K, V]) Range(fn func(key K) bool) error {
	return c.table.Range(func(k K, _ V) bool { return fn(k) })
}

// All returns an iterator over the keys.
func (c KeyCollection[K, V]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range c.table.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// ToSlice copies the keys into a new slice in slot order.
func (c KeyCollection[K, V]) ToSlice() []K {
	keys := make([]K, 0, c.table.Count())
	t := c.table
	for i := 0; i < t.count; i++ {
		if t.entries[i].next >= -1 {
			keys = append(keys, t.entries[i].key)
		}
	}
	return keys
}

// CopyTo copies the keys into dst starting at index.
func (c KeyCollection[K, V]) CopyTo(dst []K, index int) error {
	if err := checkCopyBounds("KeyCollection.CopyTo", len(dst), index, c.table.Count()); err != nil {
		return err
	}
	t := c.table
	for i := 0; i < t.count; i++ {
		if t.entries[i].next >= -1 {
			dst[index] = t.entries[i].key
			index++
		}
	}
	return nil
}

// KeyEnumerator walks the keys of a table. It shares the fail-fast
// behavior of Enumerator.
type KeyEnumerator[K comparable, V any] struct {
	inner *Enumerator[K, V]
}

// MoveNext advances to the next key.
func (e *KeyEnumerator[K, V]) MoveNext() (bool, error) { return e.inner.MoveNext() }

// Current returns the key the enumerator is positioned on.
func (e *KeyEnumerator[K, V]) Current() K { return e.inner.key }

// Reset rewinds the enumerator.
func (e *KeyEnumerator[K, V]) Reset() error { return e.inner.Reset() }

// ValueCollection is a live, read-only view of a table's values.
type ValueCollection[K comparable, V any] struct {
	table *IdentityTable[K, V]
}

// Values returns a read-only view of the table's values.
func (t *IdentityTable[K, V]) Values() ValueCollection[K, V] {
	return ValueCollection[K, V]{table: t}
}

// Count returns the number of values.
func (c ValueCollection[K, V]) Count() int { return c.table.Count() }

// IsReadOnly always reports true.
func (c ValueCollection[K, V]) IsReadOnly() bool { return true }

// Contains reports whether any entry holds value, using the table's value equality.
func (c ValueCollection[K, V]) Contains(value V) bool { return c.table.ContainsValue(value) }

// Add is not supported on a view.
func (c ValueCollection[K, V]) Add(V) error { return NewErrReadOnly("ValueCollection.Add") }

// Remove is not supported on a view.
func (c ValueCollection[K, V]) Remove(V) (bool, error) {
	return false, NewErrReadOnly("ValueCollection.Remove")
}

// Clear is not supported on a view.
func (c ValueCollection[K, V]) Clear() error { return NewErrReadOnly("ValueCollection.Clear") }

// Enumerator returns a fail-fast enumerator over the values.
func (c ValueCollection[K, V]) Enumerator() *ValueEnumerator[K, V] {
	return &ValueEnumerator[K, V]{inner: c.table.Enumerator()}
}

// Range calls fn for every value until fn returns false.
func (c ValueCollection[K, V]) Range(fn func(value V) bool) error {
	return c.table.Range(func(_ K, v V) bool { return fn(v) })
}

// All returns an iterator over the values.
func (c ValueCollection[K, V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range c.table.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// ToSlice copies the values into a new slice in slot order.
func (c ValueCollection[K, V]) ToSlice() []V {
	values := make([]V, 0, c.table.Count())
	t := c.table
	for i := 0; i < t.count; i++ {
		if t.entries[i].next >= -1 {
			values = append(values, t.entries[i].value)
		}
	}
	return values
}

// CopyTo copies the values into dst starting at index.
func (c ValueCollection[K, V]) CopyTo(dst []V, index int) error {
	if err := checkCopyBounds("ValueCollection.CopyTo", len(dst), index, c.table.Count()); err != nil {
		return err
	}
	t := c.table
	for i := 0; i < t.count; i++ {
		if t.entries[i].next >= -1 {
			dst[index] = t.entries[i].value
			index++
		}
	}
	return nil
}

// ValueEnumerator walks the values of a table.
type ValueEnumerator[K comparable, V any] struct {
	inner *Enumerator[K, V]
}

// MoveNext advances to the next value.
func (e *ValueEnumerator[K, V]) MoveNext() (bool, error) { return e.inner.MoveNext() }

// Current returns the value the enumerator is positioned on.
func (e *ValueEnumerator[K, V]) Current() V { return e.inner.value }

// Reset rewinds the enumerator.
func (e *ValueEnumerator[K, V]) Reset() error { return e.inner.Reset() }

func checkCopyBounds(operation string, dstLen, index, count int) error {
	if index < 0 || index > dstLen {
		return NewErrInvalidArgument(operation, "index out of range")
	}
	if dstLen-index < count {
		return NewErrInvalidArgument(operation, "destination slice is too small")
	}
	return nil
}
