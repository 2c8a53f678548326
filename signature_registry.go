// signature_registry.go: canonical keys for parameter-type sequences
//
// Every distinct ordered sequence of parameter types maps to exactly one
// *Signature, no matter which target type asked for it, so signatures can be
// used as identity keys in the per-type factory tables.
//
// The registry is a sorted slice published through an atomic pointer. Readers
// binary-search whatever slice is current; writers copy the slice, insert the
// new signature and compare-and-swap the pointer, retrying on contention.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import (
	"cmp"
	"fmt"
	"hash/maphash"
	"reflect"
	"slices"
	"strings"
	"sync/atomic"
)

// Signature is the canonical key of one ordered parameter-type sequence.
// Two signatures from the same registry are equal iff they are the same pointer.
type Signature struct {
	params []reflect.Type
	hashes []uint64 // per-position identity hash, registry seeded
	names  []string // per-position canonical name, tie-break only
}

// Len returns the number of parameters.
func (s *Signature) Len() int { return len(s.params) }

// Param returns the i-th parameter type.
func (s *Signature) Param(i int) reflect.Type { return s.params[i] }

// Params returns a copy of the parameter types.
func (s *Signature) Params() []reflect.Type { return slices.Clone(s.params) }

// Matches reports whether params is exactly this signature's sequence.
func (s *Signature) Matches(params []reflect.Type) bool {
	return slices.Equal(s.params, params)
}

// String renders the signature as a parameter list, e.g. "(int, string)".
func (s *Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	return b.String()
}

// canonicalName identifies a type across packages that share a short name.
func canonicalName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// SignatureRegistry deduplicates parameter-type sequences into signatures.
// It only grows. It is safe for concurrent use and may be shared by any
// number of creator caches.
type SignatureRegistry struct {
	entries atomic.Pointer[[]*Signature]
	empty   *Signature
	seed    maphash.Seed
	retries atomic.Int64
	metrics MetricsCollector
}

// NewSignatureRegistry creates an empty registry. metrics may be nil.
func NewSignatureRegistry(metrics MetricsCollector) *SignatureRegistry {
	if metrics == nil {
		metrics = NoOpMetricsCollector{}
	}
	r := &SignatureRegistry{
		empty:   &Signature{},
		seed:    maphash.MakeSeed(),
		metrics: metrics,
	}
	list := make([]*Signature, 0)
	r.entries.Store(&list)
	return r
}

// Empty returns the signature of the parameterless constructor.
func (r *SignatureRegistry) Empty() *Signature { return r.empty }

// Len returns the number of registered non-empty signatures.
func (r *SignatureRegistry) Len() int { return len(*r.entries.Load()) }

// Retries returns how many times a writer lost the publication race and retried.
func (r *SignatureRegistry) Retries() int64 { return r.retries.Load() }

// Signatures returns the registered non-empty signatures in registry order.
func (r *SignatureRegistry) Signatures() []*Signature {
	return slices.Clone(*r.entries.Load())
}

// probe is a lookup key that has not been turned into a Signature yet.
type probe struct {
	params []reflect.Type
	hashes []uint64
}

// Get returns the canonical signature for params, registering it on first use.
func (r *SignatureRegistry) Get(params ...reflect.Type) (*Signature, error) {
	if len(params) == 0 {
		return r.empty, nil
	}

	var buf [8]uint64
	key, err := r.probeFor(params, buf[:0])
	if err != nil {
		return nil, err
	}

	for {
		current := r.entries.Load()
		list := *current

		pos, found := r.search(list, key)
		if found {
			return list[pos], nil
		}

		sig := r.newSignature(key)
		next := make([]*Signature, len(list)+1)
		copy(next, list[:pos])
		next[pos] = sig
		copy(next[pos+1:], list[pos:])

		if r.entries.CompareAndSwap(current, &next) {
			return sig, nil
		}

		// Another writer published first; retry against its list, which may
		// already hold our signature.
		r.retries.Add(1)
		r.metrics.RecordSignatureRetry()
	}
}

// Find returns the signature for params if it is already registered.
// Unlike Get it never registers, so probing unknown sequences does not grow
// the registry.
func (r *SignatureRegistry) Find(params ...reflect.Type) (*Signature, bool) {
	if len(params) == 0 {
		return r.empty, true
	}

	var buf [8]uint64
	key, err := r.probeFor(params, buf[:0])
	if err != nil {
		return nil, false
	}

	list := *r.entries.Load()
	if pos, found := r.search(list, key); found {
		return list[pos], true
	}
	return nil, false
}

func (r *SignatureRegistry) probeFor(params []reflect.Type, hashes []uint64) (probe, error) {
	for i, p := range params {
		if p == nil {
			return probe{}, NewErrInvalidArgument("SignatureRegistry.Get", fmt.Sprintf("parameter %d is nil", i))
		}
		hashes = append(hashes, maphash.Comparable(r.seed, p))
	}
	return probe{params: params, hashes: hashes}, nil
}

func (r *SignatureRegistry) newSignature(key probe) *Signature {
	sig := &Signature{
		params: slices.Clone(key.params),
		hashes: slices.Clone(key.hashes),
		names:  make([]string, len(key.params)),
	}
	for i, p := range sig.params {
		sig.names[i] = canonicalName(p)
	}
	return sig
}

// search returns the index of the signature matching key, or the index at
// which it must be inserted to keep list sorted.
func (r *SignatureRegistry) search(list []*Signature, key probe) (int, bool) {
	pos, _ := slices.BinarySearchFunc(list, key, compareSignature)

	// Distinct sequences only compare equal if both their hashes and their
	// canonical names collide; resolve that by identity.
	for ; pos < len(list) && compareSignature(list[pos], key) == 0; pos++ {
		if list[pos].Matches(key.params) {
			return pos, true
		}
	}
	return pos, false
}

// compareSignature orders by length, then per-position identity hash, then
// per-position canonical name.
func compareSignature(s *Signature, key probe) int {
	if c := cmp.Compare(len(s.params), len(key.params)); c != 0 {
		return c
	}
	for i := range key.params {
		if c := cmp.Compare(s.hashes[i], key.hashes[i]); c != 0 {
			return c
		}
	}
	for i, p := range key.params {
		if s.params[i] == p {
			continue
		}
		if c := strings.Compare(s.names[i], canonicalName(p)); c != 0 {
			return c
		}
	}
	return 0
}
