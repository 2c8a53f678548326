// signature_registry_test.go: tests for canonical signature keys
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	tInt    = reflect.TypeFor[int]()
	tString = reflect.TypeFor[string]()
	tBool   = reflect.TypeFor[bool]()
	tBytes  = reflect.TypeFor[[]byte]()
	tError  = reflect.TypeFor[error]()
)

// countingMetrics counts signature retries and records nothing else.
type countingMetrics struct {
	NoOpMetricsCollector
	retries atomic.Int64
}

func (m *countingMetrics) RecordSignatureRetry() { m.retries.Add(1) }

func TestSignatureRegistry_Dedup(t *testing.T) {
	r := NewSignatureRegistry(nil)

	a, err := r.Get(tInt, tString)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, err := r.Get(tInt, tString)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a != b {
		t.Error("same sequence produced two signatures")
	}

	c, _ := r.Get(tString, tInt)
	if c == a {
		t.Error("order must matter: (string, int) == (int, string)")
	}
	d, _ := r.Get(tInt)
	if d == a {
		t.Error("(int) == (int, string)")
	}

	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}
}

func TestSignatureRegistry_Empty(t *testing.T) {
	r := NewSignatureRegistry(nil)

	sig, err := r.Get()
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if sig != r.Empty() || sig.Len() != 0 {
		t.Error("Get() should return the empty signature")
	}
	if found, ok := r.Find(); !ok || found != r.Empty() {
		t.Error("Find() should return the empty signature")
	}
	if r.Len() != 0 {
		t.Errorf("the empty signature should not be listed, Len = %d", r.Len())
	}
	if sig.String() != "()" {
		t.Errorf("String = %q, want ()", sig.String())
	}
}

func TestSignatureRegistry_NilParameter(t *testing.T) {
	r := NewSignatureRegistry(nil)

	if _, err := r.Get(tInt, nil); !IsInvalidArgument(err) {
		t.Errorf("Get with nil parameter error = %v, want invalid argument", err)
	}
	if _, ok := r.Find(nil); ok {
		t.Error("Find with nil parameter succeeded")
	}
	if r.Len() != 0 {
		t.Errorf("failed Get registered something, Len = %d", r.Len())
	}
}

func TestSignatureRegistry_FindDoesNotRegister(t *testing.T) {
	r := NewSignatureRegistry(nil)

	if _, ok := r.Find(tInt); ok {
		t.Fatal("Find on empty registry succeeded")
	}
	if r.Len() != 0 {
		t.Fatalf("Find registered a signature, Len = %d", r.Len())
	}

	sig, _ := r.Get(tInt)
	found, ok := r.Find(tInt)
	if !ok || found != sig {
		t.Error("Find did not return the registered signature")
	}
}

func TestSignatureRegistry_Accessors(t *testing.T) {
	r := NewSignatureRegistry(nil)
	sig, _ := r.Get(tInt, tString, tBytes)

	if sig.Len() != 3 || sig.Param(2) != tBytes {
		t.Error("Len/Param mismatch")
	}
	if diff := cmp.Diff([]reflect.Type{tInt, tString, tBytes}, sig.Params()); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
	if !sig.Matches([]reflect.Type{tInt, tString, tBytes}) || sig.Matches([]reflect.Type{tInt}) {
		t.Error("Matches mismatch")
	}
	if sig.String() != "(int, string, []uint8)" {
		t.Errorf("String = %q", sig.String())
	}

	// Params returns a copy
	params := sig.Params()
	params[0] = tBool
	if sig.Param(0) != tInt {
		t.Error("Params exposed internal state")
	}
}

func TestSignatureRegistry_CallerSliceIsCopied(t *testing.T) {
	r := NewSignatureRegistry(nil)
	params := []reflect.Type{tInt, tString}
	sig, _ := r.Get(params...)

	params[0] = tBool
	if sig.Param(0) != tInt {
		t.Error("registry kept a reference to the caller's slice")
	}
	if again, _ := r.Get(tInt, tString); again != sig {
		t.Error("lookup broke after the caller mutated its slice")
	}
}

func TestSignatureRegistry_SortedOrder(t *testing.T) {
	r := NewSignatureRegistry(nil)
	sequences := [][]reflect.Type{
		{tInt, tString, tBool},
		{tString},
		{tError, tInt},
		{tInt},
		{tBool, tBool},
		{tBytes},
		{tInt, tString},
	}
	for _, seq := range sequences {
		if _, err := r.Get(seq...); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}

	list := r.Signatures()
	if len(list) != len(sequences) {
		t.Fatalf("Signatures returned %d entries, want %d", len(list), len(sequences))
	}
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		key := probe{params: cur.params, hashes: cur.hashes}
		if compareSignature(prev, key) >= 0 {
			t.Errorf("entries %d and %d out of order: %s, %s", i-1, i, prev, cur)
		}
		if prev.Len() > cur.Len() {
			t.Errorf("shorter signatures must sort first: %s before %s", prev, cur)
		}
	}
}

func TestSignatureRegistry_SearchResolvesTiesByIdentity(t *testing.T) {
	r := NewSignatureRegistry(nil)
	key, err := r.probeFor([]reflect.Type{tInt}, nil)
	if err != nil {
		t.Fatalf("probeFor failed: %v", err)
	}
	registered := r.newSignature(key)

	// A different type behind the same hash and the same canonical name
	forged := &Signature{params: []reflect.Type{tBool}, hashes: []uint64{key.hashes[0]}, names: []string{"int"}}
	list := []*Signature{forged, registered}

	if pos, ok := r.search(list, key); !ok || pos != 1 {
		t.Errorf("search(int) = (%d, %v), want (1, true)", pos, ok)
	}

	boolKey := probe{params: []reflect.Type{tBool}, hashes: key.hashes}
	if pos, ok := r.search(list, boolKey); !ok || pos != 0 {
		t.Errorf("search(bool) = (%d, %v), want (0, true)", pos, ok)
	}

	stringKey := probe{params: []reflect.Type{tString}, hashes: key.hashes}
	if pos, ok := r.search(list, stringKey); ok || pos != 2 {
		t.Errorf("search(string) = (%d, %v), want (2, false)", pos, ok)
	}
}

func TestSignatureRegistry_ConcurrentGet(t *testing.T) {
	metrics := &countingMetrics{}
	r := NewSignatureRegistry(metrics)

	types := []reflect.Type{tInt, tString, tBool, tBytes, tError}
	const goroutines = 16

	results := make([][]*Signature, goroutines)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			<-start
			for _, a := range types {
				for _, b := range types {
					sig, err := r.Get(a, b)
					if err != nil {
						t.Errorf("Get failed: %v", err)
						return
					}
					results[g] = append(results[g], sig)
				}
			}
		}(g)
	}
	close(start)
	wg.Wait()

	// Every goroutine saw the same canonical instance for each pair
	for g := 1; g < goroutines; g++ {
		for i := range results[0] {
			if results[g][i] != results[0][i] {
				t.Fatalf("goroutine %d got a different signature for pair %d", g, i)
			}
		}
	}
	if r.Len() != len(types)*len(types) {
		t.Errorf("Len = %d, want %d", r.Len(), len(types)*len(types))
	}
	if metrics.retries.Load() != r.Retries() {
		t.Errorf("metrics saw %d retries, registry counted %d", metrics.retries.Load(), r.Retries())
	}
}

func BenchmarkSignatureRegistry_Find(b *testing.B) {
	r := NewSignatureRegistry(nil)
	_, _ = r.Get(tInt)
	_, _ = r.Get(tInt, tString)
	_, _ = r.Get(tString, tBool, tBytes)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r.Find(tInt, tString)
	}
}
