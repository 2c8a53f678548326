// benchmark_test.go: factory lookup benchmarks against general-purpose caches
//
// The creator cache is compared with otter, ristretto and sync.Map used as
// (type, signature) -> factory stores. The general-purpose caches get
// precomputed string keys, so they do not pay for key construction.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package benchmarks

import (
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/agilira/fastactivator"
	ristretto "github.com/dgraph-io/ristretto/v2"
	"github.com/maypok86/otter/v2"
)

// Benchmark configuration
const (
	smallTypeSpace  = 16
	mediumTypeSpace = 256
	largeTypeSpace  = 2_048
)

var (
	intType    = reflect.TypeFor[int]()
	stringType = reflect.TypeFor[string]()
)

// =============================================================================
// ZIPF DISTRIBUTION GENERATOR
// =============================================================================

// ZipfGenerator generates indices following Zipf distribution: a few types
// are requested far more often than the rest.
type ZipfGenerator struct {
	zipf *rand.Zipf
	max  uint64
}

// NewZipfGenerator creates a new Zipf distribution generator
func NewZipfGenerator(s, v float64, imax uint64) *ZipfGenerator {
	if imax < 1 {
		imax = 1
	}
	if s <= 1.0 {
		s = 1.01
	}
	if v < 1.0 {
		v = 1.0
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 - benchmark workload
	zipf := rand.NewZipf(r, s, v, imax)
	if zipf == nil {
		panic(fmt.Sprintf("failed to create Zipf generator: s=%f, v=%f, imax=%d", s, v, imax))
	}
	return &ZipfGenerator{zipf: zipf, max: imax}
}

// Next returns the next index in the Zipf distribution
func (z *ZipfGenerator) Next() int {
	return int(z.zipf.Uint64()) // #nosec G115 - bounded by imax
}

// =============================================================================
// WORKLOAD
// =============================================================================

// request is one (type, signature) lookup.
type request struct {
	typ    reflect.Type
	params []reflect.Type
	key    string
}

// workload builds typeSpace distinct types, each with (), (int) and
// (int, string) constructors, and the requests that address them.
type workload struct {
	ctors    *fastactivator.ConstructorRegistry
	requests []request
}

func newWorkload(typeSpace int) *workload {
	w := &workload{ctors: fastactivator.NewConstructorRegistry()}
	signatures := [][]reflect.Type{
		{},
		{intType},
		{intType, stringType},
	}

	for i := 0; i < typeSpace; i++ {
		// [1]int, [2]int, ... are distinct types without declaring any
		typ := reflect.ArrayOf(i+1, intType)
		for _, params := range signatures[1:] {
			if err := w.ctors.RegisterFactory(typ, params, func(args ...any) (any, error) {
				return reflect.New(typ).Elem().Interface(), nil
			}); err != nil {
				panic(err)
			}
		}
		for _, params := range signatures {
			w.requests = append(w.requests, request{
				typ:    typ,
				params: params,
				key:    typ.String() + fmt.Sprint(params),
			})
		}
	}
	return w
}

// =============================================================================
// STORE WRAPPERS FOR UNIFORM INTERFACE
// =============================================================================

// FactoryStore provides a uniform interface for all stores
type FactoryStore interface {
	Get(r request) (fastactivator.Factory, bool)
	Name() string
	Close()
}

// newStore creates a store and fills it with every factory of w.
type newStore func(w *workload) FactoryStore

// CreatorStore wraps a fastactivator.CreatorCache
type CreatorStore struct {
	cache *fastactivator.CreatorCache
}

func NewCreatorStore(w *workload) FactoryStore {
	cache, err := fastactivator.NewCreatorCache(fastactivator.Config{Compiler: w.ctors})
	if err != nil {
		panic(err)
	}
	for _, r := range w.requests {
		if err := cache.EnsurePopulated(r.typ); err != nil {
			panic(err)
		}
	}
	return &CreatorStore{cache: cache}
}

func (s *CreatorStore) Get(r request) (fastactivator.Factory, bool) {
	return s.cache.Lookup(r.typ, r.params...)
}

func (s *CreatorStore) Name() string { return "fastactivator" }

func (s *CreatorStore) Close() { _ = s.cache.Close() }

// OtterStore wraps an otter cache keyed by precomputed strings
type OtterStore struct {
	cache *otter.Cache[string, fastactivator.Factory]
}

func NewOtterStore(w *workload) FactoryStore {
	cache := otter.Must(&otter.Options[string, fastactivator.Factory]{
		MaximumSize: len(w.requests) * 2,
	})
	for _, r := range w.requests {
		factory, _, err := w.ctors.Compile(r.typ, r.params)
		if err != nil {
			panic(err)
		}
		cache.Set(r.key, factory)
	}
	return &OtterStore{cache: cache}
}

func (s *OtterStore) Get(r request) (fastactivator.Factory, bool) {
	return s.cache.GetIfPresent(r.key)
}

func (s *OtterStore) Name() string { return "Otter" }

func (s *OtterStore) Close() {
	// Otter v2 Close is handled automatically
}

// RistrettoStore wraps a ristretto cache keyed by precomputed strings
type RistrettoStore struct {
	cache *ristretto.Cache[string, fastactivator.Factory]
}

func NewRistrettoStore(w *workload) FactoryStore {
	size := int64(len(w.requests) * 2)
	cache, err := ristretto.NewCache(&ristretto.Config[string, fastactivator.Factory]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		panic(err)
	}
	for _, r := range w.requests {
		factory, _, err := w.ctors.Compile(r.typ, r.params)
		if err != nil {
			panic(err)
		}
		// Set drops writes when its buffers are contended
		for !cache.Set(r.key, factory, 1) {
		}
	}
	cache.Wait()
	return &RistrettoStore{cache: cache}
}

func (s *RistrettoStore) Get(r request) (fastactivator.Factory, bool) {
	return s.cache.Get(r.key)
}

func (s *RistrettoStore) Name() string { return "Ristretto" }

func (s *RistrettoStore) Close() { s.cache.Close() }

// SyncMapStore is the standard library baseline
type SyncMapStore struct {
	m sync.Map
}

func NewSyncMapStore(w *workload) FactoryStore {
	s := &SyncMapStore{}
	for _, r := range w.requests {
		factory, _, err := w.ctors.Compile(r.typ, r.params)
		if err != nil {
			panic(err)
		}
		s.m.Store(r.key, factory)
	}
	return s
}

func (s *SyncMapStore) Get(r request) (fastactivator.Factory, bool) {
	v, ok := s.m.Load(r.key)
	if !ok {
		return nil, false
	}
	return v.(fastactivator.Factory), true
}

func (s *SyncMapStore) Name() string { return "sync.Map" }

func (s *SyncMapStore) Close() {}

// =============================================================================
// BENCHMARK HELPERS
// =============================================================================

func benchmarkLookup(b *testing.B, create newStore, typeSpace int, parallel bool) {
	w := newWorkload(typeSpace)
	s := create(w)
	defer s.Close()

	b.ResetTimer()
	b.ReportAllocs()

	if parallel {
		b.RunParallel(func(pb *testing.PB) {
			zipf := NewZipfGenerator(1.0, 1.0, uint64(len(w.requests)-1))
			for pb.Next() {
				s.Get(w.requests[zipf.Next()])
			}
		})
		return
	}

	zipf := NewZipfGenerator(1.0, 1.0, uint64(len(w.requests)-1))
	for i := 0; i < b.N; i++ {
		s.Get(w.requests[zipf.Next()])
	}
}

var stores = []struct {
	name   string
	create newStore
}{
	{"fastactivator", NewCreatorStore},
	{"Otter", NewOtterStore},
	{"Ristretto", NewRistrettoStore},
	{"SyncMap", NewSyncMapStore},
}

// =============================================================================
// LOOKUP BENCHMARKS
// =============================================================================

func BenchmarkLookup_SingleThread(b *testing.B) {
	for _, st := range stores {
		b.Run(st.name, func(b *testing.B) {
			benchmarkLookup(b, st.create, mediumTypeSpace, false)
		})
	}
}

func BenchmarkLookup_Parallel(b *testing.B) {
	for _, st := range stores {
		b.Run(st.name, func(b *testing.B) {
			benchmarkLookup(b, st.create, mediumTypeSpace, true)
		})
	}
}

func BenchmarkLookup_TypeSpace(b *testing.B) {
	for _, size := range []int{smallTypeSpace, mediumTypeSpace, largeTypeSpace} {
		for _, st := range stores {
			b.Run(fmt.Sprintf("%s/%d", st.name, size), func(b *testing.B) {
				benchmarkLookup(b, st.create, size, true)
			})
		}
	}
}

// =============================================================================
// POPULATION BENCHMARKS
// =============================================================================

// BenchmarkPopulation measures cold population of a whole type space: every
// type is compiled and published once, each publication cloning the snapshot.
func BenchmarkPopulation(b *testing.B) {
	for _, size := range []int{smallTypeSpace, mediumTypeSpace} {
		b.Run(fmt.Sprint(size), func(b *testing.B) {
			w := newWorkload(size)
			cache, err := fastactivator.NewCreatorCache(fastactivator.Config{Compiler: w.ctors})
			if err != nil {
				b.Fatal(err)
			}
			defer func() { _ = cache.Close() }()

			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = cache.Reset()
				for j := 0; j < len(w.requests); j += 3 {
					if err := cache.EnsurePopulated(w.requests[j].typ); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}

// TestStoresAgree makes sure every store answers every request.
func TestStoresAgree(t *testing.T) {
	w := newWorkload(smallTypeSpace)
	for _, st := range stores {
		s := st.create(w)
		for _, r := range w.requests {
			factory, ok := s.Get(r)
			if !ok || factory == nil {
				t.Errorf("%s: missing factory for %v%v", s.Name(), r.typ, r.params)
			}
		}
		s.Close()
	}
}
