// creator_cache.go: two-level factory cache with snapshot publication
//
// The cache maps type -> signature -> factory. The whole two-level structure
// is an immutable snapshot behind an atomic pointer:
//
//   - readers load the pointer and walk two frozen identity tables, no locks;
//   - on a type miss one writer at a time takes the population lock,
//     re-checks the current snapshot, compiles every constructor of the type
//     into a private table, clones the outer table, adds the type, freezes
//     both and stores the new snapshot.
//
// A reader therefore sees a type either not at all or with all of its
// factories, never a table under construction.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// factoryTable holds the factories of one type, keyed by signature.
type factoryTable = IdentityTable[*Signature, Factory]

// snapshot is one published version of the cache.
type snapshot = IdentityTable[reflect.Type, *factoryTable]

// populationFailure is a remembered compiler failure (negative caching).
type populationFailure struct {
	err      error
	expireAt int64
}

// CreatorCache hands out factories by (type, parameter types).
// It is safe for concurrent use; lookups never block.
type CreatorCache struct {
	current atomic.Pointer[snapshot]

	// mu serializes population, Reset and Close. Readers never take it.
	mu     sync.Mutex
	closed atomic.Bool

	compiler     FactoryCompiler
	signatures   *SignatureRegistry
	logger       Logger
	timeProvider TimeProvider
	metrics      MetricsCollector

	initialCapacity  atomic.Int64
	negativeTTLNanos atomic.Int64
	failures         sync.Map // reflect.Type -> populationFailure

	hits               atomic.Uint64
	misses             atomic.Uint64
	populations        atomic.Uint64
	populationFailures atomic.Uint64
}

// NewCreatorCache creates an empty cache. cfg.Compiler is required.
func NewCreatorCache(cfg Config) (*CreatorCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &CreatorCache{
		compiler:     cfg.Compiler,
		signatures:   cfg.Signatures,
		logger:       cfg.Logger,
		timeProvider: cfg.TimeProvider,
		metrics:      cfg.MetricsCollector,
	}
	c.initialCapacity.Store(int64(cfg.InitialCapacity))
	c.negativeTTLNanos.Store(int64(cfg.NegativeCacheTTL))

	empty, err := c.newSnapshot()
	if err != nil {
		return nil, err
	}
	c.current.Store(empty)

	return c, nil
}

func (c *CreatorCache) newSnapshot() (*snapshot, error) {
	s, err := NewIdentityTable[reflect.Type, *factoryTable](
		int(c.initialCapacity.Load()),
		WithValueEqual[reflect.Type](func(a, b *factoryTable) bool { return a == b }),
	)
	if err != nil {
		return nil, err
	}
	s.Freeze()
	return s, nil
}

// Lookup returns the factory for typ taking params from the current snapshot.
// It never populates: a type that has not been populated yet is a miss.
func (c *CreatorCache) Lookup(typ reflect.Type, params ...reflect.Type) (Factory, bool) {
	factory, ok := c.lookup(c.current.Load(), typ, params)
	c.recordLookup(ok)
	return factory, ok
}

func (c *CreatorCache) lookup(snap *snapshot, typ reflect.Type, params []reflect.Type) (Factory, bool) {
	if typ == nil {
		return nil, false
	}
	factories, ok := snap.TryGetValue(typ)
	if !ok {
		return nil, false
	}
	// Every signature a populated type uses was registered during population,
	// so an unknown sequence cannot have a factory.
	sig, ok := c.signatures.Find(params...)
	if !ok {
		return nil, false
	}
	return factories.TryGetValue(sig)
}

func (c *CreatorCache) recordLookup(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	c.metrics.RecordLookup(hit)
}

// EnsurePopulated compiles and publishes every constructor of typ unless it
// is already cached. It is idempotent.
func (c *CreatorCache) EnsurePopulated(typ reflect.Type) error {
	if typ == nil {
		return NewErrInvalidArgument("EnsurePopulated", "type is nil")
	}
	_, err := c.factoriesOf(typ)
	return err
}

// factoriesOf returns the published factory table of typ, populating it on a miss.
func (c *CreatorCache) factoriesOf(typ reflect.Type) (*factoryTable, error) {
	if factories, ok := c.current.Load().TryGetValue(typ); ok {
		return factories, nil
	}
	return c.populate(typ)
}

func (c *CreatorCache) populate(typ reflect.Type) (*factoryTable, error) {
	if c.closed.Load() {
		return nil, NewErrCacheClosed("EnsurePopulated")
	}
	if err := c.cachedFailure(typ); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil, NewErrCacheClosed("EnsurePopulated")
	}

	// Another goroutine may have published typ while we waited.
	snap := c.current.Load()
	if factories, ok := snap.TryGetValue(typ); ok {
		return factories, nil
	}
	if err := c.cachedFailure(typ); err != nil {
		return nil, err
	}

	start := c.timeProvider.Now()
	factories, err := c.compileType(typ)
	if err != nil {
		c.populationFailures.Add(1)
		c.metrics.RecordPopulationFailure()
		c.rememberFailure(typ, err)
		c.logger.Warn("population failed", "type", typ.String(), "error", err.Error())
		return nil, err
	}

	next := snap.Clone()
	if _, err := next.Insert(typ, factories, InsertThrowOnDuplicate); err != nil {
		return nil, err
	}
	next.Freeze()
	c.current.Store(next)

	c.failures.Delete(typ)
	c.populations.Add(1)
	c.metrics.RecordPopulation(c.timeProvider.Now()-start, factories.Count())
	c.logger.Debug("type populated", "type", typ.String(), "factories", factories.Count())

	return factories, nil
}

// compileType builds the frozen factory table of typ in one pass over its
// constructors.
func (c *CreatorCache) compileType(typ reflect.Type) (factories *factoryTable, err error) {
	defer func() {
		if r := recover(); r != nil {
			factories, err = nil, NewErrPanicRecovered("EnsurePopulated", r)
		}
	}()

	sigs, err := c.compiler.Signatures(typ)
	if err != nil {
		return nil, NewErrCompileFailed(typ, err)
	}

	factories, err = NewIdentityTable[*Signature, Factory](len(sigs),
		WithValueEqual[*Signature](sameFactory))
	if err != nil {
		return nil, err
	}

	for _, params := range sigs {
		sig, err := c.signatures.Get(params...)
		if err != nil {
			return nil, NewErrCompileFailed(typ, err)
		}

		factory, found, err := c.compiler.Compile(typ, params)
		if err != nil {
			return nil, NewErrCompileFailed(typ, err)
		}
		if !found || factory == nil {
			c.logger.Debug("constructor not compiled", "type", typ.String(), "signature", sig.String())
			continue
		}

		if _, err := factories.Insert(sig, factory, InsertNone); err != nil {
			return nil, err
		}
	}

	factories.Freeze()
	return factories, nil
}

// sameFactory compares factories by code pointer.
func sameFactory(a, b Factory) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func (c *CreatorCache) cachedFailure(typ reflect.Type) error {
	if c.negativeTTLNanos.Load() <= 0 {
		return nil
	}
	v, ok := c.failures.Load(typ)
	if !ok {
		return nil
	}
	failure := v.(populationFailure)
	if c.timeProvider.Now() <= failure.expireAt {
		return failure.err
	}
	c.failures.Delete(typ)
	return nil
}

func (c *CreatorCache) rememberFailure(typ reflect.Type, err error) {
	ttl := c.negativeTTLNanos.Load()
	if ttl <= 0 {
		return
	}
	c.failures.Store(typ, populationFailure{
		err:      err,
		expireAt: c.timeProvider.Now() + ttl,
	})
}

// GetFactory returns the factory for typ taking params, populating typ first
// if needed. A missing constructor is a ConstructorNotFound error.
func (c *CreatorCache) GetFactory(typ reflect.Type, params ...reflect.Type) (Factory, error) {
	if typ == nil {
		return nil, NewErrInvalidArgument("GetFactory", "type is nil")
	}
	for i, p := range params {
		if p == nil {
			return nil, NewErrInvalidArgument("GetFactory", fmt.Sprintf("parameter %d is nil", i))
		}
	}

	factories, err := c.factoriesOf(typ)
	if err != nil {
		return nil, err
	}

	var factory Factory
	sig, ok := c.signatures.Find(params...)
	if ok {
		factory, ok = factories.TryGetValue(sig)
	}
	c.recordLookup(ok)
	if !ok {
		return nil, NewErrConstructorNotFound(typ, signatureString(params))
	}
	return factory, nil
}

// CreateInstance builds a typ from args. The constructor is selected by the
// dynamic types of args, so nil arguments are rejected; use GetFactory with
// explicit parameter types to pass nil.
func (c *CreatorCache) CreateInstance(typ reflect.Type, args ...any) (any, error) {
	var buf [8]reflect.Type
	params := buf[:0]
	for i, arg := range args {
		if arg == nil {
			return nil, NewErrInvalidArgument("CreateInstance",
				fmt.Sprintf("argument %d is nil and has no type", i))
		}
		params = append(params, reflect.TypeOf(arg))
	}

	factory, err := c.GetFactory(typ, params...)
	if err != nil {
		return nil, err
	}
	return factory(args...)
}

// Create builds a T from args. It is the typed form of CreateInstance.
func Create[T any](c *CreatorCache, args ...any) (T, error) {
	typ := reflect.TypeFor[T]()
	v, err := c.CreateInstance(typ, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return asInstance[T](typ, v)
}

// FactoryFor returns a typed factory for T taking params.
func FactoryFor[T any](c *CreatorCache, params ...reflect.Type) (func(args ...any) (T, error), error) {
	typ := reflect.TypeFor[T]()
	factory, err := c.GetFactory(typ, params...)
	if err != nil {
		return nil, err
	}
	return func(args ...any) (T, error) {
		v, err := factory(args...)
		if err != nil {
			var zero T
			return zero, err
		}
		return asInstance[T](typ, v)
	}, nil
}

func asInstance[T any](typ reflect.Type, v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	instance, ok := v.(T)
	if !ok {
		return zero, NewErrInvalidConstructor(v, fmt.Sprintf("factory returned %T, want %s", v, typ))
	}
	return instance, nil
}

// Types returns the types in the current snapshot.
func (c *CreatorCache) Types() []reflect.Type {
	return c.current.Load().Keys().ToSlice()
}

// Signatures returns the signatures cached for typ, or nil if typ has not
// been populated.
func (c *CreatorCache) Signatures(typ reflect.Type) []*Signature {
	if typ == nil {
		return nil
	}
	factories, ok := c.current.Load().TryGetValue(typ)
	if !ok {
		return nil
	}
	return factories.Keys().ToSlice()
}

// SignatureRegistry returns the registry used to canonicalize parameter types.
func (c *CreatorCache) SignatureRegistry() *SignatureRegistry {
	return c.signatures
}

// Logger returns the cache's logger.
func (c *CreatorCache) Logger() Logger {
	return c.logger
}

// SetNegativeCacheTTL changes how long population failures are remembered.
// Zero disables negative caching and forgets remembered failures.
func (c *CreatorCache) SetNegativeCacheTTL(ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}
	c.negativeTTLNanos.Store(int64(ttl))
	if ttl == 0 {
		c.failures.Clear()
	}
}

// NegativeCacheTTL returns the current negative caching TTL.
func (c *CreatorCache) NegativeCacheTTL() time.Duration {
	return time.Duration(c.negativeTTLNanos.Load())
}

// SetInitialCapacity changes the capacity of the type table created by the
// next Reset. Non-positive values restore DefaultInitialCapacity.
func (c *CreatorCache) SetInitialCapacity(capacity int) {
	if capacity <= 0 {
		capacity = DefaultInitialCapacity
	}
	c.initialCapacity.Store(int64(capacity))
}

// Stats returns cache statistics.
func (c *CreatorCache) Stats() CacheStats {
	snap := c.current.Load()
	factories := 0
	for _, table := range snap.All() {
		factories += table.Count()
	}

	return CacheStats{
		Hits:               c.hits.Load(),
		Misses:             c.misses.Load(),
		Populations:        c.populations.Load(),
		PopulationFailures: c.populationFailures.Load(),
		Types:              snap.Count(),
		Factories:          factories,
		Signatures:         c.signatures.Len(),
		SignatureRetries:   c.signatures.Retries(),
	}
}

// Reset publishes an empty snapshot. Readers holding the previous snapshot
// keep using it; types are populated again on their next request.
// Signatures are kept, the registry only grows.
func (c *CreatorCache) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetLocked()
}

func (c *CreatorCache) resetLocked() error {
	empty, err := c.newSnapshot()
	if err != nil {
		return err
	}
	c.current.Store(empty)
	c.failures.Clear()
	c.logger.Debug("creator cache reset")
	return nil
}

// Close drops every cached factory. Afterwards lookups miss and population
// fails with CacheClosed. Close is idempotent.
func (c *CreatorCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Swap(true) {
		return nil
	}
	return c.resetLocked()
}
