// Package fastactivator caches construction factories keyed by type and
// constructor signature, for programs that build many instances of types
// chosen at run time.
//
// # Overview
//
// Building a value reflectively means looking up the right constructor,
// checking it against the arguments and calling it. fastactivator does the
// discovery once per type and keeps the result:
//   - IdentityTable: a prime-sized chained hash table keyed by identity
//     (reflect.Type, pointers), with free-list slot reuse and fail-fast
//     enumerators
//   - SignatureRegistry: canonical, process-shared keys for ordered
//     parameter-type sequences
//   - CreatorCache: the two-level type -> signature -> factory cache,
//     populated once per type and published by atomic snapshot swap
//   - ConstructorRegistry: the default FactoryCompiler, built from
//     registered constructor functions
//
// # Quick Start
//
//	type Point struct{ X, Y int }
//
//	func NewPoint(x, y int) *Point { return &Point{X: x, Y: y} }
//
//	func main() {
//	    ctors := fastactivator.NewConstructorRegistry()
//	    ctors.MustRegister(NewPoint)
//
//	    cache, err := fastactivator.NewCreatorCache(fastactivator.Config{
//	        Compiler: ctors,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer cache.Close()
//
//	    // Constructor chosen by the argument types (int, int)
//	    p, err := fastactivator.Create[*Point](cache, 3, 4)
//
//	    // Or keep the factory and call it in a loop
//	    newPoint, err := fastactivator.FactoryFor[*Point](cache,
//	        reflect.TypeFor[int](), reflect.TypeFor[int]())
//	    for i := 0; i < 1000; i++ {
//	        p, _ := newPoint(i, i)
//	        _ = p
//	    }
//	}
//
// # Concurrency
//
// Lookups load one atomic pointer and walk two frozen tables; they never
// lock. The first request for a type takes the population lock, re-checks
// the snapshot, compiles all of the type's constructors in one batch and
// publishes a new snapshot that is a clone of the old one plus that type.
// Readers see a type either not at all or complete.
//
// Population failures are returned to the goroutine that triggered them and
// are not cached unless Config.NegativeCacheTTL is set; the next request
// tries again.
//
// Published snapshots are never mutated. IdentityTable itself is not safe for
// concurrent mutation: build a table privately, Freeze it, then share it.
//
// # Error Handling
//
// All errors carry a code from github.com/agilira/go-errors:
//
//	factory, err := cache.GetFactory(typ, reflect.TypeFor[string]())
//	if fastactivator.IsConstructorNotFound(err) {
//	    // no (string) constructor for typ
//	}
//
// # Configuration
//
// Config is normalized by Validate. Tunables can be loaded from a HuJSON file
// with LoadConfigFile and watched at run time with HotConfig:
//
//	hc, err := fastactivator.NewHotConfig(cache, fastactivator.HotConfigOptions{
//	    ConfigPath: "activator.yaml",
//	})
//	_ = hc.Start()
//	defer hc.Stop()
//
// # Metrics
//
// Set Config.MetricsCollector to receive lookup and population events. The
// otel subpackage provides an OpenTelemetry implementation.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package fastactivator
