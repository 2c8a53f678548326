// interfaces.go: public interfaces for fastactivator
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import "reflect"

// Factory builds one instance from arguments matching a specific signature.
// Factories returned by a CreatorCache are safe for concurrent use.
type Factory func(args ...any) (any, error)

// FactoryCompiler synthesizes factories from a type's constructors.
// The creator cache calls Signatures once per type and then Compile for each
// returned signature, all while holding its population lock.
// Implementations must be safe for concurrent use.
type FactoryCompiler interface {
	// Signatures lists the parameter-type sequences of every constructor
	// available for typ.
	Signatures(typ reflect.Type) ([][]reflect.Type, error)

	// Compile returns a factory for the constructor of typ taking params.
	// found is false when typ has no such constructor; that is not an error.
	Compile(typ reflect.Type, params []reflect.Type) (factory Factory, found bool, err error)
}

// CacheStats provides statistics about creator cache activity.
type CacheStats struct {
	// Hits is the number of lookups that returned a factory
	Hits uint64

	// Misses is the number of lookups that found no factory
	Misses uint64

	// Populations is the number of types compiled and published
	Populations uint64

	// PopulationFailures is the number of population attempts that failed
	PopulationFailures uint64

	// Types is the number of types in the current snapshot
	Types int

	// Factories is the number of factories in the current snapshot
	Factories int

	// Signatures is the number of distinct non-empty signatures known to the registry
	Signatures int

	// SignatureRetries is the number of lost publication races in the signature registry
	SignatureRetries int64
}

// HitRatio returns the lookup hit ratio as a percentage (0-100).
// Returns 0.0 if no lookups have been performed yet.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Logger defines a minimal logging interface with zero overhead.
// Implementations should use structured logging and be allocation-free.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as default to avoid nil checks.
type NoOpLogger struct{}

// Debug does nothing (no-op implementation).
func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}

// Info does nothing (no-op implementation).
func (NoOpLogger) Info(msg string, keyvals ...interface{}) {}

// Warn does nothing (no-op implementation).
func (NoOpLogger) Warn(msg string, keyvals ...interface{}) {}

// Error does nothing (no-op implementation).
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider provides current time with caching for performance.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since epoch.
	// This method must be very fast and allocation-free.
	Now() int64
}

// MetricsCollector receives creator cache events.
// All methods must be safe for concurrent use and should be allocation-free;
// RecordLookup sits on the read path.
type MetricsCollector interface {
	// RecordLookup records a factory lookup and whether it hit.
	RecordLookup(hit bool)

	// RecordPopulation records a published population of one type.
	// latencyNs covers compilation and publication; factories is the
	// number of factories compiled for the type.
	RecordPopulation(latencyNs int64, factories int)

	// RecordPopulationFailure records a population attempt that failed.
	RecordPopulationFailure()

	// RecordSignatureRetry records a lost compare-and-swap in the signature registry.
	RecordSignatureRetry()
}

// NoOpMetricsCollector is a metrics collector that does nothing.
type NoOpMetricsCollector struct{}

// RecordLookup does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordLookup(hit bool) {}

// RecordPopulation does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordPopulation(latencyNs int64, factories int) {}

// RecordPopulationFailure does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordPopulationFailure() {}

// RecordSignatureRetry does nothing. Inlined by compiler.
func (NoOpMetricsCollector) RecordSignatureRetry() {}
