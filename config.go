// config.go: configuration for fastactivator
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import (
	"encoding/json"
	"os"
	"time"

	"github.com/agilira/go-timecache"
	"github.com/tailscale/hujson"
)

// Config holds configuration parameters for a CreatorCache.
type Config struct {
	// InitialCapacity is the initial capacity of the type table.
	// Default: DefaultInitialCapacity.
	InitialCapacity int

	// Compiler synthesizes factories for newly requested types. Required.
	Compiler FactoryCompiler

	// Signatures is the registry that canonicalizes parameter sequences.
	// Share one registry between caches to share signature keys.
	// If nil, the cache creates its own.
	Signatures *SignatureRegistry

	// NegativeCacheTTL is how long a failed population is remembered.
	// While remembered, requests for the type return the cached error
	// without calling the compiler again.
	// If 0, failures are not cached and every request retries (default).
	NegativeCacheTTL time.Duration

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used. Default: NoOpLogger.
	Logger Logger

	// TimeProvider provides current time for latency and negative caching.
	// If nil, a default implementation is used. Default: cached system time.
	TimeProvider TimeProvider

	// MetricsCollector receives lookup and population events.
	// If nil, NoOpMetricsCollector is used (zero overhead).
	MetricsCollector MetricsCollector
}

// Validate checks configuration parameters and applies sensible defaults.
//
// Default values applied:
//   - InitialCapacity: DefaultInitialCapacity if <= 0
//   - NegativeCacheTTL: 0 if negative
//   - Logger: NoOpLogger{} if nil
//   - TimeProvider: systemTimeProvider{} if nil
//   - MetricsCollector: NoOpMetricsCollector{} if nil
//   - Signatures: a new registry if nil
//
// Returns an error only when Compiler is nil.
func (c *Config) Validate() error {
	if c.InitialCapacity <= 0 {
		c.InitialCapacity = DefaultInitialCapacity
	}

	if c.NegativeCacheTTL < 0 {
		c.NegativeCacheTTL = 0
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	if c.Signatures == nil {
		c.Signatures = NewSignatureRegistry(c.MetricsCollector)
	}

	if c.Compiler == nil {
		return NewErrInvalidConfig("Compiler", "a factory compiler is required")
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
// Compiler must still be set before use.
func DefaultConfig() Config {
	return Config{
		InitialCapacity:  DefaultInitialCapacity,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default time provider using go-timecache.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}

// FileConfig is the on-disk form of the tunable Config fields.
//
// Example (HuJSON, comments and trailing commas allowed):
//
//	{
//	  "activator": {
//	    // types are few; start small
//	    "initial_capacity": 31,
//	    "negative_cache_ttl": "5s",
//	  },
//	}
type FileConfig struct {
	InitialCapacity  int    `json:"initial_capacity,omitempty"`
	NegativeCacheTTL string `json:"negative_cache_ttl,omitempty"`
}

type fileConfigDocument struct {
	Activator FileConfig `json:"activator"`
}

// LoadConfigFile reads a HuJSON config file.
func LoadConfigFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is supplied by the operator
	if err != nil {
		return FileConfig{}, NewErrConfigLoadFailed(path, err)
	}
	return ParseConfig(path, data)
}

// ParseConfig parses HuJSON config data. name is used in error context only.
func ParseConfig(name string, data []byte) (FileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return FileConfig{}, NewErrConfigLoadFailed(name, err)
	}

	var doc fileConfigDocument
	if err := json.Unmarshal(standardized, &doc); err != nil {
		return FileConfig{}, NewErrConfigLoadFailed(name, err)
	}

	if doc.Activator.InitialCapacity < 0 {
		return FileConfig{}, NewErrInvalidConfig("initial_capacity", "must be non-negative")
	}
	if doc.Activator.NegativeCacheTTL != "" {
		ttl, err := time.ParseDuration(doc.Activator.NegativeCacheTTL)
		if err != nil {
			return FileConfig{}, NewErrInvalidConfig("negative_cache_ttl", err.Error())
		}
		if ttl < 0 {
			return FileConfig{}, NewErrInvalidConfig("negative_cache_ttl", "must be non-negative")
		}
	}
	return doc.Activator, nil
}

// Apply copies the fields set in f onto cfg.
func (f FileConfig) Apply(cfg *Config) {
	if f.InitialCapacity > 0 {
		cfg.InitialCapacity = f.InitialCapacity
	}
	if f.NegativeCacheTTL != "" {
		if ttl, err := time.ParseDuration(f.NegativeCacheTTL); err == nil && ttl >= 0 {
			cfg.NegativeCacheTTL = ttl
		}
	}
}
