// hot-reload.go: dynamic configuration with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import (
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotConfig watches a configuration file and applies the tunable settings
// of a running CreatorCache when the file changes.
type HotConfig struct {
	cache   *CreatorCache
	watcher *argus.Watcher
	logger  Logger
	mu      sync.RWMutex
	config  FileConfig

	// OnReload is called after configuration is successfully reloaded.
	// This callback is optional and must be fast and non-blocking.
	OnReload func(oldConfig, newConfig FileConfig)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(oldConfig, newConfig FileConfig)

	// Logger for hot reload operations.
	// If nil, uses the cache's logger.
	Logger Logger
}

// NewHotConfig creates a hot-reloadable configuration for a cache.
//
// Example configuration file (YAML):
//
//	activator:
//	  initial_capacity: 31
//	  negative_cache_ttl: "5s"
//
// Supported configuration keys:
//   - activator.negative_cache_ttl (duration string): applied immediately
//   - activator.initial_capacity (int): applied on the next Reset
func NewHotConfig(cache *CreatorCache, opts HotConfigOptions) (*HotConfig, error) {
	if cache == nil {
		return nil, NewErrInvalidArgument("NewHotConfig", "cache is nil")
	}
	if opts.ConfigPath == "" {
		return nil, NewErrInvalidConfig("ConfigPath", "config path is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	if opts.Logger == nil {
		opts.Logger = cache.Logger()
	}

	hc := &HotConfig{
		cache:    cache,
		logger:   opts.Logger,
		OnReload: opts.OnReload,
		config: FileConfig{
			InitialCapacity:  int(cache.initialCapacity.Load()),
			NegativeCacheTTL: cache.NegativeCacheTTL().String(),
		},
	}

	argusConfig := argus.Config{
		PollInterval: opts.PollInterval,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, NewErrConfigLoadFailed(opts.ConfigPath, err)
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// GetConfig returns the last applied configuration (thread-safe).
func (hc *HotConfig) GetConfig() FileConfig {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.config
}

// handleConfigChange is called by Argus when configuration changes.
func (hc *HotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	oldConfig := hc.config
	newConfig := parseConfigData(oldConfig, configData)
	hc.config = newConfig
	hc.mu.Unlock()

	hc.applyChanges(oldConfig, newConfig)

	if hc.OnReload != nil {
		hc.OnReload(oldConfig, newConfig)
	}
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case int64:
		if v > 0 {
			return int(v), true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a non-negative time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil && d >= 0 {
			return d, true
		}
	}
	return 0, false
}

// parseConfigData extracts the activator section from Argus config data.
// Keys that are missing or invalid keep their current value.
func parseConfigData(current FileConfig, data map[string]interface{}) FileConfig {
	config := current

	section, ok := data["activator"].(map[string]interface{})
	if !ok {
		// Flat files without the activator section
		_, hasCapacity := data["initial_capacity"]
		_, hasTTL := data["negative_cache_ttl"]
		if !hasCapacity && !hasTTL {
			return config
		}
		section = data
	}

	if capacity, ok := parsePositiveInt(section["initial_capacity"]); ok {
		config.InitialCapacity = capacity
	}

	if ttl, ok := parseDuration(section["negative_cache_ttl"]); ok {
		config.NegativeCacheTTL = ttl.String()
	}

	return config
}

// applyChanges pushes changed settings into the running cache.
func (hc *HotConfig) applyChanges(old, new FileConfig) {
	if new.NegativeCacheTTL != old.NegativeCacheTTL {
		if ttl, err := time.ParseDuration(new.NegativeCacheTTL); err == nil {
			hc.cache.SetNegativeCacheTTL(ttl)
			hc.logger.Info("negative cache TTL reloaded", "old", old.NegativeCacheTTL, "new", new.NegativeCacheTTL)
		}
	}

	if new.InitialCapacity != old.InitialCapacity {
		// The live snapshot keeps its size; the next Reset uses the new one.
		hc.cache.SetInitialCapacity(new.InitialCapacity)
		hc.logger.Info("initial capacity reloaded", "old", old.InitialCapacity, "new", new.InitialCapacity)
	}
}
