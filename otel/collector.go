// collector.go: OpenTelemetry implementation of fastactivator.MetricsCollector
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package otel

import (
	"context"
	"errors"

	"github.com/agilira/fastactivator"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements fastactivator.MetricsCollector using OpenTelemetry.
//
// Thread-safety: Safe for concurrent use by multiple goroutines.
// The underlying OTEL instruments are thread-safe and lock-free.
type OTelMetricsCollector struct {
	hits               metric.Int64Counter   // lookups that found a factory
	misses             metric.Int64Counter   // lookups that found none
	populationLatency  metric.Int64Histogram // per-type population latency
	factoriesCompiled  metric.Int64Counter   // factories published by populations
	populationFailures metric.Int64Counter
	signatureRetries   metric.Int64Counter
}

// Options for configuring OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/fastactivator"
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name.
// Useful to tell apart several caches sharing one provider.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates a new OpenTelemetry metrics collector.
//
// Returns an error if provider is nil or if an instrument cannot be created.
//
// Example:
//
//	reader := metric.NewManualReader()
//	provider := metric.NewMeterProvider(metric.WithReader(reader))
//	collector, err := NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{
		MeterName: "github.com/agilira/fastactivator",
	}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	collector := &OTelMetricsCollector{}

	var err error
	collector.hits, err = meter.Int64Counter(
		"fastactivator_lookup_hits_total",
		metric.WithDescription("Total number of factory lookups that found a factory"),
	)
	if err != nil {
		return nil, err
	}

	collector.misses, err = meter.Int64Counter(
		"fastactivator_lookup_misses_total",
		metric.WithDescription("Total number of factory lookups that found no factory"),
	)
	if err != nil {
		return nil, err
	}

	collector.populationLatency, err = meter.Int64Histogram(
		"fastactivator_population_latency_ns",
		metric.WithDescription("Latency of type population (compile and publish) in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.factoriesCompiled, err = meter.Int64Counter(
		"fastactivator_factories_compiled_total",
		metric.WithDescription("Total number of factories published by type populations"),
	)
	if err != nil {
		return nil, err
	}

	collector.populationFailures, err = meter.Int64Counter(
		"fastactivator_population_failures_total",
		metric.WithDescription("Total number of failed type populations"),
	)
	if err != nil {
		return nil, err
	}

	collector.signatureRetries, err = meter.Int64Counter(
		"fastactivator_signature_retries_total",
		metric.WithDescription("Total number of lost publication races in the signature registry"),
	)
	if err != nil {
		return nil, err
	}

	return collector, nil
}

// RecordLookup increments the hit or miss counter.
func (c *OTelMetricsCollector) RecordLookup(hit bool) {
	if hit {
		c.hits.Add(context.Background(), 1)
	} else {
		c.misses.Add(context.Background(), 1)
	}
}

// RecordPopulation records the latency of one population and the number of
// factories it published.
func (c *OTelMetricsCollector) RecordPopulation(latencyNs int64, factories int) {
	ctx := context.Background()
	c.populationLatency.Record(ctx, latencyNs)
	c.factoriesCompiled.Add(ctx, int64(factories))
}

// RecordPopulationFailure increments the population failures counter.
func (c *OTelMetricsCollector) RecordPopulationFailure() {
	c.populationFailures.Add(context.Background(), 1)
}

// RecordSignatureRetry increments the signature retries counter.
func (c *OTelMetricsCollector) RecordSignatureRetry() {
	c.signatureRetries.Add(context.Background(), 1)
}

// Compile-time interface check
var _ fastactivator.MetricsCollector = (*OTelMetricsCollector)(nil)
