// Package otel provides OpenTelemetry integration for fastactivator metrics.
//
// # Overview
//
// This package implements the fastactivator.MetricsCollector interface using
// OpenTelemetry, so creator cache activity can be exported to Prometheus or any
// other OTEL-compatible backend.
//
// The package is a separate module to keep the fastactivator core lightweight.
// Applications that don't need metrics collection don't pay for the OTEL dependencies.
//
// # Installation
//
//	go get github.com/agilira/fastactivator/otel
//
// # Quick Start
//
//	import (
//	    "github.com/agilira/fastactivator"
//	    faotel "github.com/agilira/fastactivator/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, _ := faotel.NewOTelMetricsCollector(provider)
//
//	cache, _ := fastactivator.NewCreatorCache(fastactivator.Config{
//	    Compiler:         ctors,
//	    MetricsCollector: collector,
//	})
//
// # Metrics Exposed
//
//   - fastactivator_lookup_hits_total: factory lookups that found a factory
//   - fastactivator_lookup_misses_total: factory lookups that found none
//   - fastactivator_population_latency_ns: histogram of per-type population latency
//   - fastactivator_factories_compiled_total: factories published by populations
//   - fastactivator_population_failures_total: failed population attempts
//   - fastactivator_signature_retries_total: lost publication races in the signature registry
//
// Population latency is the interesting histogram: it is paid once per type,
// under the population lock, so a slow compiler shows up there first.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel
