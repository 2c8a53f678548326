// fastactivator.go: library version and package-wide defaults
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

const (
	// Version of the fastactivator library
	Version = "v0.1.0-dev"

	// DefaultInitialCapacity is the default capacity of the per-cache type table.
	// Prime, so it is used as-is.
	DefaultInitialCapacity = 17
)
