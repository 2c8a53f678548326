// primes.go: prime sizing for identity tables
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

const (
	// MaxPrimeArrayLength is the largest prime table size. It is the largest
	// prime below the 32-bit array length ceiling, which keeps tables portable
	// across platforms and keeps bucket indices within int32.
	MaxPrimeArrayLength = 0x7FFFFFC3

	// minTableSize is the size allocated by the first insert into a table
	// created with zero capacity.
	minTableSize = 3
)

// smallPrimes seeds trial division and answers small requests directly.
var smallPrimes = [...]int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97, 101, 103, 107, 109, 113, 127, 131, 137, 139, 149, 151,
	157, 163, 167, 173, 179, 181, 191, 193, 197, 199, 211, 223, 227, 229, 233,
}

// IsPrime reports whether n is prime.
func IsPrime(n int) bool {
	if n < 2 {
		return false
	}
	for _, p := range smallPrimes {
		if n == p {
			return true
		}
		if n%p == 0 {
			return false
		}
		if p*p > n {
			return true
		}
	}
	// 6k ± 1 wheel past the seeded primes
	for d := 239; d*d <= n; d += 6 {
		if n%d == 0 || n%(d+2) == 0 {
			return false
		}
	}
	return true
}

// NextPrime returns the smallest prime greater than or equal to n, clamped
// to MaxPrimeArrayLength.
func NextPrime(n int) int {
	if n <= 2 {
		return 2
	}
	if n >= MaxPrimeArrayLength {
		return MaxPrimeArrayLength
	}
	if n%2 == 0 {
		n++
	}
	for ; n < MaxPrimeArrayLength; n += 2 {
		if IsPrime(n) {
			return n
		}
	}
	return MaxPrimeArrayLength
}

// ExpandPrime returns the size a full table of oldSize entries grows to:
// the next prime at or above twice its size, capped at MaxPrimeArrayLength.
func ExpandPrime(oldSize int) int {
	newSize := 2 * oldSize
	if newSize > MaxPrimeArrayLength && MaxPrimeArrayLength > oldSize {
		return MaxPrimeArrayLength
	}
	return NextPrime(newSize)
}
