// errors.go: structured errors for fastactivator operations
//
// Every failure raised by the identity table, the signature registry, the
// creator cache and the constructor registry carries an error code from the
// go-errors library, so callers can branch on the code rather than on text.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package fastactivator

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for fastactivator operations
const (
	// Argument and table errors
	ErrCodeInvalidArgument        errors.ErrorCode = "FASTACTIVATOR_INVALID_ARGUMENT"
	ErrCodeDuplicateKey           errors.ErrorCode = "FASTACTIVATOR_DUPLICATE_KEY"
	ErrCodeKeyNotFound            errors.ErrorCode = "FASTACTIVATOR_KEY_NOT_FOUND"
	ErrCodeConcurrentModification errors.ErrorCode = "FASTACTIVATOR_CONCURRENT_MODIFICATION"
	ErrCodeReadOnly               errors.ErrorCode = "FASTACTIVATOR_READ_ONLY"

	// Construction errors
	ErrCodeConstructorNotFound errors.ErrorCode = "FASTACTIVATOR_CONSTRUCTOR_NOT_FOUND"
	ErrCodeArgumentMismatch    errors.ErrorCode = "FASTACTIVATOR_ARGUMENT_MISMATCH"
	ErrCodeInvalidConstructor  errors.ErrorCode = "FASTACTIVATOR_INVALID_CONSTRUCTOR"
	ErrCodeCompileFailed       errors.ErrorCode = "FASTACTIVATOR_COMPILE_FAILED"
	ErrCodeCacheClosed         errors.ErrorCode = "FASTACTIVATOR_CACHE_CLOSED"

	// Configuration errors
	ErrCodeInvalidConfig    errors.ErrorCode = "FASTACTIVATOR_INVALID_CONFIG"
	ErrCodeConfigLoadFailed errors.ErrorCode = "FASTACTIVATOR_CONFIG_LOAD_FAILED"

	// Internal errors
	ErrCodePanicRecovered errors.ErrorCode = "FASTACTIVATOR_PANIC_RECOVERED"
)

// Common error messages
const (
	msgInvalidArgument        = "invalid argument"
	msgNilKey                 = "key cannot be nil"
	msgDuplicateKey           = "an entry with the same key already exists"
	msgKeyNotFound            = "key not found"
	msgConcurrentModification = "collection was modified during enumeration"
	msgChainOverrun           = "bucket chain longer than the table: concurrent modification or corruption"
	msgReadOnly               = "collection is read-only"
	msgConstructorNotFound    = "no constructor matches the requested signature for this type"
	msgArgumentMismatch       = "arguments do not match the constructor signature"
	msgInvalidConstructor     = "invalid constructor function"
	msgCompileFailed          = "factory compilation failed"
	msgCacheClosed            = "creator cache is closed"
	msgInvalidConfig          = "invalid configuration"
	msgConfigLoadFailed       = "failed to load configuration file"
	msgPanicRecovered         = "panic recovered in fastactivator operation"
)

// =============================================================================
// ARGUMENT AND TABLE ERRORS
// =============================================================================

// NewErrInvalidArgument creates an error for an unusable argument
func NewErrInvalidArgument(operation string, reason string) error {
	return errors.NewWithContext(ErrCodeInvalidArgument, msgInvalidArgument, map[string]interface{}{
		"operation": operation,
		"reason":    reason,
	})
}

// NewErrNilKey creates an error when a nil key reaches a table operation
func NewErrNilKey(operation string) error {
	return errors.NewWithField(ErrCodeInvalidArgument, msgNilKey, "operation", operation)
}

// NewErrDuplicateKey creates an error when an insert would replace an existing key
func NewErrDuplicateKey(key interface{}) error {
	return errors.NewWithField(ErrCodeDuplicateKey, msgDuplicateKey, "key", fmt.Sprintf("%v", key))
}

// NewErrKeyNotFound creates an error when an indexer-style lookup misses
func NewErrKeyNotFound(key interface{}) error {
	return errors.NewWithField(ErrCodeKeyNotFound, msgKeyNotFound, "key", fmt.Sprintf("%v", key))
}

// NewErrConcurrentModification creates an error when an enumerator detects
// that its table changed after the enumerator was created.
func NewErrConcurrentModification(expectedVersion, actualVersion uint64) error {
	return errors.NewWithContext(ErrCodeConcurrentModification, msgConcurrentModification, map[string]interface{}{
		"expected_version": expectedVersion,
		"actual_version":   actualVersion,
	})
}

// NewErrChainOverrun creates an error when a bucket chain walk visits more
// slots than the table holds.
func NewErrChainOverrun(operation string, limit int) error {
	return errors.NewWithContext(ErrCodeConcurrentModification, msgChainOverrun, map[string]interface{}{
		"operation": operation,
		"limit":     limit,
	}).WithSeverity("critical")
}

// NewErrReadOnly creates an error for a mutation through a read-only view or
// on a frozen table.
func NewErrReadOnly(operation string) error {
	return errors.NewWithField(ErrCodeReadOnly, msgReadOnly, "operation", operation)
}

// =============================================================================
// CONSTRUCTION ERRORS
// =============================================================================

// NewErrConstructorNotFound creates an error when no factory exists for a signature
func NewErrConstructorNotFound(typ interface{}, signature string) error {
	return errors.NewWithContext(ErrCodeConstructorNotFound, msgConstructorNotFound, map[string]interface{}{
		"type":      fmt.Sprintf("%v", typ),
		"signature": signature,
	})
}

// NewErrArgumentMismatch creates an error when a factory receives unusable arguments
func NewErrArgumentMismatch(typ interface{}, signature string, reason string) error {
	return errors.NewWithContext(ErrCodeArgumentMismatch, msgArgumentMismatch, map[string]interface{}{
		"type":      fmt.Sprintf("%v", typ),
		"signature": signature,
		"reason":    reason,
	})
}

// NewErrInvalidConstructor creates an error when a registered function cannot
// act as a constructor.
func NewErrInvalidConstructor(fn interface{}, reason string) error {
	return errors.NewWithContext(ErrCodeInvalidConstructor, msgInvalidConstructor, map[string]interface{}{
		"function": fmt.Sprintf("%T", fn),
		"reason":   reason,
	})
}

// NewErrCompileFailed wraps a compiler failure for a type
func NewErrCompileFailed(typ interface{}, cause error) error {
	return errors.Wrap(cause, ErrCodeCompileFailed, msgCompileFailed).
		WithContext("type", fmt.Sprintf("%v", typ)).
		AsRetryable()
}

// NewErrCacheClosed creates an error for use of a closed cache
func NewErrCacheClosed(operation string) error {
	return errors.NewWithField(ErrCodeCacheClosed, msgCacheClosed, "operation", operation)
}

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

// NewErrInvalidConfig creates an error for an unusable configuration field
func NewErrInvalidConfig(field string, reason string) error {
	return errors.NewWithContext(ErrCodeInvalidConfig, msgInvalidConfig, map[string]interface{}{
		"field":  field,
		"reason": reason,
	})
}

// NewErrConfigLoadFailed creates an error when a config file cannot be read or parsed
func NewErrConfigLoadFailed(path string, cause error) error {
	return errors.Wrap(cause, ErrCodeConfigLoadFailed, msgConfigLoadFailed).
		WithContext("path", path)
}

// =============================================================================
// INTERNAL ERRORS
// =============================================================================

// NewErrPanicRecovered creates an error when a panic is recovered
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsInvalidArgument checks if error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidArgument)
}

// IsDuplicateKey checks if error is a duplicate key error
func IsDuplicateKey(err error) bool {
	return errors.HasCode(err, ErrCodeDuplicateKey)
}

// IsKeyNotFound checks if error is a key not found error
func IsKeyNotFound(err error) bool {
	return errors.HasCode(err, ErrCodeKeyNotFound)
}

// IsConcurrentModification checks if error reports a table modified under an
// enumerator or a corrupted chain.
func IsConcurrentModification(err error) bool {
	return errors.HasCode(err, ErrCodeConcurrentModification)
}

// IsReadOnly checks if error is a read-only violation
func IsReadOnly(err error) bool {
	return errors.HasCode(err, ErrCodeReadOnly)
}

// IsConstructorNotFound checks if error is a constructor not found error
func IsConstructorNotFound(err error) bool {
	return errors.HasCode(err, ErrCodeConstructorNotFound)
}

// IsArgumentMismatch checks if error is an argument mismatch error
func IsArgumentMismatch(err error) bool {
	return errors.HasCode(err, ErrCodeArgumentMismatch)
}

// IsCacheClosed checks if error reports use of a closed cache
func IsCacheClosed(err error) bool {
	return errors.HasCode(err, ErrCodeCacheClosed)
}

// IsConfigError checks if error is a configuration error
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeInvalidConfig || code == ErrCodeConfigLoadFailed
	}
	return false
}

// IsConstructionError checks if error was raised while building a factory or an instance
func IsConstructionError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeConstructorNotFound || code == ErrCodeArgumentMismatch ||
			code == ErrCodeInvalidConstructor || code == ErrCodeCompileFailed
	}
	return false
}

// IsRetryable checks if the error can be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts context from an error
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var faErr *errors.Error
	if goerrors.As(err, &faErr) {
		return faErr.Context
	}
	return nil
}
