// errors_test.go: tests for error handling in fastactivator
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import (
	goerrors "errors"
	"reflect"
	"testing"

	"github.com/agilira/go-errors"
)

// Test error code creation and basic properties
func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name         string
		errFunc      func() error
		expectedCode errors.ErrorCode
		shouldRetry  bool
	}{
		{
			name:         "InvalidArgument",
			errFunc:      func() error { return NewErrInvalidArgument("Insert", "bad") },
			expectedCode: ErrCodeInvalidArgument,
		},
		{
			name:         "NilKey",
			errFunc:      func() error { return NewErrNilKey("Insert") },
			expectedCode: ErrCodeInvalidArgument,
		},
		{
			name:         "DuplicateKey",
			errFunc:      func() error { return NewErrDuplicateKey("k") },
			expectedCode: ErrCodeDuplicateKey,
		},
		{
			name:         "KeyNotFound",
			errFunc:      func() error { return NewErrKeyNotFound("k") },
			expectedCode: ErrCodeKeyNotFound,
		},
		{
			name:         "ConcurrentModification",
			errFunc:      func() error { return NewErrConcurrentModification(1, 2) },
			expectedCode: ErrCodeConcurrentModification,
		},
		{
			name:         "ChainOverrun",
			errFunc:      func() error { return NewErrChainOverrun("Insert", 7) },
			expectedCode: ErrCodeConcurrentModification,
		},
		{
			name:         "ReadOnly",
			errFunc:      func() error { return NewErrReadOnly("Add") },
			expectedCode: ErrCodeReadOnly,
		},
		{
			name:         "ConstructorNotFound",
			errFunc:      func() error { return NewErrConstructorNotFound(tWidget, "(string)") },
			expectedCode: ErrCodeConstructorNotFound,
		},
		{
			name:         "ArgumentMismatch",
			errFunc:      func() error { return NewErrArgumentMismatch(tWidget, "(int)", "argument 0 is nil") },
			expectedCode: ErrCodeArgumentMismatch,
		},
		{
			name:         "InvalidConstructor",
			errFunc:      func() error { return NewErrInvalidConstructor(42, "not a function") },
			expectedCode: ErrCodeInvalidConstructor,
		},
		{
			name:         "CompileFailed",
			errFunc:      func() error { return NewErrCompileFailed(tWidget, goerrors.New("no metadata")) },
			expectedCode: ErrCodeCompileFailed,
			shouldRetry:  true,
		},
		{
			name:         "CacheClosed",
			errFunc:      func() error { return NewErrCacheClosed("EnsurePopulated") },
			expectedCode: ErrCodeCacheClosed,
		},
		{
			name:         "InvalidConfig",
			errFunc:      func() error { return NewErrInvalidConfig("Compiler", "required") },
			expectedCode: ErrCodeInvalidConfig,
		},
		{
			name:         "ConfigLoadFailed",
			errFunc:      func() error { return NewErrConfigLoadFailed("/tmp/x.json", goerrors.New("eof")) },
			expectedCode: ErrCodeConfigLoadFailed,
		},
		{
			name:         "PanicRecovered",
			errFunc:      func() error { return NewErrPanicRecovered("Factory", "boom") },
			expectedCode: ErrCodePanicRecovered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.errFunc()
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if !errors.HasCode(err, tt.expectedCode) {
				t.Errorf("expected code %s, got %s", tt.expectedCode, GetErrorCode(err))
			}

			if IsRetryable(err) != tt.shouldRetry {
				t.Errorf("expected retryable=%v, got %v", tt.shouldRetry, IsRetryable(err))
			}

			if err.Error() == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

// Test error wrapping with cause
func TestErrorWrapping(t *testing.T) {
	cause := goerrors.New("constructor metadata unavailable")

	err := NewErrCompileFailed(reflect.TypeFor[int](), cause)

	if unwrapped := goerrors.Unwrap(err); unwrapped == nil {
		t.Fatal("expected unwrapped error, got nil")
	}

	rootCause := errors.RootCause(err)
	if rootCause.Error() != cause.Error() {
		t.Errorf("expected root cause %q, got %q", cause.Error(), rootCause.Error())
	}

	if ctx := GetErrorContext(err); ctx["type"] != "int" {
		t.Errorf("expected type=int in context, got %v", ctx["type"])
	}
}

// Test error context extraction
func TestErrorContext(t *testing.T) {
	err := NewErrConcurrentModification(3, 5)

	ctx := GetErrorContext(err)
	if ctx == nil {
		t.Fatal("expected context, got nil")
	}
	if ctx["expected_version"] != uint64(3) {
		t.Errorf("expected expected_version=3, got %v", ctx["expected_version"])
	}
	if ctx["actual_version"] != uint64(5) {
		t.Errorf("expected actual_version=5, got %v", ctx["actual_version"])
	}

	if GetErrorContext(nil) != nil {
		t.Error("GetErrorContext(nil) should be nil")
	}
	if GetErrorContext(goerrors.New("plain")) != nil {
		t.Error("plain errors carry no context")
	}
	if GetErrorCode(goerrors.New("plain")) != "" {
		t.Error("plain errors carry no code")
	}
}

// Test error category helpers
func TestErrorCategoryHelpers(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		isConfig       bool
		isConstruction bool
	}{
		{
			name:     "InvalidConfig",
			err:      NewErrInvalidConfig("negative_cache_ttl", "must be non-negative"),
			isConfig: true,
		},
		{
			name:     "ConfigLoadFailed",
			err:      NewErrConfigLoadFailed("activator.json", goerrors.New("eof")),
			isConfig: true,
		},
		{
			name:           "ConstructorNotFound",
			err:            NewErrConstructorNotFound(tWidget, "()"),
			isConstruction: true,
		},
		{
			name:           "ArgumentMismatch",
			err:            NewErrArgumentMismatch(tWidget, "()", "expected 0 arguments, got 1"),
			isConstruction: true,
		},
		{
			name:           "CompileFailed",
			err:            NewErrCompileFailed(tWidget, goerrors.New("x")),
			isConstruction: true,
		},
		{
			name: "ReadOnly",
			err:  NewErrReadOnly("Clear"),
		},
		{
			name: "Nil",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsConfigError(tt.err) != tt.isConfig {
				t.Errorf("IsConfigError: expected %v, got %v", tt.isConfig, IsConfigError(tt.err))
			}
			if IsConstructionError(tt.err) != tt.isConstruction {
				t.Errorf("IsConstructionError: expected %v, got %v", tt.isConstruction, IsConstructionError(tt.err))
			}
		})
	}
}

// Test specific error checkers
func TestSpecificErrorCheckers(t *testing.T) {
	checks := []struct {
		name  string
		check func(error) bool
		err   error
	}{
		{"IsInvalidArgument", IsInvalidArgument, NewErrNilKey("Get")},
		{"IsDuplicateKey", IsDuplicateKey, NewErrDuplicateKey("k")},
		{"IsKeyNotFound", IsKeyNotFound, NewErrKeyNotFound("k")},
		{"IsConcurrentModification", IsConcurrentModification, NewErrConcurrentModification(0, 1)},
		{"IsReadOnly", IsReadOnly, NewErrReadOnly("Set")},
		{"IsConstructorNotFound", IsConstructorNotFound, NewErrConstructorNotFound(tWidget, "()")},
		{"IsArgumentMismatch", IsArgumentMismatch, NewErrArgumentMismatch(tWidget, "()", "x")},
		{"IsCacheClosed", IsCacheClosed, NewErrCacheClosed("Create")},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			if !c.check(c.err) {
				t.Errorf("%s should return true for %v", c.name, c.err)
			}
			if c.check(nil) {
				t.Errorf("%s should return false for nil error", c.name)
			}
			if c.check(goerrors.New("plain")) {
				t.Errorf("%s should return false for a plain error", c.name)
			}
		})
	}
}

// Test that the chain overrun error is distinguishable from an enumerator failure
func TestChainOverrunContext(t *testing.T) {
	err := NewErrChainOverrun("TryGetValue", 11)
	if !IsConcurrentModification(err) {
		t.Fatal("chain overrun should be a concurrent modification error")
	}
	ctx := GetErrorContext(err)
	if ctx["operation"] != "TryGetValue" {
		t.Errorf("expected operation=TryGetValue, got %v", ctx["operation"])
	}
}
