// compiler.go: constructor registry, the default FactoryCompiler
//
// Go types carry no constructor metadata, so constructors are registered
// explicitly as ordinary functions (func(A, B) T or func(A, B) (T, error)).
// The registry answers the creator cache's discovery questions and compiles
// each constructor into a Factory that validates arity and argument types
// once and then calls the function.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package fastactivator

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

var errorType = reflect.TypeFor[error]()

// constructor is one registered way of building a type.
type constructor struct {
	params  []reflect.Type
	fn      reflect.Value // reflective constructor, invalid when factory is set
	factory Factory       // hand-written factory registered with RegisterFactory
	withErr bool          // fn returns (T, error)
}

// ConstructorRegistry is a FactoryCompiler backed by explicitly registered
// constructor functions. It is safe for concurrent use.
//
// Registrations made after a creator cache has populated a type are not seen
// by that cache until it is Reset.
type ConstructorRegistry struct {
	mu           sync.RWMutex
	ctors        map[reflect.Type][]constructor
	implicitZero bool
}

// RegistryOption configures a ConstructorRegistry.
type RegistryOption func(*ConstructorRegistry)

// WithoutImplicitZero disables the parameterless zero-value constructor that
// every non-interface type otherwise gets.
func WithoutImplicitZero() RegistryOption {
	return func(r *ConstructorRegistry) { r.implicitZero = false }
}

// NewConstructorRegistry creates an empty registry.
//
// Unless WithoutImplicitZero is given, every non-interface type has a
// parameterless constructor returning its zero value; for pointer types it
// returns a pointer to a new zero value, like new(T).
func NewConstructorRegistry(opts ...RegistryOption) *ConstructorRegistry {
	r := &ConstructorRegistry{
		ctors:        make(map[reflect.Type][]constructor),
		implicitZero: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a constructor function. fn must be a non-variadic function
// returning T or (T, error); it is registered as a constructor of T taking
// fn's parameters.
func (r *ConstructorRegistry) Register(fn any) error {
	if fn == nil {
		return NewErrInvalidConstructor(fn, "constructor is nil")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return NewErrInvalidConstructor(fn, "constructor must be a function")
	}
	if v.IsNil() {
		return NewErrInvalidConstructor(fn, "constructor is nil")
	}
	if t.IsVariadic() {
		return NewErrInvalidConstructor(fn, "variadic constructors are not supported")
	}

	c := constructor{fn: v}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return NewErrInvalidConstructor(fn, "second result must be error")
		}
		c.withErr = true
	default:
		return NewErrInvalidConstructor(fn, "constructor must return T or (T, error)")
	}

	c.params = make([]reflect.Type, t.NumIn())
	for i := range c.params {
		c.params[i] = t.In(i)
	}
	return r.add(t.Out(0), c)
}

// RegisterFactory adds a hand-written factory for typ taking params.
// The factory is used as-is; it must check its own arguments.
func (r *ConstructorRegistry) RegisterFactory(typ reflect.Type, params []reflect.Type, factory Factory) error {
	if typ == nil {
		return NewErrInvalidArgument("RegisterFactory", "type is nil")
	}
	if factory == nil {
		return NewErrInvalidArgument("RegisterFactory", "factory is nil")
	}
	for i, p := range params {
		if p == nil {
			return NewErrInvalidArgument("RegisterFactory", fmt.Sprintf("parameter %d is nil", i))
		}
	}
	return r.add(typ, constructor{params: slices.Clone(params), factory: factory})
}

// MustRegister is like Register but panics on error. Useful from init() blocks.
func (r *ConstructorRegistry) MustRegister(fn any) {
	if err := r.Register(fn); err != nil {
		panic(err)
	}
}

func (r *ConstructorRegistry) add(typ reflect.Type, c constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.ctors[typ] {
		if slices.Equal(existing.params, c.params) {
			return NewErrDuplicateKey(typ.String() + signatureString(c.params))
		}
	}
	r.ctors[typ] = append(r.ctors[typ], c)
	return nil
}

// Types returns every type with at least one registered constructor.
func (r *ConstructorRegistry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]reflect.Type, 0, len(r.ctors))
	for t := range r.ctors {
		types = append(types, t)
	}
	return types
}

// Signatures implements FactoryCompiler.
func (r *ConstructorRegistry) Signatures(typ reflect.Type) ([][]reflect.Type, error) {
	if typ == nil {
		return nil, NewErrInvalidArgument("Signatures", "type is nil")
	}

	r.mu.RLock()
	ctors := r.ctors[typ]
	out := make([][]reflect.Type, 0, len(ctors)+1)
	hasParameterless := false
	for _, c := range ctors {
		out = append(out, slices.Clone(c.params))
		if len(c.params) == 0 {
			hasParameterless = true
		}
	}
	r.mu.RUnlock()

	if !hasParameterless && r.hasImplicitZero(typ) {
		out = append(out, []reflect.Type{})
	}
	return out, nil
}

// Compile implements FactoryCompiler.
func (r *ConstructorRegistry) Compile(typ reflect.Type, params []reflect.Type) (Factory, bool, error) {
	if typ == nil {
		return nil, false, NewErrInvalidArgument("Compile", "type is nil")
	}

	r.mu.RLock()
	var match *constructor
	for i := range r.ctors[typ] {
		if slices.Equal(r.ctors[typ][i].params, params) {
			c := r.ctors[typ][i]
			match = &c
			break
		}
	}
	r.mu.RUnlock()

	if match != nil {
		if match.factory != nil {
			return match.factory, true, nil
		}
		return compileConstructor(typ, *match), true, nil
	}
	if len(params) == 0 && r.hasImplicitZero(typ) {
		return zeroFactory(typ), true, nil
	}
	return nil, false, nil
}

func (r *ConstructorRegistry) hasImplicitZero(typ reflect.Type) bool {
	return r.implicitZero && typ.Kind() != reflect.Interface
}

// compileConstructor wraps a reflective constructor call.
func compileConstructor(typ reflect.Type, c constructor) Factory {
	sig := signatureString(c.params)
	params := c.params
	fn := c.fn
	withErr := c.withErr

	return func(args ...any) (result any, err error) {
		if len(args) != len(params) {
			return nil, NewErrArgumentMismatch(typ, sig,
				fmt.Sprintf("expected %d arguments, got %d", len(params), len(args)))
		}

		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			p := params[i]
			if arg == nil {
				if !isNilableKind(p.Kind()) {
					return nil, NewErrArgumentMismatch(typ, sig, fmt.Sprintf("argument %d is nil", i))
				}
				in[i] = reflect.Zero(p)
				continue
			}
			v := reflect.ValueOf(arg)
			if !v.Type().AssignableTo(p) {
				return nil, NewErrArgumentMismatch(typ, sig,
					fmt.Sprintf("argument %d: %s is not assignable to %s", i, v.Type(), p))
			}
			in[i] = v
		}

		defer func() {
			if rec := recover(); rec != nil {
				result, err = nil, NewErrPanicRecovered("Factory", rec)
			}
		}()

		out := fn.Call(in)
		if withErr {
			if callErr, _ := out[1].Interface().(error); callErr != nil {
				return nil, callErr
			}
		}
		return out[0].Interface(), nil
	}
}

// zeroFactory builds the implicit parameterless constructor.
func zeroFactory(typ reflect.Type) Factory {
	if typ.Kind() == reflect.Pointer {
		elem := typ.Elem()
		return func(args ...any) (any, error) {
			if len(args) != 0 {
				return nil, NewErrArgumentMismatch(typ, "()",
					fmt.Sprintf("expected 0 arguments, got %d", len(args)))
			}
			return reflect.New(elem).Interface(), nil
		}
	}

	zero := reflect.Zero(typ)
	return func(args ...any) (any, error) {
		if len(args) != 0 {
			return nil, NewErrArgumentMismatch(typ, "()",
				fmt.Sprintf("expected 0 arguments, got %d", len(args)))
		}
		return zero.Interface(), nil
	}
}

func signatureString(params []reflect.Type) string {
	return (&Signature{params: params}).String()
}
