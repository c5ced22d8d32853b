// Package context implements the host-function and type registry
// consulted by both the compiler (name resolution, `is` type descriptors)
// and the VM (dispatching Call/CallInstance and the operator protocols).
package context

import (
	"errors"
	"fmt"

	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
)

// ErrConflictingItem is returned when two modules (or a module and a
// built-in) export the same name into the flat namespace.
var ErrConflictingItem = errors.New("conflicting item")

// Protocol names the compile-time constants addressing operator hooks.
// These are plain strings rather than an enum so host code can register
// protocols for types the core doesn't know about.
type Protocol string

const (
	ADD         Protocol = "ADD"
	ADD_ASSIGN  Protocol = "ADD_ASSIGN"
	SUB         Protocol = "SUB"
	SUB_ASSIGN  Protocol = "SUB_ASSIGN"
	MUL         Protocol = "MUL"
	MUL_ASSIGN  Protocol = "MUL_ASSIGN"
	DIV         Protocol = "DIV"
	DIV_ASSIGN  Protocol = "DIV_ASSIGN"
	INDEX_GET   Protocol = "INDEX_GET"
	INDEX_SET   Protocol = "INDEX_SET"
	NEXT        Protocol = "NEXT"
	INTO_ITER   Protocol = "INTO_ITER"
	FMT_DISPLAY Protocol = "FMT_DISPLAY"
)

// FuncKey identifies a host function by its Item path and arity; the same
// name can be overloaded by arity.
type FuncKey struct {
	Item  string // unit.Item.String()
	Arity int
}

// TypeDescriptor is a compile-time-resolvable type reference: a built-in
// kind, or a user-declared struct/enum's Hash. `is` compares a value's
// runtime tag against one of these.
type TypeDescriptor struct {
	Name   string
	Kind   value.Kind // for built-ins; zero value for user types, checked via Hash
	Hash   unit.Hash
	IsUser bool
}

// Context is the registry the compiler and VM both consult: host
// functions, type descriptors (built-in and user-declared), and operator
// protocol implementations for user types.
type Context struct {
	functions map[FuncKey]*value.Callable
	byHash    map[unit.Hash]*value.Callable
	types     map[string]*TypeDescriptor
	protocols map[protocolKey]*value.Callable
}

type protocolKey struct {
	typeHash unit.Hash
	protocol Protocol
}

// New creates a Context pre-populated with the built-in type descriptors:
// unit, bool, char, int, float, byte, String, Bytes, Vec, Object, Option,
// Result, Function, Future.
func New() *Context {
	c := &Context{
		functions: map[FuncKey]*value.Callable{},
		byHash:    map[unit.Hash]*value.Callable{},
		types:     map[string]*TypeDescriptor{},
		protocols: map[protocolKey]*value.Callable{},
	}
	for _, b := range builtinTypes {
		c.types[b.Name] = b
	}
	c.declarePrelude()
	return c
}

var builtinTypes = []*TypeDescriptor{
	{Name: "unit", Kind: value.KindUnit},
	{Name: "bool", Kind: value.KindBool},
	{Name: "char", Kind: value.KindChar},
	{Name: "int", Kind: value.KindInt},
	{Name: "float", Kind: value.KindFloat},
	{Name: "byte", Kind: value.KindByte},
	{Name: "String", Kind: value.KindString},
	{Name: "Bytes", Kind: value.KindBytes},
	{Name: "Vec", Kind: value.KindVec},
	{Name: "Object", Kind: value.KindObject},
	{Name: "Function", Kind: value.KindFunction},
	{Name: "Future", Kind: value.KindFuture},
	// Option and Result are ordinary enums the prelude declares (see
	// Prelude below); their descriptors are added there once their Hash
	// is known.
}

// RegisterFunction binds a host function at (item, arity). Fails
// ErrConflictingItem on collision.
func (c *Context) RegisterFunction(item unit.Item, callable *value.Callable) error {
	k := FuncKey{Item: item.String(), Arity: callable.Arity}
	if _, ok := c.functions[k]; ok {
		return fmt.Errorf("%w: %s/%d", ErrConflictingItem, k.Item, k.Arity)
	}
	c.functions[k] = callable
	c.byHash[unit.HashItem(item)] = callable
	return nil
}

// LookupFunction finds a host function by (item, arity).
func (c *Context) LookupFunction(item unit.Item, arity int) (*value.Callable, bool) {
	v, ok := c.functions[FuncKey{Item: item.String(), Arity: arity}]
	return v, ok
}

// LookupFunctionByHash finds a host function by its Item's Hash. OpCall and
// OpPushFunction address host functions this way, since the instruction
// carries only a Hash, resolved once against the unit and the context
// together rather than against an Item round-tripped through a string.
func (c *Context) LookupFunctionByHash(h unit.Hash) (*value.Callable, bool) {
	v, ok := c.byHash[h]
	return v, ok
}

// RegisterType adds a user-declared type descriptor (struct or enum),
// addressable on the right-hand side of `is`. Fails ErrConflictingItem if
// the name is already bound.
func (c *Context) RegisterType(name string, hash unit.Hash) error {
	if _, ok := c.types[name]; ok {
		return fmt.Errorf("%w: %s", ErrConflictingItem, name)
	}
	c.types[name] = &TypeDescriptor{Name: name, Hash: hash, IsUser: true}
	return nil
}

// TypeByName resolves a type descriptor the compiler names on the
// right-hand side of `is`.
func (c *Context) TypeByName(name string) (*TypeDescriptor, bool) {
	d, ok := c.types[name]
	return d, ok
}

// RegisterProtocol binds an operator protocol implementation for a
// user-declared type.
func (c *Context) RegisterProtocol(typeHash unit.Hash, p Protocol, callable *value.Callable) {
	c.protocols[protocolKey{typeHash, p}] = callable
}

// LookupProtocol finds a protocol implementation for typeHash, if the
// host or the script registered one.
func (c *Context) LookupProtocol(typeHash unit.Hash, p Protocol) (*value.Callable, bool) {
	v, ok := c.protocols[protocolKey{typeHash, p}]
	return v, ok
}

// Module is a named bundle of functions and constants a host (or the
// standard prelude) contributes to a Context. Composing modules into a
// single flat namespace fails ErrConflictingItem on any collision.
type Module struct {
	Name      string
	Functions map[string]*value.Callable // keyed by function name; arity comes from the Callable
	Constants map[string]value.Value
}

// Apply folds a Module's Functions into the Context's flat namespace,
// each under the Item {m.Name, key}. Constants are not registered.
func (c *Context) Apply(m Module) error {
	for key, fn := range m.Functions {
		item := unit.Item{m.Name, key}
		if err := c.RegisterFunction(item, fn); err != nil {
			return err
		}
	}
	return nil
}
