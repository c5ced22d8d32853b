package context

import (
	"github.com/kristofer/weave/pkg/unit"
	"github.com/kristofer/weave/pkg/value"
)

// Option and Result's Items, fixed so every Context (and every compiler
// instance resolving `Some`/`Ok`/`?`/`is Option`) computes the same Hash
// the VM was handed at declaration time.
var (
	OptionItem = unit.Item{"Option"}
	ResultItem = unit.Item{"Result"}
)

// OptionHash and ResultHash are the fixed enum hashes every compiler and
// Context agree on, so the `?` operator and `is Option`/`is Result` never
// need to thread a CompilationUnit reference back into the Context.
var (
	OptionHash     = unit.HashItem(OptionItem)
	ResultHash     = unit.HashItem(ResultItem)
	SomeHash       = unit.HashVariant(OptionItem, "Some")
	NoneHash       = unit.HashVariant(OptionItem, "None")
	OkHash         = unit.HashVariant(ResultItem, "Ok")
	ErrHash        = unit.HashVariant(ResultItem, "Err")
)

// OptionMeta and ResultMeta are the type metadata declared in every
// CompilationUnit produced against a Context built by New() (the
// compiler writes these into its Builder before compiling user code, see
// pkg/compiler/prelude.go).
func OptionMeta() unit.TypeMeta {
	return unit.TypeMeta{
		Item: OptionItem, Hash: OptionHash, Kind: unit.TypeEnum,
		Variants: []unit.VariantMeta{
			{Name: "Some", Hash: SomeHash, Kind: unit.TypeStructTuple, Arity: 1},
			{Name: "None", Hash: NoneHash, Kind: unit.TypeStructUnit},
		},
	}
}

func ResultMeta() unit.TypeMeta {
	return unit.TypeMeta{
		Item: ResultItem, Hash: ResultHash, Kind: unit.TypeEnum,
		Variants: []unit.VariantMeta{
			{Name: "Ok", Hash: OkHash, Kind: unit.TypeStructTuple, Arity: 1},
			{Name: "Err", Hash: ErrHash, Kind: unit.TypeStructTuple, Arity: 1},
		},
	}
}

// Some constructs Option::Some(v).
func Some(v value.Value) value.Value {
	return value.VariantTuple(uint64(OptionHash), uint64(SomeHash), "Option", "Some", []value.Value{v})
}

// None constructs Option::None.
func None() value.Value {
	return value.VariantTuple(uint64(OptionHash), uint64(NoneHash), "Option", "None", nil)
}

// Ok constructs Result::Ok(v).
func Ok(v value.Value) value.Value {
	return value.VariantTuple(uint64(ResultHash), uint64(OkHash), "Result", "Ok", []value.Value{v})
}

// Err constructs Result::Err(v).
func Err(v value.Value) value.Value {
	return value.VariantTuple(uint64(ResultHash), uint64(ErrHash), "Result", "Err", []value.Value{v})
}

// declarePrelude registers the Option/Result type descriptors so `is
// Option` / `is Result` resolve without the script declaring them itself.
func (c *Context) declarePrelude() {
	c.types["Option"] = &TypeDescriptor{Name: "Option", Hash: OptionHash, IsUser: true}
	c.types["Result"] = &TypeDescriptor{Name: "Result", Hash: ResultHash, IsUser: true}
}
