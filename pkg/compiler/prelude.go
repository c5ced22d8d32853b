package compiler

import (
	"github.com/kristofer/weave/pkg/context"
	"github.com/kristofer/weave/pkg/unit"
)

// declarePrelude writes the Option/Result type metadata into the
// Builder before any user code compiles, and registers their variant
// constructors under "Option::Some" etc. so `Option::Some(x)` and
// pattern matches against it resolve exactly like any user-declared
// enum would.
func (c *Compiler) declarePrelude() {
	for _, meta := range []unit.TypeMeta{context.OptionMeta(), context.ResultMeta()} {
		if _, err := c.b.DeclareType(meta.Item, meta); err != nil {
			panic("prelude type collision: " + err.Error())
		}
		for _, vm := range meta.Variants {
			info := &ctorInfo{
				kind: ctorVariant, shape: vm.Kind, typeHash: meta.Hash, variantHash: vm.Hash,
				typeName: meta.Item[0], variantName: vm.Name, arity: vm.Arity, fields: vm.FieldNames,
			}
			key := meta.Item[0] + "::" + vm.Name
			c.ctor[key] = info
			// None/Some/Ok/Err are also directly resolvable bare, without
			// the Option::/Result:: qualifier (spec.md §6, built-in values).
			c.ctor[vm.Name] = info
		}
	}
}
