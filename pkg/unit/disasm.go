package unit

import (
	"fmt"
	"strings"
)

// mnemonics names every Op the way the disassembler prints it, indexed by
// Op value. Unknown opcodes fall back to a numeric form rather than
// panicking — a disassembler should never crash on a unit it can still
// walk.
var mnemonics = map[Op]string{
	OpPushUnit: "push.unit", OpPushBool: "push.bool", OpPushInt: "push.int",
	OpPushFloat: "push.float", OpPushChar: "push.char", OpPushByte: "push.byte",
	OpPushString: "push.str", OpPop: "pop", OpDup: "dup", OpDrop: "drop",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpRem: "rem", OpNeg: "neg",
	OpAddAssignLocal: "add_assign.local", OpSubAssignLocal: "sub_assign.local",
	OpMulAssignLocal: "mul_assign.local", OpDivAssignLocal: "div_assign.local",
	OpEq: "eq", OpNeq: "neq", OpLt: "lt", OpGt: "gt", OpLte: "lte", OpGte: "gte",
	OpNot: "not", OpJump: "jump", OpJumpIf: "jump_if", OpJumpIfNot: "jump_if_not",
	OpJumpIfBranch: "jump_if_branch",
	OpLoadLocal:    "load.local", OpStoreLocal: "store.local",
	OpCall: "call", OpCallInstance: "call_instance", OpCallFn: "call_fn",
	OpReturn: "return", OpReturnUnit: "return.unit", OpPushFunction: "push.fn",
	OpVec: "vec", OpTuple: "tuple", OpObject: "object",
	OpTypedTuple: "typed_tuple", OpTypedObject: "typed_object",
	OpVariantTuple: "variant_tuple", OpVariantObject: "variant_object",
	OpIndexGet: "index_get", OpIndexSet: "index_set",
	OpFieldGet: "field_get", OpFieldSet: "field_set", OpTupleIndexGet: "tuple_index_get",
	OpIs: "is", OpIsNot: "is_not",
	OpMatchLiteral: "match.literal", OpMatchSeqLen: "match.seq_len",
	OpMatchObjectKeys: "match.object_keys", OpMatchTypedTuple: "match.typed_tuple",
	OpMatchStructObject: "match.struct_object", OpMatchVariantTuple: "match.variant_tuple",
	OpMatchVariantObject: "match.variant_object",
	OpIterNext:           "iter_next", OpAwait: "await", OpPromote: "promote",
	OpPanic: "panic", OpFmtDisplay: "fmt_display",
}

func (op Op) String() string {
	if m, ok := mnemonics[op]; ok {
		return m
	}
	return fmt.Sprintf("op(%d)", byte(op))
}

// DisassembleLine renders the instruction at addr as one line, without a
// trailing newline — the caller (cmd/weave's disasm subcommand) owns
// colorizing the mnemonic and joining lines.
func (u *CompilationUnit) DisassembleLine(addr int) string {
	inst := u.instructions[addr]
	var b strings.Builder
	fmt.Fprintf(&b, "%04d  %-20s", addr, inst.Op.String())
	switch inst.Op {
	case OpPushString:
		fmt.Fprintf(&b, " %q", u.ConstString(int(inst.A)))
	case OpPushInt, OpPushChar, OpPushByte, OpDrop, OpLoadLocal, OpStoreLocal,
		OpJump, OpJumpIf, OpJumpIfNot, OpIs, OpIsNot, OpPanic:
		fmt.Fprintf(&b, " %d", inst.A)
	case OpPushBool:
		fmt.Fprintf(&b, " %t", inst.A != 0)
	case OpCall, OpCallFn, OpTypedTuple, OpTypedObject, OpVariantTuple, OpVariantObject,
		OpMatchTypedTuple, OpMatchStructObject, OpMatchVariantTuple, OpMatchVariantObject:
		fmt.Fprintf(&b, " hash=%d args=%d", inst.Hash, inst.B)
	case OpFieldGet, OpFieldSet:
		fmt.Fprintf(&b, " %q", u.ConstString(int(inst.A)))
	case OpCallInstance:
		fmt.Fprintf(&b, " %q args=%d", u.ConstString(int(inst.A)), inst.B)
	case OpVec, OpTuple, OpObject:
		fmt.Fprintf(&b, " n=%d", inst.B)
	case OpJumpIfBranch:
		fmt.Fprintf(&b, " variant_hash=%d -> %d", inst.Hash, inst.A)
	case OpPushFunction:
		fmt.Fprintf(&b, " hash=%d variant_hash=%d arity=%d", inst.Hash, inst.A, inst.B)
	}
	sp := u.Span(addr)
	fmt.Fprintf(&b, "    ; line %d", sp.Line)
	return b.String()
}

// Disassemble renders the full instruction stream, one line per
// instruction, with a header before each declared function's entry
// address.
func (u *CompilationUnit) Disassemble() string {
	entries := map[int]Item{}
	for _, fe := range u.Functions() {
		entries[fe.Address] = fe.Item
	}
	var b strings.Builder
	for addr := 0; addr < u.Len(); addr++ {
		if it, ok := entries[addr]; ok {
			fmt.Fprintf(&b, "fn %s:\n", it.String())
		}
		b.WriteString(u.DisassembleLine(addr))
		b.WriteString("\n")
	}
	return b.String()
}
