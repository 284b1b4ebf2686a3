// Copyright 2026 go-laneforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vir

import "fmt"

// Opcode identifies an instruction kind.
type Opcode int

const (
	// Binary arithmetic and bitwise operations.
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpShl
	OpLShr
	OpAShr
	OpAnd
	OpOr
	OpXor
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFRem

	// Comparisons.
	OpICmp
	OpFCmp

	// Casts.
	OpTrunc
	OpZExt
	OpSExt
	OpFPToUI
	OpFPToSI
	OpUIToFP
	OpSIToFP
	OpFPTrunc
	OpFPExt
	OpPtrToInt
	OpIntToPtr
	OpBitCast

	// Vector shape operations.
	OpExtractElem
	OpInsertElem
	OpShuffle

	OpPhi
	OpSelect

	// Memory.
	OpLoad
	OpStore
	OpAlloca
	OpGEP

	OpCall

	// Terminators.
	OpRet
	OpBr
	OpCondBr
)

var opcodeNames = map[Opcode]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul",
	OpUDiv: "udiv", OpSDiv: "sdiv", OpURem: "urem", OpSRem: "srem",
	OpShl: "shl", OpLShr: "lshr", OpAShr: "ashr",
	OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpFAdd: "fadd", OpFSub: "fsub", OpFMul: "fmul", OpFDiv: "fdiv", OpFRem: "frem",
	OpICmp: "icmp", OpFCmp: "fcmp",
	OpTrunc: "trunc", OpZExt: "zext", OpSExt: "sext",
	OpFPToUI: "fptoui", OpFPToSI: "fptosi", OpUIToFP: "uitofp", OpSIToFP: "sitofp",
	OpFPTrunc: "fptrunc", OpFPExt: "fpext",
	OpPtrToInt: "ptrtoint", OpIntToPtr: "inttoptr", OpBitCast: "bitcast",
	OpExtractElem: "extractelement", OpInsertElem: "insertelement", OpShuffle: "shufflevector",
	OpPhi: "phi", OpSelect: "select",
	OpLoad: "load", OpStore: "store", OpAlloca: "alloca", OpGEP: "getelementptr",
	OpCall: "call",
	OpRet:  "ret", OpBr: "br", OpCondBr: "br",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// OpClass is a closed classification of opcodes into the categories the
// rewrite passes dispatch on.
type OpClass int

const (
	ClassBinary OpClass = iota
	ClassCmp
	ClassCast
	ClassPhi
	ClassSelect
	ClassExtract
	ClassInsert
	ClassShuffle
	ClassLoad
	ClassStore
	ClassCall
	ClassAlloca
	ClassGEP
	ClassTerm
	ClassOther
)

// Class returns the dispatch category of op.
func (op Opcode) Class() OpClass {
	switch op {
	case OpAdd, OpSub, OpMul, OpUDiv, OpSDiv, OpURem, OpSRem,
		OpShl, OpLShr, OpAShr, OpAnd, OpOr, OpXor,
		OpFAdd, OpFSub, OpFMul, OpFDiv, OpFRem:
		return ClassBinary
	case OpICmp, OpFCmp:
		return ClassCmp
	case OpTrunc, OpZExt, OpSExt, OpFPToUI, OpFPToSI, OpUIToFP, OpSIToFP,
		OpFPTrunc, OpFPExt, OpPtrToInt, OpIntToPtr, OpBitCast:
		return ClassCast
	case OpPhi:
		return ClassPhi
	case OpSelect:
		return ClassSelect
	case OpExtractElem:
		return ClassExtract
	case OpInsertElem:
		return ClassInsert
	case OpShuffle:
		return ClassShuffle
	case OpLoad:
		return ClassLoad
	case OpStore:
		return ClassStore
	case OpCall:
		return ClassCall
	case OpAlloca:
		return ClassAlloca
	case OpGEP:
		return ClassGEP
	case OpRet, OpBr, OpCondBr:
		return ClassTerm
	default:
		return ClassOther
	}
}

// Pred is a comparison predicate, shared between integer and floating-point
// compares. Integer predicates start with Pred, ordered float predicates
// with PredO.
type Pred int

const (
	PredEQ Pred = iota
	PredNE
	PredSLT
	PredSLE
	PredSGT
	PredSGE
	PredULT
	PredULE
	PredUGT
	PredUGE
	PredOEQ
	PredONE
	PredOLT
	PredOLE
	PredOGT
	PredOGE
)

var predNames = map[Pred]string{
	PredEQ: "eq", PredNE: "ne",
	PredSLT: "slt", PredSLE: "sle", PredSGT: "sgt", PredSGE: "sge",
	PredULT: "ult", PredULE: "ule", PredUGT: "ugt", PredUGE: "uge",
	PredOEQ: "oeq", PredONE: "one",
	PredOLT: "olt", PredOLE: "ole", PredOGT: "ogt", PredOGE: "oge",
}

func (p Pred) String() string { return predNames[p] }

// Flags are the arithmetic flags an instruction may carry. They are copied
// verbatim onto per-lane clones when an instruction is decomposed.
type Flags struct {
	NSW   bool // no signed wrap
	NUW   bool // no unsigned wrap
	Exact bool
	Fast  bool // fast-math
}

// Callee describes the target of a call instruction. OpaqueVector marks
// callees whose vector results must stay whole across control-flow edges
// (the default opaque-producer policy of the scalarization pass).
type Callee struct {
	Name         string
	OpaqueVector bool
}

type use struct {
	user  *Inst
	index int
}

// Inst is an instruction: a Value with an opcode, an ordered operand list
// and a position inside a basic block. A nil Block means the instruction is
// not part of any function.
type Inst struct {
	Op   Opcode
	Name string
	Typ  Type

	ops  []Value
	uses []use

	Block *Block

	Pred     Pred     // compare predicate, OpICmp/OpFCmp only
	Flags    Flags    // arithmetic flags
	Incoming []*Block // phi: incoming block per operand
	Mask     []int    // shufflevector: output lane selectors, -1 means undef
	Callee   *Callee  // call target
	Targets  []*Block // branch targets, OpBr/OpCondBr only
}

func (i *Inst) Type() Type { return i.Typ }

// NumOperands returns the operand count.
func (i *Inst) NumOperands() int { return len(i.ops) }

// Operand returns the k-th operand.
func (i *Inst) Operand(k int) Value { return i.ops[k] }

// Operands returns a copy of the operand list.
func (i *Inst) Operands() []Value {
	out := make([]Value, len(i.ops))
	copy(out, i.ops)
	return out
}

// SetOperand replaces the k-th operand, maintaining use lists.
func (i *Inst) SetOperand(k int, v Value) {
	if old, ok := i.ops[k].(*Inst); ok {
		old.removeUse(i, k)
	}
	i.ops[k] = v
	if inst, ok := v.(*Inst); ok {
		inst.uses = append(inst.uses, use{user: i, index: k})
	}
}

func (i *Inst) addOperand(v Value) {
	k := len(i.ops)
	i.ops = append(i.ops, v)
	if inst, ok := v.(*Inst); ok {
		inst.uses = append(inst.uses, use{user: i, index: k})
	}
}

func (i *Inst) removeUse(user *Inst, index int) {
	for k, u := range i.uses {
		if u.user == user && u.index == index {
			i.uses = append(i.uses[:k], i.uses[k+1:]...)
			return
		}
	}
	panic("vir: use-list corruption: removing unknown use")
}

// NumUses returns how many operand slots currently reference i.
func (i *Inst) NumUses() int { return len(i.uses) }

// ReplaceAllUsesWith rewrites every use of i to refer to v instead.
func (i *Inst) ReplaceAllUsesWith(v Value) {
	if v == Value(i) {
		panic("vir: replacing a value with itself")
	}
	for len(i.uses) > 0 {
		u := i.uses[len(i.uses)-1]
		u.user.SetOperand(u.index, v)
	}
}

// dropOperands releases all operand edges, emptying the use lists of the
// values i references.
func (i *Inst) dropOperands() {
	for k, op := range i.ops {
		if inst, ok := op.(*Inst); ok {
			inst.removeUse(i, k)
		}
	}
	i.ops = nil
}

// InsertBefore places i immediately before pos in pos's block.
func (i *Inst) InsertBefore(pos *Inst) *Inst {
	if i.Block != nil {
		panic("vir: instruction already placed")
	}
	b := pos.Block
	if b == nil {
		panic("vir: insertion point is not in a block")
	}
	b.insertAt(b.indexOf(pos), i)
	return i
}

// InsertAfter places i immediately after pos in pos's block.
func (i *Inst) InsertAfter(pos *Inst) *Inst {
	if i.Block != nil {
		panic("vir: instruction already placed")
	}
	b := pos.Block
	if b == nil {
		panic("vir: insertion point is not in a block")
	}
	b.insertAt(b.indexOf(pos)+1, i)
	return i
}

// RemoveFromParent detaches i from its block and releases its operand edges.
// The caller is responsible for i having no remaining uses.
func (i *Inst) RemoveFromParent() {
	if i.Block != nil {
		i.Block.remove(i)
	}
	i.dropOperands()
}

// AddIncoming appends an incoming (value, predecessor) pair to a phi.
func (i *Inst) AddIncoming(v Value, pred *Block) {
	if i.Op != OpPhi {
		panic("vir: AddIncoming on non-phi")
	}
	i.addOperand(v)
	i.Incoming = append(i.Incoming, pred)
}

// IsPhi reports whether i is a phi node.
func (i *Inst) IsPhi() bool { return i.Op == OpPhi }

func newInst(op Opcode, t Type, name string, ops ...Value) *Inst {
	i := &Inst{Op: op, Typ: t, Name: name}
	for _, v := range ops {
		i.addOperand(v)
	}
	return i
}

// NewBinary builds an unplaced binary instruction; the result type is the
// type of x.
func NewBinary(op Opcode, x, y Value, name string) *Inst {
	if op.Class() != ClassBinary {
		panic("vir: NewBinary with non-binary opcode")
	}
	return newInst(op, x.Type(), name, x, y)
}

// NewICmp builds an integer compare. Vector operands yield a vector of i1.
func NewICmp(p Pred, x, y Value, name string) *Inst {
	i := newInst(OpICmp, cmpResultType(x.Type()), name, x, y)
	i.Pred = p
	return i
}

// NewFCmp builds a floating-point compare.
func NewFCmp(p Pred, x, y Value, name string) *Inst {
	i := newInst(OpFCmp, cmpResultType(x.Type()), name, x, y)
	i.Pred = p
	return i
}

func cmpResultType(operand Type) Type {
	if vt, ok := operand.(VecType); ok {
		return Vec(I1, vt.Len)
	}
	return I1
}

// NewCast builds a cast of v to type to.
func NewCast(op Opcode, v Value, to Type, name string) *Inst {
	if op.Class() != ClassCast {
		panic("vir: NewCast with non-cast opcode")
	}
	return newInst(op, to, name, v)
}

// NewPhi builds an empty phi of type t; fill it with AddIncoming.
func NewPhi(t Type, name string) *Inst {
	return newInst(OpPhi, t, name)
}

// NewSelect builds a select between t and f under cond.
func NewSelect(cond, t, f Value, name string) *Inst {
	return newInst(OpSelect, t.Type(), name, cond, t, f)
}

// NewExtractElem builds an element extraction; the result has the source's
// element type.
func NewExtractElem(vec, idx Value, name string) *Inst {
	vt, ok := vec.Type().(VecType)
	if !ok {
		panic("vir: extractelement of non-vector")
	}
	return newInst(OpExtractElem, vt.Elem, name, vec, idx)
}

// NewInsertElem builds an element insertion.
func NewInsertElem(vec, elem, idx Value, name string) *Inst {
	if _, ok := vec.Type().(VecType); !ok {
		panic("vir: insertelement into non-vector")
	}
	return newInst(OpInsertElem, vec.Type(), name, vec, elem, idx)
}

// NewShuffle builds a shuffle of x and y under a compile-time mask; mask
// entries index the concatenation of x and y, -1 selects undef.
func NewShuffle(x, y Value, mask []int, name string) *Inst {
	vt, ok := x.Type().(VecType)
	if !ok {
		panic("vir: shufflevector of non-vector")
	}
	i := newInst(OpShuffle, Vec(vt.Elem, len(mask)), name, x, y)
	i.Mask = append([]int(nil), mask...)
	return i
}

// NewLoad builds a load through a typed pointer.
func NewLoad(ptr Value, name string) *Inst {
	pt, ok := ptr.Type().(PtrType)
	if !ok {
		panic("vir: load through non-pointer")
	}
	return newInst(OpLoad, pt.Elem, name, ptr)
}

// NewStore builds a store of val through ptr. Stores produce no value; the
// type records the stored type for printing.
func NewStore(val, ptr Value) *Inst {
	if _, ok := ptr.Type().(PtrType); !ok {
		panic("vir: store through non-pointer")
	}
	return newInst(OpStore, val.Type(), "", val, ptr)
}

// NewGEP builds a single-index pointer offset; the result keeps the base
// pointer type.
func NewGEP(base, idx Value, name string) *Inst {
	if _, ok := base.Type().(PtrType); !ok {
		panic("vir: getelementptr on non-pointer")
	}
	return newInst(OpGEP, base.Type(), name, base, idx)
}

// NewAlloca builds a stack allocation of type t, yielding a pointer to t.
func NewAlloca(t Type, name string) *Inst {
	return newInst(OpAlloca, Ptr(t), name)
}

// NewCall builds a call to callee with an explicit result type.
func NewCall(callee *Callee, result Type, name string, args ...Value) *Inst {
	i := newInst(OpCall, result, name, args...)
	i.Callee = callee
	return i
}

// NewRet builds a return of v.
func NewRet(v Value) *Inst {
	return newInst(OpRet, v.Type(), "", v)
}

// NewBr builds an unconditional branch to target.
func NewBr(target *Block) *Inst {
	i := newInst(OpBr, I1, "")
	i.Targets = []*Block{target}
	return i
}

// NewCondBr builds a conditional branch: then when cond is true, els
// otherwise.
func NewCondBr(cond Value, then, els *Block) *Inst {
	i := newInst(OpCondBr, I1, "", cond)
	i.Targets = []*Block{then, els}
	return i
}

// IsTerminator reports whether i ends a basic block.
func (i *Inst) IsTerminator() bool { return i.Op.Class() == ClassTerm }
