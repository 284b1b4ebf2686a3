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

import (
	"fmt"
	"math"
)

// Val is a concrete runtime value used by Eval. Scalars occupy one word,
// vectors one word per lane. Words hold raw bit patterns sized to the type:
// integers are truncated to their width, float32 values are stored as their
// 32-bit encoding, float64 values as their 64-bit encoding. Undefined values
// evaluate to zero.
type Val struct {
	Typ   Type
	Words []uint64
}

// IntVal builds a scalar integer runtime value.
func IntVal(t IntType, v int64) Val {
	return Val{Typ: t, Words: []uint64{truncBits(uint64(v), t.Bits)}}
}

// FloatVal builds a scalar floating-point runtime value.
func FloatVal(t FloatType, v float64) Val {
	return Val{Typ: t, Words: []uint64{encodeFloat(v, t.Bits)}}
}

// VecIntVal builds an integer vector runtime value, one entry per lane.
func VecIntVal(t VecType, vs ...int64) Val {
	it, ok := t.Elem.(IntType)
	if !ok {
		panic("vir: VecIntVal with non-integer element type")
	}
	if len(vs) != t.Len {
		panic("vir: VecIntVal lane count mismatch")
	}
	words := make([]uint64, len(vs))
	for i, v := range vs {
		words[i] = truncBits(uint64(v), it.Bits)
	}
	return Val{Typ: t, Words: words}
}

// VecFloatVal builds a floating-point vector runtime value.
func VecFloatVal(t VecType, vs ...float64) Val {
	ft, ok := t.Elem.(FloatType)
	if !ok {
		panic("vir: VecFloatVal with non-float element type")
	}
	if len(vs) != t.Len {
		panic("vir: VecFloatVal lane count mismatch")
	}
	words := make([]uint64, len(vs))
	for i, v := range vs {
		words[i] = encodeFloat(v, ft.Bits)
	}
	return Val{Typ: t, Words: words}
}

// Int returns the sign-extended value of a scalar integer Val.
func (v Val) Int() int64 {
	it := v.Typ.(IntType)
	return sextBits(v.Words[0], it.Bits)
}

// Lane returns the raw word of lane i.
func (v Val) Lane(i int) uint64 { return v.Words[i] }

// Eval executes fn on args, following control flow for at most maxSteps
// instructions, and returns the value of the first ret reached. Memory and
// call instructions are not modeled and yield an error.
func Eval(fn *Function, args []Val, maxSteps int) (Val, error) {
	if len(args) != len(fn.Params) {
		return Val{}, fmt.Errorf("eval %s: got %d args, want %d", fn.Name, len(args), len(fn.Params))
	}
	env := make(map[Value]Val)
	for i, a := range fn.Params {
		if args[i].Typ != a.Typ {
			return Val{}, fmt.Errorf("eval %s: arg %d has type %v, want %v", fn.Name, i, args[i].Typ, a.Typ)
		}
		env[a] = args[i]
	}

	block := fn.Entry()
	var prev *Block
	steps := 0
	for {
		// Phi nodes read their inputs in parallel on block entry.
		var phiVals []Val
		var phis []*Inst
		for _, inst := range block.Insts {
			if !inst.IsPhi() {
				break
			}
			v, err := evalPhi(inst, prev, env)
			if err != nil {
				return Val{}, err
			}
			phis = append(phis, inst)
			phiVals = append(phiVals, v)
		}
		for i, inst := range phis {
			env[inst] = phiVals[i]
		}

		for _, inst := range block.Insts[len(phis):] {
			steps++
			if steps > maxSteps {
				return Val{}, fmt.Errorf("eval %s: step limit %d exceeded", fn.Name, maxSteps)
			}
			switch inst.Op {
			case OpRet:
				return operand(inst.Operand(0), env)
			case OpBr:
				prev, block = block, inst.Targets[0]
			case OpCondBr:
				c, err := operand(inst.Operand(0), env)
				if err != nil {
					return Val{}, err
				}
				if c.Words[0] != 0 {
					prev, block = block, inst.Targets[0]
				} else {
					prev, block = block, inst.Targets[1]
				}
			default:
				v, err := evalInst(inst, env)
				if err != nil {
					return Val{}, err
				}
				env[inst] = v
			}
			if inst.IsTerminator() {
				break
			}
		}
		if t := block.Terminator(); t == nil {
			return Val{}, fmt.Errorf("eval %s: block %s has no terminator", fn.Name, block.Name)
		}
	}
}

func operand(v Value, env map[Value]Val) (Val, error) {
	if c, ok := v.(Constant); ok {
		return constVal(c), nil
	}
	val, ok := env[v]
	if !ok {
		return Val{}, fmt.Errorf("eval: use of undefined value %T", v)
	}
	return val, nil
}

func constVal(c Constant) Val {
	switch c := c.(type) {
	case *ConstInt:
		return IntVal(c.Typ, c.V)
	case *ConstFloat:
		return FloatVal(c.Typ, c.V)
	case *ConstNull:
		return Val{Typ: c.Typ, Words: []uint64{0}}
	case *Undef:
		return zeroVal(c.Typ)
	case *ConstVector:
		words := make([]uint64, len(c.Elems))
		for i, e := range c.Elems {
			words[i] = constVal(e).Words[0]
		}
		return Val{Typ: c.Typ, Words: words}
	default:
		panic(fmt.Sprintf("vir: unknown constant %T", c))
	}
}

func zeroVal(t Type) Val {
	if vt, ok := t.(VecType); ok {
		return Val{Typ: t, Words: make([]uint64, vt.Len)}
	}
	return Val{Typ: t, Words: []uint64{0}}
}

func evalPhi(inst *Inst, prev *Block, env map[Value]Val) (Val, error) {
	for k := range inst.Incoming {
		if inst.Incoming[k] == prev {
			return operand(inst.Operand(k), env)
		}
	}
	return Val{}, fmt.Errorf("eval: phi in %s has no incoming edge from predecessor", inst.Block.Name)
}

func evalInst(inst *Inst, env map[Value]Val) (Val, error) {
	switch inst.Op.Class() {
	case ClassBinary:
		x, err := operand(inst.Operand(0), env)
		if err != nil {
			return Val{}, err
		}
		y, err := operand(inst.Operand(1), env)
		if err != nil {
			return Val{}, err
		}
		return mapLanes2(inst.Typ, x, y, func(a, b uint64, elem Type) (uint64, error) {
			return evalBinaryWord(inst.Op, elem, a, b)
		})
	case ClassCmp:
		x, err := operand(inst.Operand(0), env)
		if err != nil {
			return Val{}, err
		}
		y, err := operand(inst.Operand(1), env)
		if err != nil {
			return Val{}, err
		}
		elem := scalarElem(inst.Operand(0).Type())
		out := zeroVal(inst.Typ)
		for i := range x.Words {
			if evalCmpWord(inst.Pred, elem, x.Words[i], y.Words[i]) {
				out.Words[i] = 1
			}
		}
		return out, nil
	case ClassCast:
		x, err := operand(inst.Operand(0), env)
		if err != nil {
			return Val{}, err
		}
		from := scalarElem(inst.Operand(0).Type())
		to := scalarElem(inst.Typ)
		out := zeroVal(inst.Typ)
		if len(out.Words) != len(x.Words) {
			return Val{}, fmt.Errorf("eval: cast lane count mismatch")
		}
		for i := range x.Words {
			out.Words[i] = evalCastWord(inst.Op, from, to, x.Words[i])
		}
		return out, nil
	case ClassSelect:
		c, err := operand(inst.Operand(0), env)
		if err != nil {
			return Val{}, err
		}
		t, err := operand(inst.Operand(1), env)
		if err != nil {
			return Val{}, err
		}
		f, err := operand(inst.Operand(2), env)
		if err != nil {
			return Val{}, err
		}
		out := zeroVal(inst.Typ)
		for i := range out.Words {
			cond := c.Words[0]
			if len(c.Words) > 1 {
				cond = c.Words[i]
			}
			if cond != 0 {
				out.Words[i] = t.Words[i]
			} else {
				out.Words[i] = f.Words[i]
			}
		}
		return out, nil
	case ClassExtract:
		v, err := operand(inst.Operand(0), env)
		if err != nil {
			return Val{}, err
		}
		idx, err := operand(inst.Operand(1), env)
		if err != nil {
			return Val{}, err
		}
		i := int(idx.Int())
		if i < 0 || i >= len(v.Words) {
			return Val{}, fmt.Errorf("eval: extractelement index %d out of range", i)
		}
		return Val{Typ: inst.Typ, Words: []uint64{v.Words[i]}}, nil
	case ClassInsert:
		v, err := operand(inst.Operand(0), env)
		if err != nil {
			return Val{}, err
		}
		e, err := operand(inst.Operand(1), env)
		if err != nil {
			return Val{}, err
		}
		idx, err := operand(inst.Operand(2), env)
		if err != nil {
			return Val{}, err
		}
		i := int(idx.Int())
		if i < 0 || i >= len(v.Words) {
			return Val{}, fmt.Errorf("eval: insertelement index %d out of range", i)
		}
		out := Val{Typ: inst.Typ, Words: append([]uint64(nil), v.Words...)}
		out.Words[i] = e.Words[0]
		return out, nil
	case ClassShuffle:
		x, err := operand(inst.Operand(0), env)
		if err != nil {
			return Val{}, err
		}
		y, err := operand(inst.Operand(1), env)
		if err != nil {
			return Val{}, err
		}
		all := append(append([]uint64(nil), x.Words...), y.Words...)
		out := zeroVal(inst.Typ)
		for i, m := range inst.Mask {
			if m >= 0 && m < len(all) {
				out.Words[i] = all[m]
			}
		}
		return out, nil
	default:
		return Val{}, fmt.Errorf("eval: unsupported instruction %s", inst.Op)
	}
}

func scalarElem(t Type) Type {
	if vt, ok := t.(VecType); ok {
		return vt.Elem
	}
	return t
}

func mapLanes2(resType Type, x, y Val, f func(a, b uint64, elem Type) (uint64, error)) (Val, error) {
	elem := scalarElem(resType)
	out := zeroVal(resType)
	for i := range out.Words {
		w, err := f(x.Words[i], y.Words[i], elem)
		if err != nil {
			return Val{}, err
		}
		out.Words[i] = w
	}
	return out, nil
}

func truncBits(x uint64, bits int) uint64 {
	if bits >= 64 {
		return x
	}
	return x & (1<<uint(bits) - 1)
}

func sextBits(x uint64, bits int) int64 {
	if bits >= 64 {
		return int64(x)
	}
	shift := uint(64 - bits)
	return int64(x<<shift) >> shift
}

func encodeFloat(v float64, bits int) uint64 {
	if bits == 32 {
		return uint64(math.Float32bits(float32(v)))
	}
	return math.Float64bits(v)
}

func decodeFloat(w uint64, bits int) float64 {
	if bits == 32 {
		return float64(math.Float32frombits(uint32(w)))
	}
	return math.Float64frombits(w)
}

func evalBinaryWord(op Opcode, elem Type, a, b uint64) (uint64, error) {
	if ft, ok := elem.(FloatType); ok {
		x := decodeFloat(a, ft.Bits)
		y := decodeFloat(b, ft.Bits)
		var r float64
		switch op {
		case OpFAdd:
			r = x + y
		case OpFSub:
			r = x - y
		case OpFMul:
			r = x * y
		case OpFDiv:
			r = x / y
		case OpFRem:
			r = math.Mod(x, y)
		default:
			return 0, fmt.Errorf("eval: %s on float operands", op)
		}
		return encodeFloat(r, ft.Bits), nil
	}

	it, ok := elem.(IntType)
	if !ok {
		return 0, fmt.Errorf("eval: %s on %v operands", op, elem)
	}
	w := it.Bits
	switch op {
	case OpAdd:
		return truncBits(a+b, w), nil
	case OpSub:
		return truncBits(a-b, w), nil
	case OpMul:
		return truncBits(a*b, w), nil
	case OpUDiv:
		if b == 0 {
			return 0, fmt.Errorf("eval: division by zero")
		}
		return truncBits(a/b, w), nil
	case OpURem:
		if b == 0 {
			return 0, fmt.Errorf("eval: division by zero")
		}
		return truncBits(a%b, w), nil
	case OpSDiv:
		if b == 0 {
			return 0, fmt.Errorf("eval: division by zero")
		}
		return truncBits(uint64(sextBits(a, w)/sextBits(b, w)), w), nil
	case OpSRem:
		if b == 0 {
			return 0, fmt.Errorf("eval: division by zero")
		}
		return truncBits(uint64(sextBits(a, w)%sextBits(b, w)), w), nil
	case OpShl:
		if b >= uint64(w) {
			return 0, nil
		}
		return truncBits(a<<b, w), nil
	case OpLShr:
		if b >= uint64(w) {
			return 0, nil
		}
		return a >> b, nil
	case OpAShr:
		if b >= uint64(w) {
			b = uint64(w - 1)
		}
		return truncBits(uint64(sextBits(a, w)>>b), w), nil
	case OpAnd:
		return a & b, nil
	case OpOr:
		return a | b, nil
	case OpXor:
		return a ^ b, nil
	default:
		return 0, fmt.Errorf("eval: %s on integer operands", op)
	}
}

func evalCmpWord(p Pred, elem Type, a, b uint64) bool {
	if ft, ok := elem.(FloatType); ok {
		x := decodeFloat(a, ft.Bits)
		y := decodeFloat(b, ft.Bits)
		if math.IsNaN(x) || math.IsNaN(y) {
			return false // ordered predicates only
		}
		switch p {
		case PredOEQ:
			return x == y
		case PredONE:
			return x != y
		case PredOLT:
			return x < y
		case PredOLE:
			return x <= y
		case PredOGT:
			return x > y
		case PredOGE:
			return x >= y
		}
		return false
	}
	w := elem.(IntType).Bits
	sa, sb := sextBits(a, w), sextBits(b, w)
	switch p {
	case PredEQ:
		return a == b
	case PredNE:
		return a != b
	case PredSLT:
		return sa < sb
	case PredSLE:
		return sa <= sb
	case PredSGT:
		return sa > sb
	case PredSGE:
		return sa >= sb
	case PredULT:
		return a < b
	case PredULE:
		return a <= b
	case PredUGT:
		return a > b
	case PredUGE:
		return a >= b
	}
	return false
}

func evalCastWord(op Opcode, from, to Type, a uint64) uint64 {
	switch op {
	case OpTrunc:
		return truncBits(a, to.(IntType).Bits)
	case OpZExt, OpBitCast, OpPtrToInt, OpIntToPtr:
		return a
	case OpSExt:
		return truncBits(uint64(sextBits(a, from.(IntType).Bits)), to.(IntType).Bits)
	case OpFPToUI:
		f := decodeFloat(a, from.(FloatType).Bits)
		return truncBits(uint64(f), to.(IntType).Bits)
	case OpFPToSI:
		f := decodeFloat(a, from.(FloatType).Bits)
		return truncBits(uint64(int64(f)), to.(IntType).Bits)
	case OpUIToFP:
		return encodeFloat(float64(a), to.(FloatType).Bits)
	case OpSIToFP:
		return encodeFloat(float64(sextBits(a, from.(IntType).Bits)), to.(FloatType).Bits)
	case OpFPTrunc, OpFPExt:
		return encodeFloat(decodeFloat(a, from.(FloatType).Bits), to.(FloatType).Bits)
	default:
		return a
	}
}
