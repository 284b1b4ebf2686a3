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
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// String renders the function in a deterministic LLVM-flavored textual form.
// Names are uniqued in program order, so two structurally identical
// functions print identically.
func (f *Function) String() string {
	p := &printer{names: make(map[Value]string), taken: make(map[string]bool)}
	for _, a := range f.Params {
		p.assign(a, a.Name)
	}
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if hasResult(inst) {
				p.assign(inst, inst.Name)
			}
		}
	}

	var sb strings.Builder
	params := lo.Map(f.Params, func(a *Arg, _ int) string {
		return a.Typ.String() + " " + p.ref(a)
	})
	fmt.Fprintf(&sb, "define @%s(%s) {\n", f.Name, strings.Join(params, ", "))
	for bi, b := range f.Blocks {
		if bi > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s:\n", b.Name)
		for _, inst := range b.Insts {
			sb.WriteString("  " + p.inst(inst) + "\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func hasResult(i *Inst) bool {
	switch i.Op {
	case OpStore, OpRet, OpBr, OpCondBr:
		return false
	}
	return true
}

type printer struct {
	names map[Value]string
	taken map[string]bool
	tmp   int
}

func (p *printer) assign(v Value, base string) {
	if base == "" {
		base = "t" + strconv.Itoa(p.tmp)
		p.tmp++
	}
	name := base
	for n := 1; p.taken[name]; n++ {
		name = base + "." + strconv.Itoa(n)
	}
	p.taken[name] = true
	p.names[v] = name
}

// ref renders a value reference as it appears in an operand position.
func (p *printer) ref(v Value) string {
	switch v := v.(type) {
	case *ConstInt:
		return strconv.FormatInt(v.V, 10)
	case *ConstFloat:
		return strconv.FormatFloat(v.V, 'g', -1, 64)
	case *ConstNull:
		return "null"
	case *Undef:
		return "undef"
	case *ConstVector:
		elems := lo.Map(v.Elems, func(e Constant, _ int) string {
			return e.Type().String() + " " + p.ref(e)
		})
		return "<" + strings.Join(elems, ", ") + ">"
	default:
		if name, ok := p.names[v]; ok {
			return "%" + name
		}
		return "%?"
	}
}

func (p *printer) typedRef(v Value) string {
	return v.Type().String() + " " + p.ref(v)
}

func (p *printer) inst(i *Inst) string {
	var rhs string
	switch i.Op.Class() {
	case ClassBinary:
		rhs = fmt.Sprintf("%s%s %s %s, %s", i.Op, flagString(i), i.Typ, p.ref(i.Operand(0)), p.ref(i.Operand(1)))
	case ClassCmp:
		rhs = fmt.Sprintf("%s %s %s %s, %s", i.Op, i.Pred, i.Operand(0).Type(), p.ref(i.Operand(0)), p.ref(i.Operand(1)))
	case ClassCast:
		rhs = fmt.Sprintf("%s %s to %s", i.Op, p.typedRef(i.Operand(0)), i.Typ)
	case ClassPhi:
		incs := make([]string, i.NumOperands())
		for k := range incs {
			incs[k] = fmt.Sprintf("[ %s, %%%s ]", p.ref(i.Operand(k)), i.Incoming[k].Name)
		}
		rhs = fmt.Sprintf("phi %s %s", i.Typ, strings.Join(incs, ", "))
	case ClassSelect:
		rhs = fmt.Sprintf("select %s, %s, %s",
			p.typedRef(i.Operand(0)), p.typedRef(i.Operand(1)), p.typedRef(i.Operand(2)))
	case ClassExtract:
		rhs = fmt.Sprintf("extractelement %s, %s", p.typedRef(i.Operand(0)), p.typedRef(i.Operand(1)))
	case ClassInsert:
		rhs = fmt.Sprintf("insertelement %s, %s, %s",
			p.typedRef(i.Operand(0)), p.typedRef(i.Operand(1)), p.typedRef(i.Operand(2)))
	case ClassShuffle:
		mask := lo.Map(i.Mask, func(m int, _ int) string {
			if m < 0 {
				return "undef"
			}
			return strconv.Itoa(m)
		})
		rhs = fmt.Sprintf("shufflevector %s, %s, <%s>",
			p.typedRef(i.Operand(0)), p.typedRef(i.Operand(1)), strings.Join(mask, ", "))
	case ClassLoad:
		rhs = fmt.Sprintf("load %s", p.typedRef(i.Operand(0)))
	case ClassStore:
		return fmt.Sprintf("store %s, %s", p.typedRef(i.Operand(0)), p.typedRef(i.Operand(1)))
	case ClassGEP:
		rhs = fmt.Sprintf("getelementptr %s, %s", p.typedRef(i.Operand(0)), p.typedRef(i.Operand(1)))
	case ClassAlloca:
		rhs = fmt.Sprintf("alloca %s", i.Typ.(PtrType).Elem)
	case ClassCall:
		args := lo.Map(i.Operands(), func(a Value, _ int) string { return p.typedRef(a) })
		rhs = fmt.Sprintf("call %s @%s(%s)", i.Typ, i.Callee.Name, strings.Join(args, ", "))
	case ClassTerm:
		switch i.Op {
		case OpRet:
			return "ret " + p.typedRef(i.Operand(0))
		case OpBr:
			return "br label %" + i.Targets[0].Name
		case OpCondBr:
			return fmt.Sprintf("br %s, label %%%s, label %%%s",
				p.typedRef(i.Operand(0)), i.Targets[0].Name, i.Targets[1].Name)
		}
	default:
		rhs = i.Op.String()
	}
	return "%" + p.names[i] + " = " + rhs
}

func flagString(i *Inst) string {
	var parts []string
	if i.Flags.NUW {
		parts = append(parts, "nuw")
	}
	if i.Flags.NSW {
		parts = append(parts, "nsw")
	}
	if i.Flags.Exact {
		parts = append(parts, "exact")
	}
	if i.Flags.Fast {
		parts = append(parts, "fast")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}
