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
	"strings"
	"testing"
)

func TestEvalVectorArith(t *testing.T) {
	fn := NewFunction("f")
	a := fn.AddParam("a", Vec(I32, 4))
	b := fn.AddParam("b", Vec(I32, 4))
	entry := fn.NewBlock("entry")
	sum := entry.Append(NewBinary(OpAdd, a, b, "sum"))
	mul := entry.Append(NewBinary(OpMul, sum, b, "mul"))
	entry.Append(NewRet(mul))

	got, err := Eval(fn, []Val{
		VecIntVal(Vec(I32, 4), 1, 2, 3, 4),
		VecIntVal(Vec(I32, 4), 10, 20, 30, 40),
	}, 100)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{110, 440, 990, 1760}
	for i := range want {
		if got.Lane(i) != want[i] {
			t.Errorf("lane %d = %d, want %d", i, got.Lane(i), want[i])
		}
	}
}

func TestEvalShuffleInsertExtract(t *testing.T) {
	fn := NewFunction("f")
	a := fn.AddParam("a", Vec(I32, 2))
	b := fn.AddParam("b", Vec(I32, 2))
	entry := fn.NewBlock("entry")
	shuf := entry.Append(NewShuffle(a, b, []int{3, 0, 2, 1}, "shuf"))
	ins := entry.Append(NewInsertElem(shuf, NewConstInt(I32, 99), NewConstInt(I32, 2), "ins"))
	ext := entry.Append(NewExtractElem(ins, NewConstInt(I32, 2), "ext"))
	entry.Append(NewRet(ext))

	got, err := Eval(fn, []Val{
		VecIntVal(Vec(I32, 2), 1, 2),
		VecIntVal(Vec(I32, 2), 3, 4),
	}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if got.Int() != 99 {
		t.Errorf("got %d, want 99", got.Int())
	}
}

func TestEvalLoop(t *testing.T) {
	// Sums the lanes of a <4 x i32> with a counted loop of extracts.
	fn := NewFunction("sumlanes")
	v := fn.AddParam("v", Vec(I32, 4))
	entry := fn.NewBlock("entry")
	loop := fn.NewBlock("loop")
	exit := fn.NewBlock("exit")
	entry.Append(NewBr(loop))

	i := NewPhi(I32, "i")
	loop.Append(i)
	acc := NewPhi(I32, "acc")
	loop.Append(acc)
	lane := loop.Append(NewExtractElem(v, i, "lane"))
	next := loop.Append(NewBinary(OpAdd, acc, lane, "next"))
	inext := loop.Append(NewBinary(OpAdd, i, NewConstInt(I32, 1), "inext"))
	cond := loop.Append(NewICmp(PredSLT, inext, NewConstInt(I32, 4), "cond"))
	loop.Append(NewCondBr(cond, loop, exit))
	exit.Append(NewRet(next))

	i.AddIncoming(NewConstInt(I32, 0), entry)
	i.AddIncoming(inext, loop)
	acc.AddIncoming(NewConstInt(I32, 0), entry)
	acc.AddIncoming(next, loop)

	got, err := Eval(fn, []Val{VecIntVal(Vec(I32, 4), 5, 6, 7, 8)}, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if got.Int() != 26 {
		t.Errorf("got %d, want 26", got.Int())
	}
}

func TestEvalFloatAndCmp(t *testing.T) {
	fn := NewFunction("f")
	a := fn.AddParam("a", Vec(F32, 2))
	b := fn.AddParam("b", Vec(F32, 2))
	entry := fn.NewBlock("entry")
	cmp := entry.Append(NewFCmp(PredOLT, a, b, "cmp"))
	sel := entry.Append(NewSelect(cmp, a, b, "sel"))
	entry.Append(NewRet(sel))

	got, err := Eval(fn, []Val{
		VecFloatVal(Vec(F32, 2), 1.5, 9.0),
		VecFloatVal(Vec(F32, 2), 2.5, 3.0),
	}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if decodeFloat(got.Lane(0), 32) != 1.5 || decodeFloat(got.Lane(1), 32) != 3.0 {
		t.Errorf("got lanes %v %v, want 1.5 3.0",
			decodeFloat(got.Lane(0), 32), decodeFloat(got.Lane(1), 32))
	}
}

func TestEvalErrors(t *testing.T) {
	fn := NewFunction("f")
	p := fn.AddParam("p", Ptr(I32))
	entry := fn.NewBlock("entry")
	ld := entry.Append(NewLoad(p, "ld"))
	entry.Append(NewRet(ld))

	_, err := Eval(fn, []Val{{Typ: Ptr(I32), Words: []uint64{0}}}, 100)
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("load eval error = %v, want unsupported", err)
	}

	g := NewFunction("g")
	ge := g.NewBlock("entry")
	ge.Append(NewBr(ge))
	_, err = Eval(g, nil, 10)
	if err == nil || !strings.Contains(err.Error(), "step limit") {
		t.Errorf("infinite loop error = %v, want step limit", err)
	}

	h := NewFunction("h")
	x := h.AddParam("x", I32)
	he := h.NewBlock("entry")
	div := he.Append(NewBinary(OpSDiv, x, NewConstInt(I32, 0), "div"))
	he.Append(NewRet(div))
	_, err = Eval(h, []Val{IntVal(I32, 1)}, 10)
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Errorf("sdiv error = %v, want division by zero", err)
	}
}

func TestEvalCasts(t *testing.T) {
	fn := NewFunction("f")
	a := fn.AddParam("a", Vec(I16, 2))
	entry := fn.NewBlock("entry")
	ext := entry.Append(NewCast(OpSExt, a, Vec(I32, 2), "wide"))
	entry.Append(NewRet(ext))

	got, err := Eval(fn, []Val{VecIntVal(Vec(I16, 2), -1, 300)}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if sextBits(got.Lane(0), 32) != -1 || got.Lane(1) != 300 {
		t.Errorf("sext lanes = %d %d, want -1 300", sextBits(got.Lane(0), 32), got.Lane(1))
	}
}
