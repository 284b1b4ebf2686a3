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

// Function is a function body: an ordered list of basic blocks, the first of
// which is the entry block.
type Function struct {
	Name   string
	Params []*Arg
	Blocks []*Block
}

// NewFunction returns an empty function.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// AddParam declares a new function argument.
func (f *Function) AddParam(name string, t Type) *Arg {
	a := &Arg{Name: name, Typ: t, Index: len(f.Params)}
	f.Params = append(f.Params, a)
	return a
}

// NewBlock appends a new empty block to the function.
func (f *Function) NewBlock(name string) *Block {
	b := &Block{Name: name, Parent: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Entry returns the entry block.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		panic("vir: function has no blocks")
	}
	return f.Blocks[0]
}

// Instructions returns a snapshot of all instructions in program order.
// Mutating the function does not affect a previously taken snapshot.
func (f *Function) Instructions() []*Inst {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Insts)
	}
	out := make([]*Inst, 0, n)
	for _, b := range f.Blocks {
		out = append(out, b.Insts...)
	}
	return out
}

// NumInsts returns the instruction count across all blocks.
func (f *Function) NumInsts() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Insts)
	}
	return n
}
