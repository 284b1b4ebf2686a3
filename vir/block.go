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

// Block is a basic block: a named, ordered instruction sequence inside a
// function. Phi nodes, when present, form a cluster at the top.
type Block struct {
	Name   string
	Parent *Function
	Insts  []*Inst
}

// Append adds inst at the end of the block.
func (b *Block) Append(inst *Inst) *Inst {
	if inst.Block != nil {
		panic("vir: instruction already placed")
	}
	inst.Block = b
	b.Insts = append(b.Insts, inst)
	return inst
}

func (b *Block) insertAt(idx int, inst *Inst) {
	inst.Block = b
	b.Insts = append(b.Insts, nil)
	copy(b.Insts[idx+1:], b.Insts[idx:])
	b.Insts[idx] = inst
}

func (b *Block) indexOf(inst *Inst) int {
	for i, x := range b.Insts {
		if x == inst {
			return i
		}
	}
	panic(fmt.Sprintf("vir: instruction not in block %s", b.Name))
}

func (b *Block) remove(inst *Inst) {
	idx := b.indexOf(inst)
	b.Insts = append(b.Insts[:idx], b.Insts[idx+1:]...)
	inst.Block = nil
}

// FirstNonPhi returns the first instruction past the leading phi cluster.
func (b *Block) FirstNonPhi() *Inst {
	for _, inst := range b.Insts {
		if !inst.IsPhi() {
			return inst
		}
	}
	return nil
}

// Terminator returns the block's final instruction if it is a terminator.
func (b *Block) Terminator() *Inst {
	if len(b.Insts) == 0 {
		return nil
	}
	last := b.Insts[len(b.Insts)-1]
	if !last.IsTerminator() {
		return nil
	}
	return last
}
