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

package scalarize

import "github.com/laneforge/go-laneforge/vir"

// reassembleUsedValues walks the values that some instruction needs in whole
// vector form and rebuilds any of them whose producer was decomposed.
func (s *Scalarizer) reassembleUsedValues() {
	for _, v := range s.usedWhole {
		s.reassemble(v)
	}
}

// reassemble rebuilds a decomposed vector value as an insertelement chain
//
//	%rebuilt = insertelement <4 x T> undef,     T %lane0, i32 0
//	%rebuilt = insertelement <4 x T> %rebuilt,  T %lane1, i32 1
//	...
//
// at the definition site of the removed producer, and redirects the
// producer's users to the chain. If the producer already is such a chain,
// it is kept instead of being rebuilt.
func (s *Scalarizer) reassemble(v vir.Value) {
	if vir.IsUndef(v) {
		return
	}
	e, ok := s.entries[v]
	if !ok || !e.removed {
		return
	}
	inst, ok := v.(*vir.Inst)
	if !ok {
		panic("scalarize: non-instruction value marked as removed")
	}

	if s.reviveInsertChain(inst, e) {
		return
	}

	pos := inst
	if inst.IsPhi() {
		pos = inst.Block.FirstNonPhi()
	}

	vt, _ := vir.VecOf(inst.Typ)
	var chain vir.Value = vir.NewUndef(vt)
	for i, lane := range e.lanes {
		ins := vir.NewInsertElem(chain, lane, vir.NewConstInt(vir.I32, int64(i)), "rebuilt")
		ins.InsertBefore(pos)
		s.inserted++
		chain = ins
	}
	inst.ReplaceAllUsesWith(chain)
	s.setEntry(chain, e.lanes, false)
}

// reviveInsertChain checks whether inst is the head of an insertelement
// chain rooted in undef whose effective lane values match the decomposition
// already recorded for it. If so, rebuilding the vector would reproduce the
// same chain, so the existing instructions are unmarked for removal and
// kept. This is what makes a second run of the pass a no-op.
func (s *Scalarizer) reviveInsertChain(inst *vir.Inst, e *laneEntry) bool {
	width := len(e.lanes)
	chain := make([]*vir.Inst, 0, width)
	lanes := make([]vir.Value, width)
	seen := make([]bool, width)

	cur := inst
	for {
		if cur.Op != vir.OpInsertElem || !s.removed[cur] {
			return false
		}
		idxC, ok := cur.Operand(2).(*vir.ConstInt)
		if !ok {
			return false
		}
		i := int(idxC.V)
		if i < 0 || i >= width {
			return false
		}
		chain = append(chain, cur)
		if !seen[i] {
			// Walking tail-first, the first write to a lane is the one
			// that survives.
			seen[i] = true
			lanes[i] = cur.Operand(1)
		}
		src := cur.Operand(0)
		if vir.IsUndef(src) {
			break
		}
		next, ok := src.(*vir.Inst)
		if !ok {
			return false
		}
		cur = next
	}

	for i := 0; i < width; i++ {
		if !seen[i] || !lanesEqual(lanes[i], e.lanes[i]) {
			return false
		}
	}

	for _, c := range chain {
		delete(s.removed, c)
		if ce, ok := s.entries[c]; ok {
			ce.removed = false
		}
	}
	return true
}

// lanesEqual compares lane values, treating structurally identical
// constants as equal since constant lanes are materialized fresh on every
// decomposition.
func lanesEqual(a, b vir.Value) bool {
	if a == b {
		return true
	}
	switch a := a.(type) {
	case *vir.Undef:
		bu, ok := b.(*vir.Undef)
		return ok && a.Typ == bu.Typ
	case *vir.ConstInt:
		bi, ok := b.(*vir.ConstInt)
		return ok && a.Typ == bi.Typ && a.V == bi.V
	case *vir.ConstFloat:
		bf, ok := b.(*vir.ConstFloat)
		return ok && a.Typ == bf.Typ && a.V == bf.V
	}
	return false
}
