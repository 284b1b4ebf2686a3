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

import (
	"github.com/samber/lo"

	"github.com/laneforge/go-laneforge/vir"
)

// laneEntry records the per-lane decomposition of one vector value. An entry
// with no lanes marks a value that was visited but kept in vector form.
// removed is set when the original producer is scheduled for deletion.
type laneEntry struct {
	lanes   []vir.Value
	removed bool
}

const entryBlockSize = 64

// entryPool hands out laneEntry storage in fixed-size blocks. reset keeps the
// first block so the arena and the lane slices inside it retain their
// capacity across functions.
type entryPool struct {
	blocks [][]laneEntry
	used   int
}

func (p *entryPool) get() *laneEntry {
	if len(p.blocks) == 0 || p.used == entryBlockSize {
		p.blocks = append(p.blocks, make([]laneEntry, entryBlockSize))
		p.used = 0
	}
	e := &p.blocks[len(p.blocks)-1][p.used]
	p.used++
	e.lanes = e.lanes[:0]
	e.removed = false
	return e
}

func (p *entryPool) reset() {
	if len(p.blocks) > 1 {
		p.blocks = p.blocks[:1]
	}
	p.used = 0
}

// entryFor returns the lane entry of v, creating an empty one if needed.
func (s *Scalarizer) entryFor(v vir.Value) *laneEntry {
	if e, ok := s.entries[v]; ok {
		return e
	}
	e := s.pool.get()
	s.entries[v] = e
	return e
}

// setEntry fills the lane entry of v with lanes and the removed mark.
func (s *Scalarizer) setEntry(v vir.Value, lanes []vir.Value, removed bool) *laneEntry {
	vt, ok := vir.VecOf(v.Type())
	if !ok {
		panic("scalarize: lane entry for non-vector value")
	}
	if len(lanes) != vt.Len {
		panic("scalarize: lane count mismatch")
	}
	for _, l := range lanes {
		if l == nil {
			panic("scalarize: nil lane in lane entry")
		}
	}
	e := s.entryFor(v)
	e.lanes = append(e.lanes[:0], lanes...)
	e.removed = removed
	return e
}

// deferredLanes records a forward reference: src had no decomposition when a
// consumer needed it, so the consumer was wired to placeholders instead. The
// placeholders are swapped for the real lanes once traversal is complete.
type deferredLanes struct {
	src          *vir.Inst
	placeholders []*vir.Inst
}

// Placeholders are loads from a typed null pointer that are never placed in
// a block. They only exist to stand in for a lane value in use lists.
func newPlaceholder(elem vir.Type) *vir.Inst {
	return vir.NewLoad(vir.NewConstNull(vir.Ptr(elem)), "pending")
}

func isPlaceholder(v vir.Value) bool {
	inst, ok := v.(*vir.Inst)
	if !ok || inst.Op != vir.OpLoad || inst.Block != nil {
		return false
	}
	_, null := inst.Operand(0).(*vir.ConstNull)
	return null
}

// lanesOf returns the lane decomposition of the vector value v. isConst
// reports whether v is a constant, which callers use to skip rewriting
// all-constant instructions.
//
// The returned slice is freshly allocated; callers may overwrite slots.
func (s *Scalarizer) lanesOf(v vir.Value) (lanes []vir.Value, isConst bool) {
	vt, ok := vir.VecOf(v.Type())
	if !ok {
		panic("scalarize: lanesOf on non-vector value")
	}
	width := vt.Len
	isConst = vir.IsConstant(v)

	if e, ok := s.entries[v]; ok && len(e.lanes) > 0 {
		return append([]vir.Value(nil), e.lanes...), isConst
	}

	if vir.IsUndef(v) {
		und := vir.NewUndef(vt.Elem)
		lanes = make([]vir.Value, width)
		for i := range lanes {
			lanes[i] = und
		}
		return lanes, isConst
	}

	if c, ok := v.(vir.Constant); ok {
		lanes = make([]vir.Value, width)
		for i := range lanes {
			lanes[i] = vir.LaneConstant(c, i)
		}
		return lanes, isConst
	}

	if inst, ok := v.(*vir.Inst); ok {
		if _, visited := s.entries[v]; !visited {
			// Forward reference: the producer lives in a block we have not
			// traversed yet. Hand out placeholders and defer the fixup.
			phs := make([]*vir.Inst, width)
			lanes = make([]vir.Value, width)
			for i := range phs {
				phs[i] = newPlaceholder(vt.Elem)
				lanes[i] = phs[i]
			}
			s.deferred = append(s.deferred, deferredLanes{src: inst, placeholders: phs})
			return lanes, isConst
		}
	}

	// The producer keeps its vector form (argument, or an instruction that
	// was visited and left intact). Break the vector apart with real
	// extracts placed right after its definition, and cache the result.
	return s.synthesizeExtracts(v, vt), isConst
}

func (s *Scalarizer) synthesizeExtracts(v vir.Value, vt vir.VecType) []vir.Value {
	lanes := make([]vir.Value, vt.Len)
	var prev *vir.Inst
	for i := range lanes {
		ext := vir.NewExtractElem(v, vir.NewConstInt(vir.I32, int64(i)), "lane")
		if prev == nil {
			s.insertAtDefinition(ext, v)
		} else {
			ext.InsertAfter(prev)
		}
		prev = ext
		s.inserted++
		lanes[i] = ext
	}
	s.setEntry(v, lanes, false)
	return lanes
}

// insertAtDefinition places e immediately after the definition point of v:
// after the instruction itself (past any phi cluster), or at the head of the
// entry block for arguments.
func (s *Scalarizer) insertAtDefinition(e *vir.Inst, v vir.Value) {
	if inst, ok := v.(*vir.Inst); ok {
		if inst.IsPhi() {
			e.InsertBefore(inst.Block.FirstNonPhi())
			return
		}
		e.InsertAfter(inst)
		return
	}
	e.InsertBefore(s.fn.Entry().Insts[0])
}

// resolveDeferred closes every forward reference recorded during traversal.
// If the producer was never decomposed, or some of its lanes are still
// placeholders, the missing lanes are materialized as extracts at the
// producer's definition before the placeholders are replaced.
//
// The records form a worklist: when a producer was itself removed and its
// lanes still hold placeholders from another record, resolution waits for
// that record to land and substitutes through it. Extracting from a removed
// producer would wire its consumers to undef once deletion runs.
func (s *Scalarizer) resolveDeferred() {
	resolved := make(map[vir.Value]vir.Value)
	work := s.deferred
	for len(work) > 0 {
		var stalled []deferredLanes
		for _, d := range work {
			e := s.entryFor(d.src)
			vt, ok := vir.VecOf(d.src.Typ)
			if !ok {
				panic("scalarize: deferred resolution of non-vector instruction")
			}
			width := vt.Len

			for i, l := range e.lanes {
				if r, ok := resolved[l]; ok {
					e.lanes[i] = r
				}
			}
			if s.removed[d.src] && lo.SomeBy(e.lanes, isPlaceholder) {
				stalled = append(stalled, d)
				continue
			}

			if len(e.lanes) == 0 || lo.SomeBy(e.lanes, isPlaceholder) {
				lanes := make([]vir.Value, width)
				var prev *vir.Inst
				for i := range lanes {
					if len(e.lanes) == width && !isPlaceholder(e.lanes[i]) {
						lanes[i] = e.lanes[i]
						continue
					}
					ext := vir.NewExtractElem(d.src, vir.NewConstInt(vir.I32, int64(i)), "lane")
					if prev == nil {
						s.insertAtDefinition(ext, d.src)
					} else {
						ext.InsertAfter(prev)
					}
					prev = ext
					s.inserted++
					lanes[i] = ext
				}
				e = s.setEntry(d.src, lanes, false)
			}

			for i, ph := range d.placeholders {
				ph.ReplaceAllUsesWith(e.lanes[i])
				resolved[ph] = e.lanes[i]
			}
		}
		if len(stalled) == len(work) {
			// Only reachable when a lane depends on itself, which valid SSA
			// cannot express without a phi, and phi lanes are never
			// placeholders.
			panic("scalarize: deferred lane resolution stalled")
		}
		work = stalled
	}
	s.deferred = s.deferred[:0]
}
