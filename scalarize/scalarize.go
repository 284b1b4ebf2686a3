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

// Package scalarize rewrites vector instructions into per-lane scalar
// instructions. Vector producers with elementwise semantics (arithmetic,
// compares, casts, phis, selects, and the shuffle family) are decomposed
// into one scalar instruction per lane and deleted; values that must stay
// whole (call arguments, returns, opaque producers) are reassembled from
// their lanes at the definition site. The pass is a fixpoint: running it on
// its own output reports no change.
package scalarize

import (
	"github.com/laneforge/go-laneforge/vir"
)

// Config controls the rewrite.
type Config struct {
	// ScalarizeVectorLoadStore also breaks vector loads and stores into
	// per-lane scalar memory operations. Worth enabling only when the
	// target has no native gather/scatter.
	ScalarizeVectorLoadStore bool

	// Layout supplies type sizes for the load/store decomposition.
	Layout vir.DataLayout

	// OpaqueVectorProducer reports producers whose vector results must not
	// be torn apart, so phis over them stay in vector form. When nil, calls
	// to callees marked OpaqueVector are opaque.
	OpaqueVectorProducer func(*vir.Inst) bool
}

// Scalarizer holds the per-function rewrite state. It is reusable across
// functions but not safe for concurrent use.
type Scalarizer struct {
	cfg Config

	fn       *vir.Function
	pool     entryPool
	entries  map[vir.Value]*laneEntry
	deferred []deferredLanes

	usedWhole   []vir.Value
	inUsedWhole map[vir.Value]bool

	removed  map[*vir.Inst]bool
	inserted int
}

var _ vir.FunctionPass = (*Scalarizer)(nil)

// New returns a Scalarizer with the given configuration.
func New(cfg Config) *Scalarizer {
	if cfg.OpaqueVectorProducer == nil {
		cfg.OpaqueVectorProducer = func(inst *vir.Inst) bool {
			return inst.Op == vir.OpCall && inst.Callee != nil && inst.Callee.OpaqueVector
		}
	}
	return &Scalarizer{
		cfg:         cfg,
		entries:     make(map[vir.Value]*laneEntry),
		inUsedWhole: make(map[vir.Value]bool),
		removed:     make(map[*vir.Inst]bool),
	}
}

func (s *Scalarizer) Name() string { return "scalarize" }

// Run scalarizes fn in place and reports whether anything changed.
func (s *Scalarizer) Run(fn *vir.Function) bool {
	s.reset(fn)

	// The snapshot fixes the worklist before any rewriting, so instructions
	// inserted along the way are never revisited.
	for _, inst := range fn.Instructions() {
		if s.removed[inst] {
			continue
		}
		s.dispatch(inst)
	}

	s.reassembleUsedValues()
	s.resolveDeferred()

	changed := s.inserted > 0 || len(s.removed) > 0
	s.eraseRemoved()
	return changed
}

func (s *Scalarizer) reset(fn *vir.Function) {
	s.fn = fn
	s.pool.reset()
	clear(s.entries)
	s.deferred = s.deferred[:0]
	s.usedWhole = s.usedWhole[:0]
	clear(s.inUsedWhole)
	clear(s.removed)
	s.inserted = 0
}

func (s *Scalarizer) dispatch(inst *vir.Inst) {
	switch inst.Op.Class() {
	case vir.ClassBinary:
		if vt, ok := vir.VecOf(inst.Typ); ok {
			s.scalarizeBinary(inst, vt)
		}
	case vir.ClassCmp:
		if vt, ok := vir.VecOf(inst.Typ); ok {
			s.scalarizeCmp(inst, vt)
		}
	case vir.ClassCast:
		s.scalarizeCast(inst)
	case vir.ClassPhi:
		if vt, ok := vir.VecOf(inst.Typ); ok {
			s.scalarizePhi(inst, vt)
		}
	case vir.ClassSelect:
		if vt, ok := vir.VecOf(inst.Typ); ok {
			s.scalarizeSelect(inst, vt)
		}
	case vir.ClassExtract:
		s.scalarizeExtract(inst)
	case vir.ClassInsert:
		s.scalarizeInsert(inst)
	case vir.ClassShuffle:
		s.scalarizeShuffle(inst)
	case vir.ClassLoad:
		s.scalarizeLoad(inst)
	case vir.ClassStore:
		s.scalarizeStore(inst)
	default:
		s.recoverWholeUse(inst)
	}
}

// recoverWholeUse handles an instruction the pass cannot decompose: its
// vector operands are marked as used whole, and a vector result gets an
// empty lane entry so consumers know the producer stays intact.
func (s *Scalarizer) recoverWholeUse(inst *vir.Inst) {
	if hasResult(inst) {
		if _, ok := vir.VecOf(inst.Typ); ok {
			s.entryFor(inst)
		}
	}
	for i := 0; i < inst.NumOperands(); i++ {
		op := inst.Operand(i)
		if _, ok := vir.VecOf(op.Type()); ok {
			s.markUsedWhole(op)
		}
	}
}

func hasResult(inst *vir.Inst) bool {
	switch inst.Op {
	case vir.OpStore, vir.OpRet, vir.OpBr, vir.OpCondBr:
		return false
	}
	return true
}

func (s *Scalarizer) markUsedWhole(v vir.Value) {
	if s.inUsedWhole[v] {
		return
	}
	s.inUsedWhole[v] = true
	s.usedWhole = append(s.usedWhole, v)
}

func (s *Scalarizer) scalarizeBinary(inst *vir.Inst, vt vir.VecType) {
	e := s.entryFor(inst)
	lanes0, const0 := s.lanesOf(inst.Operand(0))
	lanes1, const1 := s.lanesOf(inst.Operand(1))
	if const0 && const1 {
		// Folding is the constant propagator's job; keep the instruction.
		return
	}

	scalars := make([]vir.Value, vt.Len)
	for i := range scalars {
		clone := vir.NewBinary(inst.Op, lanes0[i], lanes1[i], inst.Name)
		clone.Flags = inst.Flags
		clone.InsertBefore(inst)
		s.inserted++
		scalars[i] = clone
	}
	e.lanes = append(e.lanes[:0], scalars...)
	e.removed = true
	s.removed[inst] = true
}

func (s *Scalarizer) scalarizeCmp(inst *vir.Inst, vt vir.VecType) {
	e := s.entryFor(inst)
	lanes0, const0 := s.lanesOf(inst.Operand(0))
	lanes1, const1 := s.lanesOf(inst.Operand(1))
	if const0 && const1 {
		return
	}

	scalars := make([]vir.Value, vt.Len)
	for i := range scalars {
		var clone *vir.Inst
		if inst.Op == vir.OpICmp {
			clone = vir.NewICmp(inst.Pred, lanes0[i], lanes1[i], inst.Name)
		} else {
			clone = vir.NewFCmp(inst.Pred, lanes0[i], lanes1[i], inst.Name)
		}
		clone.InsertBefore(inst)
		s.inserted++
		scalars[i] = clone
	}
	e.lanes = append(e.lanes[:0], scalars...)
	e.removed = true
	s.removed[inst] = true
}

func (s *Scalarizer) scalarizeCast(inst *vir.Inst) {
	vt, resVec := vir.VecOf(inst.Typ)

	if inst.Op == vir.OpBitCast {
		// A bitcast is elementwise only when both sides agree on the lane
		// count; everything else (including pointer casts) stays whole.
		if !resVec {
			s.recoverWholeUse(inst)
			return
		}
		srcVT, ok := vir.VecOf(inst.Operand(0).Type())
		if !ok || srcVT.Len != vt.Len {
			s.recoverWholeUse(inst)
			return
		}
	}
	if !resVec {
		return
	}

	e := s.entryFor(inst)
	lanes, isConst := s.lanesOf(inst.Operand(0))
	if isConst {
		return
	}

	scalars := make([]vir.Value, vt.Len)
	for i := range scalars {
		clone := vir.NewCast(inst.Op, lanes[i], vt.Elem, inst.Name)
		clone.InsertBefore(inst)
		s.inserted++
		scalars[i] = clone
	}
	e.lanes = append(e.lanes[:0], scalars...)
	e.removed = true
	s.removed[inst] = true
}

func (s *Scalarizer) scalarizePhi(inst *vir.Inst, vt vir.VecType) {
	for k := 0; k < inst.NumOperands(); k++ {
		if src, ok := inst.Operand(k).(*vir.Inst); ok && s.cfg.OpaqueVectorProducer(src) {
			// The incoming vector cannot be torn apart, so the phi keeps
			// its vector form and the value is reassembled if needed.
			s.recoverWholeUse(inst)
			return
		}
	}

	e := s.entryFor(inst)

	scalars := make([]vir.Value, vt.Len)
	phis := make([]*vir.Inst, vt.Len)
	for i := range phis {
		phis[i] = vir.NewPhi(vt.Elem, inst.Name)
		phis[i].InsertBefore(inst)
		s.inserted++
		scalars[i] = phis[i]
	}

	for k := 0; k < inst.NumOperands(); k++ {
		lanes, _ := s.lanesOf(inst.Operand(k))
		for i, phi := range phis {
			phi.AddIncoming(lanes[i], inst.Incoming[k])
		}
	}

	e.lanes = append(e.lanes[:0], scalars...)
	e.removed = true
	s.removed[inst] = true
}

func (s *Scalarizer) scalarizeSelect(inst *vir.Inst, vt vir.VecType) {
	e := s.entryFor(inst)
	trueLanes, _ := s.lanesOf(inst.Operand(1))
	falseLanes, _ := s.lanesOf(inst.Operand(2))

	cond := inst.Operand(0)
	condLanes := make([]vir.Value, vt.Len)
	if _, ok := vir.VecOf(cond.Type()); ok {
		condLanes, _ = s.lanesOf(cond)
	} else {
		// Scalar condition is shared by every lane.
		for i := range condLanes {
			condLanes[i] = cond
		}
	}

	scalars := make([]vir.Value, vt.Len)
	for i := range scalars {
		if trueLanes[i] == falseLanes[i] {
			scalars[i] = trueLanes[i]
			continue
		}
		clone := vir.NewSelect(condLanes[i], trueLanes[i], falseLanes[i], inst.Name)
		clone.InsertBefore(inst)
		s.inserted++
		scalars[i] = clone
	}
	e.lanes = append(e.lanes[:0], scalars...)
	e.removed = true
	s.removed[inst] = true
}

func (s *Scalarizer) scalarizeExtract(inst *vir.Inst) {
	idxC, ok := inst.Operand(1).(*vir.ConstInt)
	if !ok {
		s.recoverWholeUse(inst)
		return
	}

	src := inst.Operand(0)
	if !vir.IsConstant(src) {
		e, visited := s.entries[src]
		if _, isInst := src.(*vir.Inst); (!visited && !isInst) || (visited && len(e.lanes) == 0) {
			// The producer keeps its vector form; an extract from it is
			// already as scalar as it gets.
			return
		}
	}

	lanes, _ := s.lanesOf(src)
	idx := int(idxC.V)
	if idx < 0 || idx >= len(lanes) {
		s.recoverWholeUse(inst)
		return
	}
	inst.ReplaceAllUsesWith(lanes[idx])
	s.removed[inst] = true
}

func (s *Scalarizer) scalarizeInsert(inst *vir.Inst) {
	idxC, ok := inst.Operand(2).(*vir.ConstInt)
	if !ok {
		s.recoverWholeUse(inst)
		return
	}
	vt, _ := vir.VecOf(inst.Typ)
	idx := int(idxC.V)
	if idx < 0 || idx >= vt.Len {
		s.recoverWholeUse(inst)
		return
	}

	e := s.entryFor(inst)

	src := inst.Operand(0)
	var lanes []vir.Value
	if vir.IsUndef(src) {
		und := vir.NewUndef(vt.Elem)
		lanes = make([]vir.Value, vt.Len)
		for i := range lanes {
			lanes[i] = und
		}
	} else {
		lanes, _ = s.lanesOf(src)
	}
	lanes[idx] = inst.Operand(1)

	e.lanes = append(e.lanes[:0], lanes...)
	e.removed = true
	s.removed[inst] = true
}

func (s *Scalarizer) scalarizeShuffle(inst *vir.Inst) {
	src0 := inst.Operand(0)
	src1 := inst.Operand(1)
	srcVT, _ := vir.VecOf(src0.Type())
	vt, _ := vir.VecOf(inst.Typ)

	// Concatenate both source decompositions; undef sources contribute
	// nothing and their lanes stay nil.
	all := make([]vir.Value, 2*srcVT.Len)
	if !vir.IsUndef(src0) {
		lanes, _ := s.lanesOf(src0)
		copy(all[:srcVT.Len], lanes)
	}
	if !vir.IsUndef(src1) {
		lanes, _ := s.lanesOf(src1)
		copy(all[srcVT.Len:], lanes)
	}

	und := vir.NewUndef(vt.Elem)
	scalars := make([]vir.Value, vt.Len)
	for i, m := range inst.Mask {
		if m >= 0 && m < len(all) && all[m] != nil {
			scalars[i] = all[m]
		} else {
			scalars[i] = und
		}
	}

	s.setEntry(inst, scalars, true)
	s.removed[inst] = true
}

func (s *Scalarizer) scalarizeLoad(inst *vir.Inst) {
	vt, ok := vir.VecOf(inst.Typ)
	if !ok || !s.cfg.ScalarizeVectorLoadStore {
		s.recoverWholeUse(inst)
		return
	}
	if s.cfg.Layout.AllocSize(vt)%s.cfg.Layout.ElemSize(vt.Elem) != 0 {
		panic("scalarize: vector size is not a multiple of element size")
	}

	e := s.entryFor(inst)
	base := vir.NewCast(vir.OpBitCast, inst.Operand(0), vir.Ptr(vt.Elem), "elem.ptr")
	base.InsertBefore(inst)
	s.inserted++

	scalars := make([]vir.Value, vt.Len)
	for i := range scalars {
		gep := vir.NewGEP(base, vir.NewConstInt(vir.I32, int64(i)), "lane.addr")
		gep.InsertBefore(inst)
		ld := vir.NewLoad(gep, inst.Name)
		ld.InsertBefore(inst)
		s.inserted += 2
		scalars[i] = ld
	}
	e.lanes = append(e.lanes[:0], scalars...)
	e.removed = true
	s.removed[inst] = true
}

func (s *Scalarizer) scalarizeStore(inst *vir.Inst) {
	vt, ok := vir.VecOf(inst.Operand(0).Type())
	if !ok || !s.cfg.ScalarizeVectorLoadStore {
		s.recoverWholeUse(inst)
		return
	}
	if s.cfg.Layout.AllocSize(vt)%s.cfg.Layout.ElemSize(vt.Elem) != 0 {
		panic("scalarize: vector size is not a multiple of element size")
	}

	lanes, _ := s.lanesOf(inst.Operand(0))

	base := vir.NewCast(vir.OpBitCast, inst.Operand(1), vir.Ptr(vt.Elem), "elem.ptr")
	base.InsertBefore(inst)
	s.inserted++

	for i, lane := range lanes {
		gep := vir.NewGEP(base, vir.NewConstInt(vir.I32, int64(i)), "lane.addr")
		gep.InsertBefore(inst)
		st := vir.NewStore(lane, gep)
		st.InsertBefore(inst)
		s.inserted += 2
	}
	s.removed[inst] = true
}

func (s *Scalarizer) eraseRemoved() {
	for inst := range s.removed {
		if inst.NumUses() > 0 {
			// Remaining users can only be other removed instructions.
			inst.ReplaceAllUsesWith(vir.NewUndef(inst.Typ))
		}
		inst.RemoveFromParent()
	}
}
