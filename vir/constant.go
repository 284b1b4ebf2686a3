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

// Constant is a compile-time value.
type Constant interface {
	Value
	isConst()
}

// ConstInt is an integer constant. V holds the value sign-extended to 64
// bits; the effective bit pattern is truncated to the type's width.
type ConstInt struct {
	Typ IntType
	V   int64
}

// ConstFloat is a floating-point constant.
type ConstFloat struct {
	Typ FloatType
	V   float64
}

// ConstNull is a null pointer constant.
type ConstNull struct {
	Typ PtrType
}

// Undef is an undefined value of any type.
type Undef struct {
	Typ Type
}

// ConstVector is a vector constant built from per-lane scalar constants.
type ConstVector struct {
	Typ   VecType
	Elems []Constant
}

func (*ConstInt) isConst()    {}
func (*ConstFloat) isConst()  {}
func (*ConstNull) isConst()   {}
func (*Undef) isConst()       {}
func (*ConstVector) isConst() {}

func (c *ConstInt) Type() Type    { return c.Typ }
func (c *ConstFloat) Type() Type  { return c.Typ }
func (c *ConstNull) Type() Type   { return c.Typ }
func (c *Undef) Type() Type       { return c.Typ }
func (c *ConstVector) Type() Type { return c.Typ }

// NewConstInt returns an integer constant of the given type.
func NewConstInt(t IntType, v int64) *ConstInt { return &ConstInt{Typ: t, V: v} }

// NewConstFloat returns a floating-point constant of the given type.
func NewConstFloat(t FloatType, v float64) *ConstFloat { return &ConstFloat{Typ: t, V: v} }

// NewConstNull returns the null constant of a pointer type.
func NewConstNull(t PtrType) *ConstNull { return &ConstNull{Typ: t} }

// NewUndef returns an undefined value of type t.
func NewUndef(t Type) *Undef { return &Undef{Typ: t} }

// NewConstVector builds a vector constant from its lane constants. The lane
// count must match the vector width and each lane must have the element type.
func NewConstVector(t VecType, elems ...Constant) *ConstVector {
	if len(elems) != t.Len {
		panic("vir: constant vector lane count mismatch")
	}
	for _, e := range elems {
		if e.Type() != t.Elem {
			panic("vir: constant vector lane type mismatch")
		}
	}
	return &ConstVector{Typ: t, Elems: elems}
}

// NewSplat builds a vector constant with every lane equal to elem.
func NewSplat(n int, elem Constant) *ConstVector {
	t := Vec(elem.Type(), n)
	elems := make([]Constant, n)
	for i := range elems {
		elems[i] = elem
	}
	return &ConstVector{Typ: t, Elems: elems}
}

// LaneConstant folds the extraction of lane i out of a vector constant,
// the compile-time equivalent of an extractelement instruction.
func LaneConstant(c Constant, i int) Constant {
	vt, ok := c.Type().(VecType)
	if !ok {
		panic("vir: LaneConstant of non-vector constant")
	}
	if i < 0 || i >= vt.Len {
		panic(fmt.Sprintf("vir: LaneConstant index %d out of range for %s", i, vt))
	}
	switch c := c.(type) {
	case *Undef:
		return NewUndef(vt.Elem)
	case *ConstVector:
		return c.Elems[i]
	default:
		panic(fmt.Sprintf("vir: cannot extract lane from %T", c))
	}
}

// IsUndef reports whether v is a wholly undefined value.
func IsUndef(v Value) bool {
	_, ok := v.(*Undef)
	return ok
}

// IsConstant reports whether v is a compile-time constant.
func IsConstant(v Value) bool {
	_, ok := v.(Constant)
	return ok
}
