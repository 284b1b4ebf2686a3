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
)

// Type is the type of a Value. All concrete types are comparable values, so
// two structurally identical types compare equal with ==.
type Type interface {
	isType()
	String() string
}

// IntType is an integer type of a fixed bit width (i1, i8, ... i64).
type IntType struct {
	Bits int
}

// FloatType is a floating-point type, either 32 or 64 bits wide.
type FloatType struct {
	Bits int
}

// PtrType is a typed pointer.
type PtrType struct {
	Elem Type
}

// VecType is a fixed-width vector of a scalar element type, width >= 1.
type VecType struct {
	Elem Type
	Len  int
}

func (IntType) isType()   {}
func (FloatType) isType() {}
func (PtrType) isType()   {}
func (VecType) isType()   {}

func (t IntType) String() string   { return "i" + strconv.Itoa(t.Bits) }
func (t FloatType) String() string {
	if t.Bits == 32 {
		return "float"
	}
	return "double"
}
func (t PtrType) String() string { return t.Elem.String() + "*" }
func (t VecType) String() string {
	return fmt.Sprintf("<%d x %s>", t.Len, t.Elem.String())
}

// Common scalar types.
var (
	I1  = IntType{1}
	I8  = IntType{8}
	I16 = IntType{16}
	I32 = IntType{32}
	I64 = IntType{64}
	F32 = FloatType{32}
	F64 = FloatType{64}
)

// Vec returns the vector type with the given element type and width.
func Vec(elem Type, n int) VecType {
	if n < 1 {
		panic("vir: vector width must be >= 1")
	}
	return VecType{Elem: elem, Len: n}
}

// Ptr returns the pointer type to elem.
func Ptr(elem Type) PtrType { return PtrType{Elem: elem} }

// VecOf reports whether t is a vector type and returns it if so.
func VecOf(t Type) (VecType, bool) {
	vt, ok := t.(VecType)
	return vt, ok
}

// DataLayout answers size queries for types. It models a 64-bit target with
// naturally sized scalars: element sizes are bit widths rounded up to whole
// bytes, vector allocation size is width times the element allocation size.
type DataLayout struct{}

// ElemSize returns the size in bytes of a scalar type.
func (DataLayout) ElemSize(t Type) int {
	switch t := t.(type) {
	case IntType:
		return (t.Bits + 7) / 8
	case FloatType:
		return t.Bits / 8
	case PtrType:
		return 8
	default:
		panic(fmt.Sprintf("vir: ElemSize of non-scalar type %s", t))
	}
}

// AllocSize returns the in-memory allocation size in bytes of t.
func (d DataLayout) AllocSize(t Type) int {
	if vt, ok := t.(VecType); ok {
		return vt.Len * d.AllocSize(vt.Elem)
	}
	return d.ElemSize(t)
}
