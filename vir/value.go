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

// Value is an SSA value: an instruction result, a constant, or a function
// argument. Values are compared by identity except constants, which carry no
// identity guarantees (two equal constants may or may not be the same object).
type Value interface {
	Type() Type
}

// Arg is a function argument.
type Arg struct {
	Name  string
	Typ   Type
	Index int
}

func (a *Arg) Type() Type { return a.Typ }
