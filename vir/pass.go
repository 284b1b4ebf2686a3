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

// FunctionPass is a whole-function transformation. Run mutates fn in place
// and reports whether anything changed. Passes such as scalarization and
// target legalization share this surface; a driver may sequence them in
// either order.
type FunctionPass interface {
	Name() string
	Run(fn *Function) bool
}
