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

// Package main provides a diagnostic tool to print the CPU features that
// drive the scalarization policy.
package main

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/laneforge/go-laneforge/target"
)

func main() {
	fmt.Printf("GOOS: %s\n", runtime.GOOS)
	fmt.Printf("GOARCH: %s\n", runtime.GOARCH)
	fmt.Printf("NumCPU: %d\n", runtime.NumCPU())
	fmt.Println()

	fmt.Printf("Native gather:            %v\n", target.HasNativeGather())
	fmt.Printf("Native scatter:           %v\n", target.HasNativeScatter())
	fmt.Printf("Scalarize vector memory:  %v\n", target.ScalarizeVectorMemory())
	fmt.Println()

	if runtime.GOARCH == "amd64" {
		fmt.Println("x86 features:")
		fmt.Printf("  AVX:      %v\n", cpu.X86.HasAVX)
		fmt.Printf("  AVX2:     %v\n", cpu.X86.HasAVX2)
		fmt.Printf("  AVX512F:  %v\n", cpu.X86.HasAVX512F)
		fmt.Printf("  AVX512VL: %v\n", cpu.X86.HasAVX512VL)
	}
}
