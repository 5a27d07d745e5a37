// Copyright 2025 go-prism Authors
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

//go:build amd64 && goexperiment.simd

package vector

import "github.com/ajroetker/go-prism/prism"

func init() {
	registerScalar()
	registerLevel[prism.FixedTag128](prism.DispatchSSE2, nil, nil)
	registerLevel[prism.FixedTag256](prism.DispatchAVX2, fill_AVX2_F32x8, fill_AVX2_F64x4)
	registerLevel[prism.FixedTag512](prism.DispatchAVX512, fill_AVX512_F32x16, fill_AVX512_F64x8)
}

// runnable reports whether the kernels of level can run on this CPU: the
// archsimd tiers need the detected tier or a wider one.
func runnable(level prism.DispatchLevel) bool {
	if level != prism.DispatchAVX2 && level != prism.DispatchAVX512 {
		return true
	}
	for l := prism.CurrentLevel(); ; l = l.Fallback() {
		if l == level {
			return true
		}
		if l == prism.DispatchScalar {
			return false
		}
	}
}
