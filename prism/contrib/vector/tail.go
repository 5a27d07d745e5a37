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

package vector

import "github.com/ajroetker/go-prism/prism"

// BlockLanes returns how many T lanes one block of tag d holds, capped at
// MaxVecLanes.
func BlockLanes[T prism.Floats](d prism.Tag) int {
	return min(prism.MaxLanes[T](d), MaxVecLanes)
}

// ProcessWithTail splits size lanes into blocks of tag d.
//
// It calls:
//   - fullFn(offset) for each full block (offset is the starting index)
//   - tailFn(offset, count) once for the remainder if size is not a multiple
//     of the block size
//
// Example:
//
//	vector.ProcessWithTail[float64](prism.FixedTag256{}, len(a),
//	    func(offset int) {
//	        v := vector.Add(vector.Load(a[offset:], 4), vector.Load(b[offset:], 4))
//	        vector.Store(v, dst[offset:])
//	    },
//	    func(offset, count int) {
//	        v := vector.Add(vector.Load(a[offset:], count), vector.Load(b[offset:], count))
//	        vector.Store(v, dst[offset:])
//	    },
//	)
func ProcessWithTail[T prism.Floats](d prism.Tag, size int, fullFn func(offset int), tailFn func(offset, count int)) {
	lanes := BlockLanes[T](d)

	full := size / lanes
	for i := range full {
		fullFn(i * lanes)
	}

	if remaining := size % lanes; remaining > 0 {
		tailFn(full*lanes, remaining)
	}
}
