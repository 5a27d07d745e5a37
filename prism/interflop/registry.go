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

package interflop

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]InitFunc)
)

// Register makes a backend available by name. It is meant to be called from
// the init function of the backend package and panics if name is taken or
// fn is nil.
func Register(name string, fn InitFunc) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if fn == nil {
		panic("interflop: Register of nil InitFunc for " + name)
	}
	if _, dup := factories[name]; dup {
		panic("interflop: Register called twice for " + name)
	}
	factories[name] = fn
}

// Lookup returns the InitFunc registered under name.
func Lookup(name string) (InitFunc, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	fn, ok := factories[name]
	return fn, ok
}

// Names returns the registered backend names, sorted.
func Names() []string {
	factoriesMu.RLock()
	names := lo.Keys(factories)
	factoriesMu.RUnlock()
	slices.Sort(names)
	return names
}
