// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scratch

import (
	"sync"
	"sync/atomic"

	"github.com/timandy/routine"
)

// Cache amortizes HeapArena construction across ToBytes calls by handing
// out one arena per goroutine for the duration of a call, per spec §5's
// "thread-local (one arena per thread)" option.
//
// Goroutine identity is tracked with routine.Goid, the same dependency the
// debug logger uses to tag log lines by goroutine.
type Cache struct {
	mu     sync.Mutex
	byGoid map[int64]*HeapArena
}

// NewCache creates an empty goroutine-local arena cache.
func NewCache() *Cache {
	return &Cache{byGoid: make(map[int64]*HeapArena)}
}

// Take returns the arena owned by the calling goroutine, allocating one if
// none exists yet.
func (c *Cache) Take() *HeapArena {
	gid := routine.Goid()
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.byGoid[gid]
	if !ok {
		a = new(HeapArena)
		c.byGoid[gid] = a
	}
	return a
}

// Release resets and returns the calling goroutine's arena to the cache.
//
// Callers must not retain any pointer obtained from the arena past Release.
func (c *Cache) Release() {
	gid := routine.Goid()
	c.mu.Lock()
	a, ok := c.byGoid[gid]
	c.mu.Unlock()
	if ok {
		a.Free()
	}
}

// GlobalCache is the alternative described in spec §5: "a global atomic
// swap cell that temporarily removes the shared arena for the duration of a
// call and restores it (or a larger arena) afterwards."
type GlobalCache struct {
	arena atomic.Pointer[HeapArena]
}

// Take removes and returns the shared arena, or a fresh one if none is
// currently parked (e.g. because another call is already using it).
func (g *GlobalCache) Take() *HeapArena {
	if a := g.arena.Swap(nil); a != nil {
		return a
	}
	return new(HeapArena)
}

// Put parks a (reset) arena for the next caller, keeping whichever of the
// parked arena and a is larger so the cache trends towards the largest
// arena any call has needed.
func (g *GlobalCache) Put(a *HeapArena) {
	a.Free()
	for {
		cur := g.arena.Load()
		if cur != nil && cur.PeakBytes() >= a.PeakBytes() {
			return
		}
		if g.arena.CompareAndSwap(cur, a) {
			return
		}
	}
}
