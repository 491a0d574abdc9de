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

// Package pool implements deserialize-time sharing: the counterpart to
// internal/sharing, it makes sure that when an owned Deserialize walk
// reaches the same archived position twice (through two different shared
// pointers into it), it reuses the first deserialized value rather than
// allocating and converting a second copy (spec §4.I).
package pool

import (
	"sync"

	"github.com/archivelab/zarchive/internal/sync2"
)

// mapPool recycles the backing maps MapPool instances use, so that a
// program issuing many short-lived FromBytes calls isn't left allocating
// and discarding a fresh map[int]any on every one.
var mapPool = sync2.Pool[map[int]any]{
	New:   func() *map[int]any { m := make(map[int]any); return &m },
	Reset: func(m *map[int]any) { clear(*m) },
}

// MapPool deduplicates deserialized values keyed by their archived
// position. It is safe for concurrent use.
type MapPool struct {
	mu     sync.Mutex
	shared map[int]any
	drop   func()
}

// NewMapPool creates an empty deserialization pool, drawing its backing
// map from a shared free list rather than always allocating a fresh one.
func NewMapPool() *MapPool {
	m, drop := mapPool.Get()
	return &MapPool{shared: *m, drop: drop}
}

// Close returns this pool's backing map to the shared free list. Callers
// that create a MapPool per Deserialize walk should call Close once the
// walk is done; it is not required for correctness, only for reuse.
func (p *MapPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drop != nil {
		p.drop()
		p.drop = nil
	}
}

// GetShared returns the previously pooled value for pos, if any.
func (p *MapPool) GetShared(pos int) (value any, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	value, ok = p.shared[pos]
	return value, ok
}

// PutShared records value as the deserialized result for pos, for reuse by
// later pointers into the same position.
func (p *MapPool) PutShared(pos int, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shared[pos] = value
}

// Unpool is a MapPool-shaped no-op: every GetShared call misses, so every
// pointer deserializes its own independent copy. This matches the
// Unpooled sharing strategy on the serialize side for callers that don't
// need reference identity preserved across a deserialize round-trip.
type Unpool struct{}

// GetShared always reports a miss.
func (Unpool) GetShared(int) (any, bool) { return nil, false }

// PutShared is a no-op.
func (Unpool) PutShared(int, any) {}

// Sharer is the contract Deserialize implementations pool through, letting
// callers pass either a MapPool or Unpool without a type switch.
type Sharer interface {
	GetShared(pos int) (any, bool)
	PutShared(pos int, value any)
}
