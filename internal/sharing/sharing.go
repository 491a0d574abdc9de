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

// Package sharing implements the serialize-time registry that lets two or
// more archived pointers refer to the same position rather than each
// writing their own copy of the pointee (spec §4.D, the Rc/Arc analog).
//
// A shared value passes through three states as the registry sees it:
// absent (never seen), started (a serializer is currently writing it, but
// hasn't reached the point of recording its position), and finished (its
// position is known and later pointers should just reuse it). The states
// mirror the sync2 two-phase Pool.Get/drop discipline, but keyed by the
// original value's heap address instead of by type.
package sharing

import (
	"sync"

	"github.com/archivelab/zarchive/internal/debug"
)

type state int

const (
	absent state = iota
	started
	finished
)

type entry struct {
	state   state
	pos     int
	typeTag string
}

// Registry deduplicates shared pointers during serialization: the first
// Start call for a given address serializes the value and records its
// position with Finish; every subsequent Start for the same address is
// told it's already begun, and Resolve hands back the recorded position
// instead of re-serializing.
//
// Registry is safe for concurrent use; a single archive's serialization may
// fan its subgraph out across goroutines (spec §5's concurrency model), and
// every shared sub-value must still be written exactly once no matter which
// goroutine reaches it first.
type Registry struct {
	mu      sync.Mutex
	entries map[uintptr]*entry
}

// NewRegistry creates an empty sharing registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uintptr]*entry)}
}

// Start reports whether addr has already been started (possibly finished)
// by a previous call, tagging it with typeTag. If addr was seen before
// under a different typeTag, alreadyStarted and mismatch are both true: the caller
// should report a type-mismatch error, since rkyv-style sharing requires
// every pointer into the same address to agree on the archived type.
func (r *Registry) Start(addr uintptr, typeTag string) (alreadyStarted, mismatch bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[addr]
	if !ok {
		r.entries[addr] = &entry{state: started, typeTag: typeTag}
		debug.Log(nil, "sharing.Start", "addr=%#x typeTag=%s: first sight", addr, typeTag)
		return false, false
	}
	if e.typeTag != typeTag {
		debug.Log(nil, "sharing.Start", "addr=%#x: type mismatch %s vs %s", addr, e.typeTag, typeTag)
		return true, true
	}
	return true, false
}

// Finish records the position a started address's payload was written at.
func (r *Registry) Finish(addr uintptr, pos int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entries[addr]
	debug.Assert(e != nil && e.state == started, "Finish(%#x) called without a matching Start", addr)
	e.state = finished
	e.pos = pos
	debug.Log(nil, "sharing.Finish", "addr=%#x pos=%d", addr, pos)
}

// Resolve returns the position previously recorded by Finish for addr, and
// whether the address has finished serializing. A started-but-not-finished
// address (alreadyStarted true from Start, but Resolve not yet ok) indicates the
// in-progress cycle detection case: a shared pointer was reached again
// before its own serialization completed, which is a cyclic shared
// pointer (spec §8, "pooled sharing of a self-referential graph").
func (r *Registry) Resolve(addr uintptr) (pos int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, present := r.entries[addr]
	if !present || e.state != finished {
		return 0, false
	}
	return e.pos, true
}

// InProgress reports whether addr has been started but not finished,
// letting a caller distinguish "not yet seen" from "currently being
// written higher up the call stack" without a second map lookup.
func (r *Registry) InProgress(addr uintptr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[addr]
	return ok && e.state == started
}

// Unpooled is a Registry-shaped no-op: every address is always unshared, so
// every pointer to it serializes its own copy. This is the "Unpool" sharing
// strategy for callers that have opted out of dedup overhead entirely
// (spec §4.D "sharing can be disabled").
type Unpooled struct{}

// Start always reports not-yet-started, never a mismatch.
func (Unpooled) Start(uintptr, string) (bool, bool) { return false, false }

// Finish is a no-op.
func (Unpooled) Finish(uintptr, int) {}

// Resolve always reports no prior recording.
func (Unpooled) Resolve(uintptr) (int, bool) { return 0, false }
