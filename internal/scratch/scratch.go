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
	"errors"
	"unsafe"

	"github.com/archivelab/zarchive/internal/debug"
)

// ErrOutOfSpace is returned when a BufferAllocator or a capped HeapArena
// cannot satisfy an allocation.
var ErrOutOfSpace = errors.New("zarchive: scratch allocator out of space")

// ErrNotPoppedInReverseOrder is returned by Pop when the given allocation is
// not the most recent outstanding one.
var ErrNotPoppedInReverseOrder = errors.New("zarchive: scratch pop out of LIFO order")

// Layout describes a requested allocation's size and alignment.
type Layout struct {
	Size, Align int
}

// Allocator is the stack-discipline allocator contract from spec §4.C.
//
// Implementations must return properly aligned memory from Push, and must
// reject a Pop whose (ptr, layout) does not match the most recent
// outstanding allocation.
type Allocator interface {
	Push(l Layout) ([]byte, error)
	Pop(p []byte, l Layout) error
}

// stackEntry is bookkeeping for one outstanding Push, used to enforce LIFO
// discipline in both BufferAllocator and HeapArenaAllocator.
type stackEntry struct {
	ptr    unsafe.Pointer
	layout Layout
}

// BufferAllocator bump-allocates within a caller-provided byte slice.
//
// It fails with ErrOutOfSpace once the slice is exhausted. This is the
// "Buffer allocator" instance from spec §4.C, intended for callers that
// want to bound scratch memory to a fixed size with no garbage collector
// involvement at all.
type BufferAllocator struct {
	buf   []byte
	pos   int
	stack []stackEntry
}

// NewBufferAllocator wraps buf as a scratch allocator.
func NewBufferAllocator(buf []byte) *BufferAllocator {
	return &BufferAllocator{buf: buf}
}

// Push implements Allocator.
func (b *BufferAllocator) Push(l Layout) ([]byte, error) {
	pad := padding(b.pos, l.Align)
	start := b.pos + pad
	end := start + l.Size
	if end > len(b.buf) {
		return nil, ErrOutOfSpace
	}
	b.pos = end
	region := b.buf[start:end]
	b.stack = append(b.stack, stackEntry{ptr: unsafe.Pointer(unsafe.SliceData(region)), layout: l})
	debug.Log(nil, "BufferAllocator.Push", "size=%d align=%d -> [%d:%d]", l.Size, l.Align, start, end)
	return region, nil
}

// Pop implements Allocator.
func (b *BufferAllocator) Pop(p []byte, l Layout) error {
	if len(b.stack) == 0 {
		return ErrNotPoppedInReverseOrder
	}
	top := b.stack[len(b.stack)-1]
	if top.ptr != unsafe.Pointer(unsafe.SliceData(p)) || top.layout != l {
		return ErrNotPoppedInReverseOrder
	}
	b.stack = b.stack[:len(b.stack)-1]
	b.pos -= l.Size + padding(b.pos-l.Size, l.Align)
	debug.Assert(b.pos >= 0, "BufferAllocator.Pop left pos negative: %d", b.pos)
	return nil
}

// HeapArenaAllocator adapts a HeapArena to the Allocator interface, adding
// LIFO-order checking on top of the arena's raw bump allocation (the arena
// itself has no notion of "pop"; Free resets it wholesale).
type HeapArenaAllocator struct {
	Arena *HeapArena
	stack []stackEntry
}

// Push implements Allocator.
func (h *HeapArenaAllocator) Push(l Layout) ([]byte, error) {
	if h.Arena == nil {
		h.Arena = new(HeapArena)
	}
	p, err := h.Arena.Alloc(l.Size)
	if err != nil {
		return nil, err
	}
	region := unsafe.Slice(p, l.Size)
	h.stack = append(h.stack, stackEntry{ptr: unsafe.Pointer(p), layout: l})
	return region, nil
}

// Pop implements Allocator.
func (h *HeapArenaAllocator) Pop(p []byte, l Layout) error {
	if len(h.stack) == 0 {
		return ErrNotPoppedInReverseOrder
	}
	top := h.stack[len(h.stack)-1]
	if top.ptr != unsafe.Pointer(unsafe.SliceData(p)) || top.layout != l {
		return ErrNotPoppedInReverseOrder
	}
	h.stack = h.stack[:len(h.stack)-1]
	return nil
}

// Backup composes two allocators: allocation attempts the primary first and
// falls back to the backup on failure; Pop routes to whichever one accepted
// the matching allocation.
type Backup struct {
	Primary, Secondary Allocator

	// tags records, per outstanding allocation (LIFO), which allocator
	// served it, so that Pop can route without guessing.
	tags []bool // true == served by Primary
}

// Push implements Allocator.
func (b *Backup) Push(l Layout) ([]byte, error) {
	if p, err := b.Primary.Push(l); err == nil {
		b.tags = append(b.tags, true)
		return p, nil
	}
	p, err := b.Secondary.Push(l)
	if err != nil {
		return nil, err
	}
	b.tags = append(b.tags, false)
	return p, nil
}

// Pop implements Allocator.
func (b *Backup) Pop(p []byte, l Layout) error {
	if len(b.tags) == 0 {
		return ErrNotPoppedInReverseOrder
	}
	servedByPrimary := b.tags[len(b.tags)-1]
	b.tags = b.tags[:len(b.tags)-1]
	if servedByPrimary {
		return b.Primary.Pop(p, l)
	}
	return b.Secondary.Pop(p, l)
}

func padding(pos, align int) int {
	if align <= 1 {
		return 0
	}
	rem := pos % align
	if rem == 0 {
		return 0
	}
	return align - rem
}
