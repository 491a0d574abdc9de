// Copyright 2020-2025 Buf Technologies, Inc.
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

// Package scratch provides the stack-discipline scratch allocator used
// during serialization (spec §4.C).
//
// # Design
//
// Every allocation made while archiving a value graph is transient: the
// out-of-line payload of a child is copied into the writer and then
// discarded. A bump allocator that is reset (not freed a byte at a time)
// amortizes this perfectly, provided every caller obeys strict LIFO
// discipline on pop. See <https://mcyoung.xyz/2025/04/21/go-arenas/> for the
// GC-interaction trick this package is built on.
//
// A HeapArena holds pointers to its own chunks using the same trick as a
// real allocator: each chunk ends with a pointer back to the owning arena,
// so that any live pointer into a chunk's data keeps the whole arena (and
// hence all of its other chunks) reachable to the garbage collector. This
// is what lets the arena return Go pointer-free memory without pinning it
// with runtime.KeepAlive at every call site.
package scratch

import (
	"math/bits"
	"reflect"
	"unsafe"

	"github.com/archivelab/zarchive/internal/xunsafe"
)

// Align is the alignment of every object handed out by a HeapArena.
const Align = int(unsafe.Sizeof(uintptr(0)))

// HeapArena is a bump allocator for pointer-free scratch memory.
//
// A zero HeapArena is empty and ready to use. It is not safe for concurrent
// use; callers that want one arena per goroutine should use Cache.
type HeapArena struct {
	_ xunsafe.NoCopy

	Next, End xunsafe.Addr[byte]
	Cap       int // Always a power of 2.

	// MaxBytes optionally caps the total size this arena will grow to. Zero
	// means unbounded. Exceeding the cap surfaces as OutOfSpace from Alloc.
	MaxBytes int
	total    int

	// peakBlockLog is the log2 of the largest block this arena has ever
	// grown, kept across Free so that a cache can pick the "biggest" of a
	// set of reset-but-idle arenas without needing to inspect blocks.
	peakBlockLog int

	blocks []*byte
	keep   []unsafe.Pointer
}

// PeakBytes returns the largest single block this arena has ever grown, in
// bytes. Unlike Cap, this survives Free.
func (a *HeapArena) PeakBytes() int {
	if len(a.blocks) == 0 {
		return 0
	}
	return 1 << a.peakBlockLog
}

// New allocates a new value of type T on the arena.
func New[T any](a *HeapArena, value T) *T {
	size := int(unsafe.Sizeof(value))
	align := int(unsafe.Alignof(value))
	if align > Align {
		panic("zarchive: over-aligned object for scratch arena")
	}

	p, err := a.Alloc(size)
	if err != nil {
		panic(err)
	}
	t := xunsafe.Cast[T](p)
	*t = value
	return t
}

// KeepAlive ensures that v is not swept by the GC until all pointers into
// the arena go away.
func (a *HeapArena) KeepAlive(v any) {
	a.keep = append(a.keep, xunsafe.BitCast[unsafe.Pointer](v))
}

// Alloc allocates size bytes of pointer-aligned scratch memory.
//
// It returns OutOfSpace if MaxBytes is set and would be exceeded.
func (a *HeapArena) Alloc(size int) (*byte, error) {
	size += Align - 1
	size &^= (Align - 1)

	if a.MaxBytes != 0 && a.total+size > a.MaxBytes {
		return nil, ErrOutOfSpace
	}

	if a.Next.Add(size) > a.End {
		a.Grow(size)
	}

	p := a.Next.AssertValid()
	a.Next = a.Next.Add(size)
	a.total += size
	return p, nil
}

// Free resets this arena to an empty state, allowing all memory it
// allocated to be reused.
//
// Memory allocated by the arena must not be referenced after Free.
func (a *HeapArena) Free() {
	a.Next, a.End, a.Cap, a.total = 0, 0, 0, 0
	a.keep = nil
	for log, block := range a.blocks {
		if block != nil {
			xunsafe.Clear(block, 1<<log)
		}
	}
}

// Grow allocates a fresh chunk of at least the given size onto Next.
func (a *HeapArena) Grow(size int) {
	xunsafe.Escape(a)
	p, n := a.allocChunk(max(size, a.Cap*2))
	a.Next = xunsafe.AddrOf(p)
	a.End = a.Next.Add(n)
	a.Cap = n
}

func suggestSizeLog(bytes int) uint {
	return max(6, uint(bits.Len(uint(bytes)-1)))
}

func (a *HeapArena) allocChunk(size int) (*byte, int) {
	log := suggestSizeLog(size)
	n := 1 << log
	if int(log) > a.peakBlockLog || len(a.blocks) == 0 {
		a.peakBlockLog = int(log)
	}
	if int(log) < len(a.blocks) {
		if a.blocks[log] == nil {
			a.blocks[log] = allocTraceable(n, unsafe.Pointer(a))
		}
		return a.blocks[log], n
	}

	p := allocTraceable(n, unsafe.Pointer(a))
	a.blocks = append(a.blocks, make([]*byte, int(log+1)-len(a.blocks))...)
	a.blocks[log] = p
	return p, n
}

// allocTraceable allocates size bytes of GC-visible memory and arranges for
// ptr to be kept alive for as long as any pointer into the allocation is
// live, by allocating it in the same block as a trailing pointer field.
func allocTraceable(size int, ptr unsafe.Pointer) *byte {
	var shape reflect.Type

	up := xunsafe.Addr[byte](size).Padding(int(unsafe.Sizeof(uintptr(0))))
	size += up

	if isPow2(size) {
		shape = chunkShapes[bits.TrailingZeros(uint(size))]
	} else {
		shape = chunkShape(size)
	}

	p := (*byte)(reflect.New(shape).UnsafePointer())
	xunsafe.ByteStore(p, size, ptr)
	return p
}

var chunkShapes [bits.UintSize - 1]reflect.Type

func init() {
	for i := range chunkShapes {
		chunkShapes[i] = chunkShape(1 << i)
	}
}

func chunkShape(size int) reflect.Type {
	return reflect.StructOf([]reflect.StructField{
		{Name: "Data", Type: reflect.ArrayOf(size, reflect.TypeFor[byte]())},
		{Name: "Arena", Type: reflect.TypeFor[*HeapArena]()},
	})
}

func isPow2(n int) bool { return n&(n-1) == 0 }
