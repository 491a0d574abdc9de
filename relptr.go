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

package zarchive

import (
	"fmt"
	"math"

	"github.com/archivelab/zarchive/internal/xunsafe"
)

// RelPtr[A] is a field that stores a byte displacement from its own
// address to an archived value of type A (spec §4.A / §3).
//
// The zero RelPtr is null. RelPtr is itself Portable and NoUndef: every bit
// pattern of Offset is a valid (if not always dereferenceable) offset.
type RelPtr[A any] struct {
	offset Offset
}

// IsNull reports whether this pointer is the explicit null value.
func (r *RelPtr[A]) IsNull() bool { return r.offset == 0 }

// EmplaceNull writes an explicitly-null offset into out.
func EmplaceNull[A any](out Place[RelPtr[A]]) {
	out.Set(RelPtr[A]{offset: 0})
}

// Emplace computes the displacement from out's own position to targetPos
// and writes it, failing with ErrOffsetOverflow if it does not fit in the
// configured Offset width.
func Emplace[A any](targetPos int, out Place[RelPtr[A]]) error {
	d := targetPos - out.Pos()
	off := Offset(d)
	if int(off) != d {
		return errOffsetOverflow(out.Pos(), out.Pos(), targetPos)
	}
	out.Set(RelPtr[A]{offset: off})
	return nil
}

// AsPtr resolves this pointer to the address of its target, given the
// address of the RelPtr field itself (obtained from the enclosing
// archive's base address plus the field's recorded position).
//
// This performs no bounds or alignment checking: callers on the unchecked
// access path are trusted to have validated the archive already, or to
// accept the risk per spec §4.G.
func (r *RelPtr[A]) AsPtr() *A {
	self := xunsafe.AddrOf(r)
	target := self.ByteAdd(int(r.offset))
	return target.AssertValid()
}

// TargetPos returns the absolute position the pointer resolves to, given
// the pointer field's own absolute position (as recorded by Place.Pos).
func (r *RelPtr[A]) TargetPos(selfPos int) int {
	return selfPos + int(r.offset)
}

// String implements fmt.Stringer, rendering the offset's raw bytes in the
// configured byteOrder rather than the host's native order: unlike AsPtr,
// which reinterprets the field in place and is only ever meaningful on the
// machine that wrote it, this is what a diagnostic (debug.Log, cmd/zdump)
// should print, since for a given build it stays the same on a big- and a
// little-endian host.
func (r RelPtr[A]) String() string {
	return fmt.Sprintf("RelPtr(%#x)", encodeOffset(r.offset))
}

// RelPtrUnsized[A, M] is a relative pointer to an unsized target (a slice's
// elements, a string's out-of-line bytes, a dyn's concrete value):
// alongside the offset it carries archived pointer metadata M — a length,
// or (for dyn) an implementation id (spec §4.A, §4.E "unsized variants").
type RelPtrUnsized[A, M any] struct {
	offset   Offset
	Metadata M
}

// IsNull reports whether this pointer is the explicit null value.
func (r *RelPtrUnsized[A, M]) IsNull() bool { return r.offset == 0 }

// EmplaceNullUnsized writes a null offset and zero metadata into out.
func EmplaceNullUnsized[A, M any](out Place[RelPtrUnsized[A, M]]) {
	var zero M
	out.Set(RelPtrUnsized[A, M]{offset: 0, Metadata: zero})
}

// EmplaceUnsized computes the displacement to targetPos, as Emplace does,
// and additionally stores metadata inline.
func EmplaceUnsized[A, M any](targetPos int, metadata M, out Place[RelPtrUnsized[A, M]]) error {
	d := targetPos - out.Pos()
	off := Offset(d)
	if int(off) != d {
		return errOffsetOverflow(out.Pos(), out.Pos(), targetPos)
	}
	out.Set(RelPtrUnsized[A, M]{offset: off, Metadata: metadata})
	return nil
}

// AsPtr resolves this pointer to its target's address, as RelPtr.AsPtr does.
func (r *RelPtrUnsized[A, M]) AsPtr() *A {
	self := xunsafe.AddrOf(r)
	target := self.ByteAdd(int(r.offset))
	return target.AssertValid()
}

// TargetPos returns the absolute position the pointer resolves to.
func (r *RelPtrUnsized[A, M]) TargetPos(selfPos int) int {
	return selfPos + int(r.offset)
}

// maxOffsetMagnitude is the largest absolute displacement Emplace's
// int(off) != d round-trip check can ever let through, regardless of
// which Offset width is selected by build tag: every actually-reachable
// offset is already bounded far tighter than this by
// internal/validate.Context.CheckSubtreePointer, which checks the
// resolved target position against the archive's own size.
const maxOffsetMagnitude = math.MaxInt64

// encodeOffset renders off's bytes in byteOrder (the build's configured
// endianness), independent of OffsetWidth's build-tag-selected size. This
// is purely a diagnostic aid: the archive itself never goes through this
// encoding, since RelPtr's offset field is read and written directly as
// memory by AsPtr/Emplace, which is what makes the type zero-copy.
func encodeOffset(off Offset) []byte {
	switch OffsetWidth {
	case 16:
		b := make([]byte, 2)
		byteOrder.PutUint16(b, uint16(off))
		return b
	case 64:
		b := make([]byte, 8)
		byteOrder.PutUint64(b, uint64(off))
		return b
	default:
		b := make([]byte, 4)
		byteOrder.PutUint32(b, uint32(off))
		return b
	}
}
