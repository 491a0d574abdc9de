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
	"errors"
	"unsafe"

	"github.com/archivelab/zarchive/internal/validate"
	"github.com/archivelab/zarchive/internal/xunsafe"
	"github.com/archivelab/zarchive/internal/xunsafe/layout"
)

// ZSlice[T] is the archived form of a slice: a relative pointer to N
// contiguous archived elements of type T, plus an archived length
// (spec §4.J "Vectors / slices").
type ZSlice[T any] struct {
	_ xunsafe.NoCopy

	ptr RelPtr[T]
	len Offset
}

func (ZSlice[T]) archiveMarker() {}

// Len returns the number of elements.
func (z *ZSlice[T]) Len() int { return int(z.len) }

// Get returns a pointer to the i'th archived element, with no copy.
func (z *ZSlice[T]) Get(i int) *T {
	return xunsafe.Add(z.ptr.AsPtr(), i)
}

// Slice returns the full backing slice of archived elements, aliasing the
// archive's buffer with no copy.
func (z *ZSlice[T]) Slice() []T {
	if z.len == 0 {
		return nil
	}
	return xunsafe.Slice(z.ptr.AsPtr(), int(z.len))
}

// checkBytes validates the slice's pointer and element range, then checks
// every element via elemCheck.
func (z *ZSlice[T]) checkBytes(ctx *validate.Context, pos int, elemCheck func(*validate.Context, int, *T) error) (err error) {
	n := int(z.len)
	if n == 0 {
		return nil
	}
	size := layout.Size[T]() * n
	ptrPos := pos + xunsafe.ByteSub(&z.ptr, z)
	targetPos := z.ptr.TargetPos(ptrPos)
	if err := ctx.CheckSubtreePointer(targetPos, size); err != nil {
		return err
	}
	if align := layout.Align[T](); targetPos%align != 0 {
		return errUnalignedPointer(targetPos, align)
	}
	token, err := ctx.PushSubtreeRange(validate.Range{Lo: targetPos, Hi: targetPos + size})
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, ctx.PopSubtreeRange(token)) }()

	elemSize := layout.Size[T]()
	for i := range n {
		elem := z.Get(i)
		if err := elemCheck(ctx, targetPos+i*elemSize, elem); err != nil {
			return err
		}
	}
	return nil
}

// CheckBytesNoUndef validates a slice of a NoUndef element type: the
// element range is bounds-, alignment- and subtree-checked, and no
// per-element check is made, since such elements have no nested pointers
// or discriminants.
func (z *ZSlice[T]) CheckBytesNoUndef(ctx *validate.Context, pos int) error {
	return z.checkBytes(ctx, pos, func(*validate.Context, int, *T) error { return nil })
}

// CheckBytes implements validate.CheckBytes as CheckBytesNoUndef does: the
// elements themselves are not checked.
func (z *ZSlice[T]) CheckBytes(ctx *validate.Context, pos int) error {
	return z.CheckBytesNoUndef(ctx, pos)
}

// sliceResolver is the resolver SerializeSlice returns.
type sliceResolver struct {
	pos int
	n   int
}

// SerializeSlice writes elems, which must already be in their archived
// (NoUndef, Portable) form, as a contiguous run via scope, and returns a
// resolver for Resolve to fill in.
//
// This covers the common case of a slice of already-sized archived values
// with no RelPtr inside (integers, NoUndef generated structs). Elements are
// copied byte for byte, so a RelPtr inside an element (as in a ZString or
// a ZSlice) is not re-based to the element's new position. A
// slice whose element type itself needs a Serialize pass (to write its own
// out-of-line payload) is handled by calling that element's SerializeInto
// before building the elems slice passed here — ZSlice itself only owns
// the contiguous placement, not per-element resolution.
func SerializeSlice[T any](elems []T, scope *Scope) (sliceResolver, error) {
	if len(elems) == 0 {
		return sliceResolver{}, nil
	}
	if err := Align(scope.W, layout.Align[T]()); err != nil {
		return sliceResolver{}, err
	}
	pos, err := scope.W.Write(sliceBytes(elems))
	if err != nil {
		return sliceResolver{}, err
	}
	return sliceResolver{pos: pos, n: len(elems)}, nil
}

// ResolveSlice fills in out for a slice resolved by SerializeSlice.
func ResolveSlice[T any](r sliceResolver, out Place[ZSlice[T]]) {
	var z ZSlice[T]
	z.len = Offset(r.n)
	out.Set(z)

	if r.n == 0 {
		return
	}
	ptrPlace := Field(out, &out.Unsafe().ptr)
	_ = Emplace[T](r.pos, ptrPlace)
}

// sliceBytes reinterprets elems as its underlying bytes, for writing a
// contiguous archived run without per-element marshaling.
func sliceBytes[T any](elems []T) []byte {
	if len(elems) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&elems[0])), len(elems)*layout.Size[T]())
}
