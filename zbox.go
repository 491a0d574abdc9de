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
	"github.com/archivelab/zarchive/internal/validate"
	"github.com/archivelab/zarchive/internal/xunsafe"
	"github.com/archivelab/zarchive/internal/xunsafe/layout"
)

// ZBox[T] is the archived form of a shared pointer (Rc/Arc analog): a
// relative pointer to the shared target (spec §4.J "Shared pointers").
// Whether the target is written once and pointed to from multiple ZBoxes,
// or written once per ZBox, is decided by the Sharer a serializer is
// configured with (internal/sharing.Registry vs internal/sharing.Unpooled),
// not by this type.
//
// A null ZBox is already a niched option: see NichedOption's doc comment.
type ZBox[T any] struct {
	ptr RelPtr[T]
}

func (ZBox[T]) archiveMarker() {}

// IsNull reports whether this box holds no value.
func (b *ZBox[T]) IsNull() bool { return b.ptr.IsNull() }

// Get returns a pointer to the shared target, with no copy.
func (b *ZBox[T]) Get() *T { return b.ptr.AsPtr() }

// TargetPos returns the absolute archive position this box's target is
// stored at, given pos, this box's own absolute position. A Deserialize
// implementation that wants to preserve pointer identity across a shared
// pointer (internal/pool's role, spec §4.I) keys its dedup map by this
// position, the same way CheckBytes keys the validation-time shared
// registry by it.
func (b *ZBox[T]) TargetPos(pos int) int {
	ptrPos := pos + xunsafe.ByteSub(&b.ptr, b)
	return b.ptr.TargetPos(ptrPos)
}

// CheckBytes validates the pointer and, unless the target has already been
// validated under this address (per the registry's Started/Finished
// states), recursively checks the target via elemCheck.
func (b *ZBox[T]) CheckBytes(ctx *validate.Context, pos int, typeTag string, elemCheck func(*validate.Context, int, *T) error) error {
	if b.IsNull() {
		return nil
	}
	ptrPos := pos + xunsafe.ByteSub(&b.ptr, b)
	targetPos := b.ptr.TargetPos(ptrPos)

	size := layout.Size[T]()
	if err := ctx.CheckSubtreePointer(targetPos, size); err != nil {
		return err
	}
	if align := layout.Align[T](); targetPos%align != 0 {
		return errUnalignedPointer(targetPos, align)
	}

	done, err := ctx.StartShared(targetPos, typeTag)
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	defer ctx.FinishShared(targetPos)

	return elemCheck(ctx, targetPos, b.ptr.AsPtr())
}

// boxResolver is the resolver SerializeBox returns.
type boxResolver struct {
	null bool
	pos  int
}

// SerializeBox writes value's already-serialized archived form at a
// position obtained through scope's sharing registry: if an earlier box
// pointed at the same address and has already finished, its recorded
// position is reused instead of writing a second copy.
//
// With a pooling Sharer, write is called exactly once per distinct addr
// per archive; with an Unpooled Sharer it runs on every call. It should
// serialize value and return the position its archived form landed at.
func SerializeBox[T any](addr uintptr, typeTag string, value *T, scope *Scope, write func() (int, error)) (boxResolver, error) {
	if value == nil {
		return boxResolver{null: true}, nil
	}

	if pos, ok := scope.Sharing().Resolve(addr); ok {
		return boxResolver{pos: pos}, nil
	}
	if already, mismatch := scope.Sharing().Start(addr, typeTag); already {
		if mismatch {
			return boxResolver{}, errTypeMismatch(scope.W.Pos(), typeTag, typeTag)
		}
		// Started by an enclosing call on the same address but not yet
		// finished: this is the cyclic-shared-pointer case (spec §8).
		return boxResolver{}, errCyclicSharedPointer(addr)
	}

	pos, err := write()
	if err != nil {
		return boxResolver{}, err
	}
	scope.Sharing().Finish(addr, pos)
	return boxResolver{pos: pos}, nil
}

// ResolveBox fills in out for a box resolved by SerializeBox.
func ResolveBox[T any](r boxResolver, out Place[ZBox[T]]) {
	if r.null {
		out.Set(ZBox[T]{})
		return
	}
	var z ZBox[T]
	out.Set(z)
	ptrPlace := Field(out, &out.Unsafe().ptr)
	_ = Emplace[T](r.pos, ptrPlace)
}
