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
	"sync/atomic"

	"github.com/archivelab/zarchive/internal/dyn"
	"github.com/archivelab/zarchive/internal/validate"
	"github.com/archivelab/zarchive/internal/xunsafe"
)

// ZDyn is the archived form of a polymorphic ("dyn trait") value: a
// relative pointer to the concrete archived value, plus a stable
// implementation id identifying which registered adapter knows how to
// interpret it (spec §4.J "Polymorphic values").
//
// The cache field memoizes a process-local lookup of the id's VTable on
// first dereference; it is not part of the archive's logical content (two
// archives differing only in cache contents are equivalent), and a value
// of 0 means "not yet cached" (spec's "cache lines are marked invalid by
// storing 0"). It is declared as a pointer-sized atomic so that concurrent
// readers racing to populate it never observe a torn write.
type ZDyn struct {
	ptr   RelPtr[byte]
	id    uint64
	cache atomic.Uintptr
}

func (ZDyn) archiveMarker() {}

// ImplID returns the value's registered implementation id.
func (z *ZDyn) ImplID() dyn.ImplID { return dyn.ImplID(z.id) }

// vtable resolves and caches the VTable for this value's implementation
// id, looking it up in the global registry on a cache miss.
func (z *ZDyn) vtable() (dyn.VTable, error) {
	if cached := z.cache.Load(); cached != 0 {
		if vt, ok := dyn.Global.Lookup(dyn.ImplID(cached - 1)); ok {
			return vt, nil
		}
	}
	vt, ok := dyn.Global.Lookup(z.ImplID())
	if !ok {
		return dyn.VTable{}, errUnregisteredImplID(0, z.ImplID().String())
	}
	z.cache.Store(uintptr(z.id) + 1)
	return vt, nil
}

// Deserialize reconstructs an owned value by dispatching to the
// registered implementation's Deserialize function.
func (z *ZDyn) Deserialize(buf []byte, pos int) (any, error) {
	vt, err := z.vtable()
	if err != nil {
		return nil, err
	}
	ptrPos := pos + xunsafe.ByteSub(&z.ptr, z)
	targetPos := z.ptr.TargetPos(ptrPos)
	return vt.Deserialize(buf, targetPos)
}

// CheckBytes validates the pointer, looks up the implementation id, and
// routes byte-checking through the implementation's registered
// CheckBytes function.
func (z *ZDyn) CheckBytes(ctx *validate.Context, pos int, buf []byte) error {
	vt, ok := dyn.Global.Lookup(z.ImplID())
	if !ok {
		return errUnregisteredImplID(pos, z.ImplID().String())
	}
	if vt.CheckBytes == nil {
		return nil
	}
	ptrPos := pos + xunsafe.ByteSub(&z.ptr, z)
	targetPos := z.ptr.TargetPos(ptrPos)
	// The implementation's own CheckBytes knows its value's size and
	// pointer structure, but not that targetPos itself must still fall
	// within the subtree this ZDyn was reached from: a corrupted pointer
	// could otherwise point a registered implementation's validator at
	// memory outside the archive entirely.
	if err := ctx.CheckSubtreePointer(targetPos, 0); err != nil {
		return err
	}
	return vt.CheckBytes(ctx, buf, targetPos)
}

// dynResolver is the resolver SerializeDyn returns.
type dynResolver struct {
	pos int
	id  dyn.ImplID
}

// SerializeDyn writes the concrete value's archived payload via write
// (which should serialize+resolve it and return the position it landed
// at), tagging the result with id, the implementation id write was
// registered under.
func SerializeDyn(id dyn.ImplID, write func() (int, error)) (dynResolver, error) {
	pos, err := write()
	if err != nil {
		return dynResolver{}, err
	}
	return dynResolver{pos: pos, id: id}, nil
}

// ResolveDyn fills in out for a dyn value resolved by SerializeDyn.
func ResolveDyn(r dynResolver, out Place[ZDyn]) {
	var z ZDyn
	z.id = uint64(r.id)
	out.Set(z)
	ptrPlace := Field(out, &out.Unsafe().ptr)
	_ = Emplace[byte](r.pos, ptrPlace)
}
