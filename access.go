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

// CheckBytesType is the constraint Access and AccessPos require of a root
// archived type's pointer: every adapter's CheckBytes method is defined on
// *A rather than A (it needs to take A's address to compute field
// offsets), so PA carries that pointer type explicitly. Call sites never
// name PA: Access[ArchivedFoo](buf) infers it from *ArchivedFoo.
type CheckBytesType[A any] interface {
	*A
	CheckBytes(ctx *validate.Context, pos int) error
}

// Access validates buf as an archive with root type A and returns a
// pointer into buf's backing memory: no bytes are copied, and the
// returned pointer remains valid for as long as buf is not mutated or
// garbage collected (spec §4.G).
//
// The root is assumed to end at the last aligned position in buf, per the
// convention ToBytes uses (the root is resolved last, at the buffer's
// final aligned offset).
func Access[A any, PA CheckBytesType[A]](buf []byte) (*A, error) {
	pos, err := rootPos[A](buf)
	if err != nil {
		return nil, err
	}

	ctx := validate.NewContext(len(buf))
	root := AccessPosUnchecked[A](buf, pos)
	if err := PA(root).CheckBytes(ctx, pos); err != nil {
		return nil, err
	}

	return root, nil
}

// AccessUnchecked reinterprets buf as an archive with root type A without
// any validation: undefined behavior results if buf was not produced by a
// trusted serializer, or has been corrupted or truncated.
func AccessUnchecked[A any](buf []byte) *A {
	pos, err := rootPos[A](buf)
	if err != nil {
		// AccessUnchecked has no error return by contract (it mirrors
		// the unchecked access path, which trusts the caller); a buffer
		// too small to hold its own root is treated as a zero root,
		// matching a null/empty archive.
		return new(A)
	}
	return AccessPosUnchecked[A](buf, pos)
}

// AccessPos validates and returns the value of type A at the given
// absolute position within buf, rather than assuming the trailing-root
// convention Access uses. This supports archives with multiple named
// roots (spec §4.G "access at an explicit position").
func AccessPos[A any, PA CheckBytesType[A]](buf []byte, pos int) (*A, error) {
	ctx := validate.NewContext(len(buf))
	root := AccessPosUnchecked[A](buf, pos)
	if err := PA(root).CheckBytes(ctx, pos); err != nil {
		return nil, err
	}
	return root, nil
}

// AccessPosUnchecked reinterprets the bytes at pos within buf as a *A,
// performing no validation.
func AccessPosUnchecked[A any](buf []byte, pos int) *A {
	if len(buf) == 0 {
		return new(A)
	}
	base := xunsafe.AddrOf(&buf[0])
	return base.ByteAdd(pos).AssertValid()
}

// rootPos locates the root value of type A within buf, assuming it was
// written last by ToBytes at the final position aligned for A.
func rootPos[A any](buf []byte) (int, error) {
	size := layout.Size[A]()
	align := layout.Align[A]()
	if len(buf) < size {
		return 0, errBufferOverflow(len(buf), size)
	}
	pos := len(buf) - size
	pos -= pos % align
	return pos, nil
}
