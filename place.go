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
	"github.com/archivelab/zarchive/internal/xunsafe"
)

// Place[A] is a properly aligned, zero-initialized, dereferenceable
// location within a writer's backing store where an archived value of type
// A is to be constructed (spec §4.A).
//
// Place is the only channel through which a Resolver writes bytes into an
// archive. It is constructed exclusively by the writer, at positions that
// are already zero-filled, so the only way to introduce an uninitialized
// byte into an archive is to leave part of a Place unwritten — which
// Set always fills completely.
type Place[A any] struct {
	_ xunsafe.NoCopy

	pos int
	ptr *A
}

// newPlace wraps an already-aligned, already-zeroed region as a Place.
//
// Callers (the writer) are responsible for the alignment and zeroing
// invariants; newPlace itself does not check them, mirroring the source
// design's requirement that only the writer may construct a Place.
func newPlace[A any](pos int, ptr *A) Place[A] {
	return Place[A]{pos: pos, ptr: ptr}
}

// Pos returns the position this place occupies in the writer's buffer.
func (p Place[A]) Pos() int { return p.pos }

// Set writes value into this place in its entirety.
//
// This is the only primitive for completing a Place whose type has no
// interior structure the caller needs to address field-by-field (i.e. a
// NoUndef type per spec §4.E — no padding, no invalid bit patterns).
func (p Place[A]) Set(value A) {
	*p.ptr = value
}

// Field returns a sub-place for one field of A, identified by a pointer
// obtained from &p.ptr.Field.
//
// Types with padding must be emplaced field-by-field through subfield
// places computed this way, rather than through a single Set, so that
// padding bytes — already zeroed by the writer — are never touched and
// never read back as part of the value.
func Field[A, F any](p Place[A], field *F) Place[F] {
	off := xunsafe.ByteSub(field, p.ptr)
	return newPlace(p.pos+off, field)
}

// Unsafe returns the raw pointer backing this place.
//
// This exists only for adapter implementations that must write a
// non-Go-representable bit pattern (e.g. a niched discriminant) directly;
// ordinary callers should prefer Set or Field.
func (p Place[A]) Unsafe() *A { return p.ptr }
