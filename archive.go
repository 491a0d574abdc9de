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

import "github.com/archivelab/zarchive/internal/scratch"

// Scope bundles the three capabilities a Serialize implementation may need
// while resolving a value: a place to write bytes, scratch memory for
// intermediate work, and a registry for deduplicating shared pointers
// (spec §4.F "the scope a resolver runs in").
//
// Scratch and Sharing are optional: types with no scratch needs or no
// shared sub-values may ignore them, which is why they're accessed through
// methods rather than required at every call site.
type Scope struct {
	W       Writer
	scratch scratch.Allocator
	sharing Sharer
}

// NewScope builds a Scope around a Writer, with no scratch allocator or
// sharing registry attached.
func NewScope(w Writer) *Scope {
	return &Scope{W: w}
}

// WithScratch attaches a scratch allocator to the scope, returning it for
// chaining.
func (s *Scope) WithScratch(a scratch.Allocator) *Scope {
	s.scratch = a
	return s
}

// WithSharing attaches a sharing registry to the scope, returning it for
// chaining.
func (s *Scope) WithSharing(sh Sharer) *Scope {
	s.sharing = sh
	return s
}

// Scratch returns the scope's scratch allocator, or a no-op allocator that
// always fails with ErrOutOfSpace if none was attached.
func (s *Scope) Scratch() scratch.Allocator {
	if s.scratch == nil {
		return noScratch{}
	}
	return s.scratch
}

// Sharing returns the scope's sharing registry, or a pass-through
// implementation that treats every address as unshared if none was
// attached.
func (s *Scope) Sharing() Sharer {
	if s.sharing == nil {
		return passthroughSharer{}
	}
	return s.sharing
}

// Sharer is the serialize-time shared-pointer deduplication contract
// (spec §4.D), implemented concretely by internal/sharing.
type Sharer interface {
	// Start reports whether addr has already begun (or finished)
	// serialization under this registry, tagging it with typeTag; mismatch
	// is true if addr was previously started under a different typeTag.
	Start(addr uintptr, typeTag string) (alreadyStarted, mismatch bool)

	// Finish records the position addr's archived form was written at, once
	// serialization of its payload completes.
	Finish(addr uintptr, pos int)

	// Resolve returns the position previously recorded by Finish for addr,
	// and whether one was recorded.
	Resolve(addr uintptr) (pos int, ok bool)
}

// Serialize is implemented by a type whose value can be written into an
// archive (spec §4.F). S is the resolver value threaded from Serialize
// through to Resolve: for simple types it can be the empty struct.
type Serialize[S any] interface {
	// SerializeInto writes any out-of-line payload this value needs (e.g. a
	// string's bytes, a slice's elements) via scope, and returns a resolver
	// carrying whatever Resolve needs to remember from doing so (e.g. the
	// position the payload landed at).
	SerializeInto(scope *Scope) (S, error)
}

// Resolver is implemented by the resolver value a Serialize implementation
// returns: it performs the final in-place fill-in of an already-reserved,
// already-zeroed Place once every out-of-line payload has been written
// (spec §4.F step 4).
type Resolver[A, S any] interface {
	Resolve(resolver S, out Place[A])
}

// Archive marks A as the archived representation of some original type:
// every concrete adapter type in this module (ZString, ZSlice, ZOption,
// ZBox, ZDyn) and every generated per-struct archived type implements it.
//
// Archive types must be Portable (no pointers that aren't RelPtr, no
// padding bytes read as part of the value without zero-filling first).
type Archive interface {
	// archiveMarker exists only to make Archive unsatisfiable by accident:
	// only types in this module, or generated types that explicitly embed
	// one of them, should claim to be an archived representation.
	archiveMarker()
}

// Deserialize is implemented by an archived type A that can reconstruct an
// owned value of type D from itself, bypassing zero-copy access entirely
// (spec §4.F "owned deserialize").
type Deserialize[D any] interface {
	Deserialize() (D, error)
}

// ArchiveUnsized marks A as an unsized archived type (its size is not known
// from its Go type alone: a slice's element count, a string's byte length,
// a dyn's concrete payload size). M is the pointer metadata RelPtrUnsized
// carries alongside the offset.
type ArchiveUnsized[M any] interface {
	// Metadata returns the pointer metadata describing this value's actual
	// extent, to be stored in the owning RelPtrUnsized.
	Metadata() M
}

// SerializeUnsized is the unsized-type counterpart to Serialize: S is again
// the resolver value, and the unsized payload itself (not just one sized
// struct) is written during SerializeInto.
type SerializeUnsized[S any] interface {
	SerializeInto(scope *Scope) (S, error)
}

// ArchivePointee is implemented by an unsized archived type's "thin"
// in-memory view: the type AccessUnsized/RelPtrUnsized.AsPtr actually
// constructs, given a base address and stored metadata.
type ArchivePointee[M any] interface {
	// FromParts reconstructs a pointee view from a base address (as a
	// position within the archive) and the metadata recorded alongside the
	// pointer to it.
	FromParts(pos int, metadata M) any
}

// Portable marks a type as having a stable, platform-independent bit layout
// with no interior pointers other than RelPtr/RelPtrUnsized: instances may
// be copied byte-for-byte between buffers and mapped at any address
// (spec §4.E).
//
// This module expresses Portable as documentation, not a runtime check:
// Go has no language mechanism to enforce "has no non-RelPtr pointer
// fields" short of reflection over every nested type, which every adapter
// in this module (and every derive-generated type) already upholds by
// construction.
type Portable interface {
	Archive
}

// NoUndef marks a Portable type as additionally having no padding bytes and
// no bit pattern that isn't a valid value: such a type can be written with
// a single Place.Set rather than field-by-field via Field, and needs
// no CheckBytes validation beyond what its own fields require.
type NoUndef interface {
	Portable
}

type noScratch struct{}

func (noScratch) Push(l scratch.Layout) ([]byte, error) { return nil, ErrOutOfSpace }
func (noScratch) Pop([]byte, scratch.Layout) error      { return nil }

type passthroughSharer struct{}

func (passthroughSharer) Start(uintptr, string) (bool, bool) { return false, false }
func (passthroughSharer) Finish(uintptr, int)                {}
func (passthroughSharer) Resolve(uintptr) (int, bool)        { return 0, false }
