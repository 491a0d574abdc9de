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
	"github.com/archivelab/zarchive/internal/scratch"
	"github.com/archivelab/zarchive/internal/sharing"
)

// RootSerialize is satisfied by a type that is both its own resolver
// source and its own root resolver: the value a caller hands to ToBytes
// implements Serialize[S] to write its out-of-line payload, and
// Resolver[A, S] to fill in the sized archived representation A once that
// payload is in place. Per-struct generated types implement this by
// embedding both halves. The adapter types in this module (ZString,
// ZSlice, ...) do not implement it: they are written and resolved through
// free functions such as SerializeSlice and ResolveSlice, which a root
// type's own methods call.
type RootSerialize[A, S any] interface {
	Serialize[S]
	Resolver[A, S]
}

// ToBytes serializes v into a freshly allocated archive buffer, with
// sharing deduplication and a scratch heap arena both enabled. This is the
// five-step pipeline from spec §4.F: serialize the payload, resolve the
// root in place, and hand back the finished bytes.
func ToBytes[A, S any, T RootSerialize[A, S]](v T) ([]byte, error) {
	return ToBytesIn[A, S](v, NewAlignedWriter())
}

// ToBytesIn serializes v using a caller-provided Writer, letting callers
// reuse a buffer across calls or bound the archive's maximum size via
// AlignedWriter.WithMaxBytes.
func ToBytesIn[A, S any, T RootSerialize[A, S]](v T, w *AlignedWriter) ([]byte, error) {
	scope := NewScope(w).
		WithScratch(&scratch.HeapArenaAllocator{}).
		WithSharing(sharing.NewRegistry())

	resolver, err := v.SerializeInto(scope)
	if err != nil {
		return nil, err
	}

	if _, err := ResolveAligned(w, func(out Place[A]) {
		v.Resolve(resolver, out)
	}); err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}
