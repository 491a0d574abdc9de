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

// Package xunsafe provides a more convenient interface for performing unsafe
// operations than Go's built-in package unsafe.
//
// Everything built on top of this package assumes the invariant the archive
// model depends on: archived values are plain bytes with no Go pointers, so
// a cast between an archived type and its byte representation is sound as
// long as size and alignment line up.
package xunsafe

import (
	"sync"
	"unsafe"

	"github.com/archivelab/zarchive/internal/xunsafe/layout"
)

// NoCopy is a type that go vet will complain about having been moved.
//
// It does so by implementing [sync.Locker]. Embed it in any type that must
// not be copied once constructed, such as a Place.
type NoCopy [0]sync.Mutex

// Lock and Unlock exist only so that go vet's copylocks analysis fires.
func (*NoCopy) Lock()   {}
func (*NoCopy) Unlock() {}

// Int is any integer type.
type Int = layout.Int

// BitCast performs an unsafe bitcast from one type to another.
//
// Both types must have the same size; this is not checked.
func BitCast[To, From any](v From) To {
	return *(*To)(unsafe.Pointer(&v))
}

// Ping reminds the processor that *p should be loaded into the data cache.
func Ping[P ~*E, E any](p P) {
	_ = ByteLoad[byte](NoEscape(p), 0)
}
