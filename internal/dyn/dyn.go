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

// Package dyn implements the polymorphic-value registry backing ZDyn
// (spec §4.J): an archived value can carry, alongside its bytes, an
// implementation id identifying which concrete adapter knows how to
// interpret them. Unlike a Go interface's runtime type descriptor, the id
// is content-derived, so it is stable across builds and processes — two
// different binaries that register the same concrete type under the same
// trait name agree on its id without coordinating addresses.
package dyn

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// ImplID identifies a registered (trait, concrete type) pair. It is the
// first 8 bytes of the blake2b-256 hash of the pair's qualified name,
// which keeps ZDyn's on-the-wire discriminant fixed-size regardless of
// how long type names get.
type ImplID uint64

// String renders id in hex, for diagnostics.
func (id ImplID) String() string { return fmt.Sprintf("%016x", uint64(id)) }

// deriveID hashes trait+"::"+typeName down to an ImplID.
func deriveID(trait, typeName string) ImplID {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors on a bad key, and we pass none.
		panic(err)
	}
	_, _ = h.Write([]byte(trait))
	_, _ = h.Write([]byte("::"))
	_, _ = h.Write([]byte(typeName))
	sum := h.Sum(nil)
	return ImplID(binary.BigEndian.Uint64(sum[:8]))
}

// VTable is whatever a registered implementation needs to be usable
// through ZDyn: enough to deserialize and validate a value of the
// concrete archived type, type-erased behind `any`.
//
// Adapters register a VTable whose Deserialize/CheckBytes closures close
// over the concrete archived type via generics instantiated at Register
// call sites; this package never needs to know the concrete type itself.
type VTable struct {
	TypeName string

	// Deserialize reconstructs an owned value from the archived bytes at
	// pos within buf.
	Deserialize func(buf []byte, pos int) (any, error)

	// CheckBytes validates the archived bytes at pos within buf, given a
	// validator context type-erased behind `any` (the concrete type is
	// *validate.Context; this package cannot import internal/validate
	// without creating an import cycle with the root package's adapters,
	// so it is threaded through as `any` and type-asserted by the caller
	// of Registry.Lookup).
	CheckBytes func(ctx any, buf []byte, pos int) error
}

// Registry maps an ImplID (itself derived from a trait name plus a
// concrete type name) to a registered VTable.
//
// Registrations happen once, from adapter init() functions, well before
// any archive is deserialized; reads thereafter vastly outnumber writes,
// so the registry is a plain mutex-guarded map rather than anything
// lock-free.
type Registry struct {
	mu    sync.RWMutex
	impls map[ImplID]VTable
}

// Global is the process-wide dyn registry that generated adapters
// register themselves into, mirroring a single shared swiss-table
// instance in the source design's trait-object registry.
var Global = &Registry{impls: make(map[ImplID]VTable)}

// Register adds typeName as an implementation of trait, returning the id
// ZDyn values should store for it. Calling Register twice for the same
// (trait, typeName) pair is a programmer error and panics, since it would
// silently shadow the first registration's VTable.
func (r *Registry) Register(trait, typeName string, vt VTable) ImplID {
	id := deriveID(trait, typeName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.impls[id]; dup {
		panic(fmt.Sprintf("zarchive/dyn: duplicate registration for %s::%s", trait, typeName))
	}
	vt.TypeName = typeName
	r.impls[id] = vt
	return id
}

// Lookup returns the VTable registered for id, if any.
func (r *Registry) Lookup(id ImplID) (VTable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vt, ok := r.impls[id]
	return vt, ok
}
