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

// Package zarchive is a zero-copy serialization core.
//
// It converts an in-memory object graph into a self-contained byte buffer
// such that the original data can be accessed in place: a suitably aligned
// byte slice can be reinterpreted as a live object tree with no parsing,
// allocation, or copying on the read path.
//
// # Pipeline
//
//	v := MyStruct{...}
//	bytes, err := ToBytes[ArchivedMyStruct, MyStructResolver](&v) // serialize
//	view, err := Access[ArchivedMyStruct](bytes)                   // validated in-place access
//	view = AccessUnchecked[ArchivedMyStruct](bytes)                // unchecked in-place access
//	owned, err := FromBytes[ArchivedMyStruct, MyStruct](bytes)     // owning deserialize
//
// # Layers
//
// The three cooperating subsystems are, leaves first:
//
//   - Layout primitives (RelPtr, Place) in relptr.go/place.go: the wire
//     contract every archived type is built out of.
//   - The Archive/Serialize/Deserialize contracts in archive.go, composed by
//     the driver in serialize.go into ToBytes, and by internal/validate and
//     internal/pool into the checked access and deserialize paths.
//   - The adapter surface (zstring.go, zslice.go, zoption.go, zbox.go,
//     zdyn.go): concrete archived container types built on the above two
//     layers, and the only part of this module a generated per-type
//     Archive implementation needs to call into.
//
// A derive/codegen step that emits per-struct Archive/Serialize/Deserialize
// implementations, and adapters for additional container types, are treated
// as external collaborators: this module specifies and exercises the
// contracts they must satisfy, but does not itself generate code.
package zarchive
