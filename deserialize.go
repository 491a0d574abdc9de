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

// DeserializeType is the pointer-method constraint FromBytes requires of a
// root archived type: its CheckBytes and Deserialize methods are both
// defined on *A, mirroring CheckBytesType.
type DeserializeType[A, D any] interface {
	CheckBytesType[A]
	Deserialize[D]
}

// FromBytes validates buf as an archive with root type A, then
// reconstructs an owned value of type D from it (spec §4.F "owned
// deserialize"). D is typically the original, non-archived struct type A
// was generated from.
func FromBytes[A, D any, PA DeserializeType[A, D]](buf []byte) (D, error) {
	var zero D
	root, err := Access[A, PA](buf)
	if err != nil {
		return zero, err
	}
	return PA(root).Deserialize()
}

// FromBytesUnchecked reconstructs an owned value of type D from buf
// without validating it first. Undefined behavior results if buf was not
// produced by a trusted serializer.
func FromBytesUnchecked[A, D any, PA interface {
	*A
	Deserialize[D]
}](buf []byte) (D, error) {
	root := AccessUnchecked[A](buf)
	return PA(root).Deserialize()
}
