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

//go:build !pointerwidth16 && !pointerwidth64

package zarchive

// Offset is the signed integer type backing every RelPtr's displacement
// field, and the type that the archived form of usize/isize is stored as.
//
// This is the "pointer width" knob from spec §6: it is fixed at compile
// time by build tag (pointerwidth16, pointerwidth64), defaulting here to
// 32-bit, which is the choice that matters for nearly every archive: wide
// enough for buffers up to 2GiB, narrow enough to keep archived pointers
// (and hence message sizes) small.
type Offset = int32

// OffsetWidth is the number of bits in Offset.
const OffsetWidth = 32
