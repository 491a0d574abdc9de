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

//go:build !bigendian && !nativeendian

package zarchive

import "encoding/binary"

// byteOrder is the endianness RelPtr.String renders offsets in. It is
// fixed at compile time by build tag (bigendian, nativeendian), defaulting
// here to little-endian. Archived primitives and RelPtr offsets themselves
// are written and read in the host's memory order (Place.Set, RelPtr.AsPtr)
// under every tag: this setting does not change an archive's bytes.
var byteOrder binary.ByteOrder = binary.LittleEndian

// EndianName is used by cmd/zdump and the config package to report which
// configuration a binary was built with.
const EndianName = "little"
