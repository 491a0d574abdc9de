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

//go:build nativeendian

package zarchive

import "encoding/binary"

// byteOrder is the host's native order under the nativeendian build tag.
// Archives built this way are only portable between machines sharing the
// same endianness, per spec's non-goal of cross-endian portability.
var byteOrder binary.ByteOrder = binary.NativeEndian

// EndianName reports the endianness this binary was built with, for
// diagnostics (cmd/zdump) and configuration matrices (package config).
const EndianName = "native"
