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

// Package layout includes helpers for working with type layouts.
//
// It is separate from xunsafe, because nothing in this package is actually
// unsafe: it only calls into package unsafe for sizeof/alignof, never for
// pointer arithmetic.
package layout

import "unsafe"

// Int is any integer type, used to keep the unsafe pointer-arithmetic helpers
// in package xunsafe generic over index types.
type Int interface {
	int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		uintptr
}

// Size returns T's size in bytes.
func Size[T any]() int {
	var z T
	return int(unsafe.Sizeof(z))
}

// Bits returns T's size in bits.
func Bits[T any]() int {
	return Size[T]() * 8
}

// Align returns T's alignment in bytes.
func Align[T any]() int {
	var z T
	return int(unsafe.Alignof(z))
}

// Of is the size and alignment of a given type.
type Of struct {
	Size, Align int
}

// OfType returns the layout of a given type.
func OfType[T any]() Of {
	return Of{Size[T](), Align[T]()}
}

// Max returns a layout whose size and alignment are both as large as the
// largest among l and that.
func (l Of) Max(that Of) Of {
	return Of{max(l.Size, that.Size), max(l.Align, that.Align)}
}

// RoundUp rounds n up to the nearest multiple of align, which must be a
// power of two.
func RoundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Padding returns the number of bytes between n and the next multiple of
// align, which must be a power of two.
func Padding(n, align int) int {
	return RoundUp(n, align) - n
}
