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

//go:build pointerwidth16

package zarchive

// Offset is 16 bits wide under the pointerwidth16 build tag: the narrowest,
// most compact choice, for archives that are known to stay under 32KiB of
// displacement between any relative pointer and its target.
type Offset = int16

// OffsetWidth is the number of bits in Offset.
const OffsetWidth = 16
