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
	"unicode/utf8"

	"github.com/archivelab/zarchive/internal/validate"
	"github.com/archivelab/zarchive/internal/xunsafe"
)

// stringInlineCapacity is the longest string ZString stores inline, in
// body. The tag's low 7 bits hold the inline length. body is a field of its
// own after ptr and len rather than sharing their storage, so an inline
// ZString is no smaller than an out-of-line one.
const stringInlineCapacity = 15

const stringOutOfLineFlag = 0x80

// ZString is the archived form of a string: either the bytes stored
// inline in the archived value itself, or a relative pointer plus length
// to an out-of-line byte run, chosen by length at serialize time
// (spec §4.J).
type ZString struct {
	_ xunsafe.NoCopy

	tag  byte
	ptr  RelPtr[byte]
	len  Offset
	body [stringInlineCapacity]byte
}

func (ZString) archiveMarker() {}

// IsInline reports whether this string's bytes are stored inline.
func (z *ZString) IsInline() bool { return z.tag&stringOutOfLineFlag == 0 }

// Len returns the string's byte length.
func (z *ZString) Len() int {
	if z.IsInline() {
		return int(z.tag &^ stringOutOfLineFlag)
	}
	return int(z.len)
}

// String returns the string's content as a Go string. For the out-of-line
// representation this reads through the relative pointer with no copy;
// for the inline representation it reads out of the archived value
// itself.
func (z *ZString) String() string {
	n := z.Len()
	if z.IsInline() {
		return xunsafe.String(&z.body[0], n)
	}
	return xunsafe.String(z.ptr.AsPtr(), n)
}

// CheckBytes implements validate.CheckBytes.
func (z *ZString) CheckBytes(ctx *validate.Context, pos int) error {
	if z.IsInline() {
		n := int(z.tag &^ stringOutOfLineFlag)
		if n > stringInlineCapacity {
			return errInvalidDiscriminant(pos, z.tag)
		}
		if !utf8.Valid(z.body[:n]) {
			return errInvalidUTF8(pos)
		}
		return nil
	}

	n := int(z.len)
	ptrPos := pos + xunsafe.ByteSub(&z.ptr, z)
	targetPos := z.ptr.TargetPos(ptrPos)
	if err := ctx.CheckSubtreePointer(targetPos, n); err != nil {
		return err
	}
	if !utf8.Valid(xunsafe.Slice(z.ptr.AsPtr(), n)) {
		return errInvalidUTF8(pos)
	}
	return nil
}

// stringResolver is the resolver SerializeString returns: the out-of-line
// payload position (ignored for the inline case) and the string's length.
type stringResolver struct {
	pos     int
	length  int
	inline  bool
	literal string
}

// SerializeString writes s's payload (if it doesn't fit inline) via scope
// and returns a resolver for Resolve to fill in.
func SerializeString(s string, scope *Scope) (stringResolver, error) {
	if len(s) <= stringInlineCapacity {
		return stringResolver{inline: true, length: len(s), literal: s}, nil
	}
	pos, err := scope.W.Write([]byte(s))
	if err != nil {
		return stringResolver{}, err
	}
	return stringResolver{pos: pos, length: len(s), literal: s}, nil
}

// ResolveString fills in out for a string resolved by SerializeString.
func ResolveString(r stringResolver, out Place[ZString]) {
	if r.inline {
		var z ZString
		z.tag = byte(r.length)
		copy(z.body[:r.length], r.literal)
		out.Set(z)
		return
	}

	var z ZString
	z.tag = stringOutOfLineFlag
	z.len = Offset(r.length)
	out.Set(z)

	ptrPlace := Field(out, &out.Unsafe().ptr)
	_ = Emplace[byte](r.pos, ptrPlace)
}
