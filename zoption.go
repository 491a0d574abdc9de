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
	"github.com/archivelab/zarchive/internal/validate"
	"github.com/archivelab/zarchive/internal/xunsafe"
)

// ZOption[T] is the archived form of an optional value: a discriminant
// byte followed by the payload (spec §4.J "Options / sum types"). It is
// the general case, usable for any T; NichedOption below avoids the
// discriminant byte entirely for types that have a spare bit pattern to
// steal.
type ZOption[T any] struct {
	_ xunsafe.NoCopy

	tag   byte
	value T
}

func (ZOption[T]) archiveMarker() {}

// IsSome reports whether the option holds a value.
func (o *ZOption[T]) IsSome() bool { return o.tag != 0 }

// Get returns a pointer to the payload and true if the option is Some, or
// (nil, false) if it is None.
func (o *ZOption[T]) Get() (*T, bool) {
	if !o.IsSome() {
		return nil, false
	}
	return &o.value, true
}

// CheckBytes validates the discriminant, and if Some, delegates to
// elemCheck for the payload.
func (o *ZOption[T]) CheckBytes(ctx *validate.Context, pos int, elemCheck func(*validate.Context, int, *T) error) error {
	if o.tag > 1 {
		return errInvalidDiscriminant(pos, o.tag)
	}
	if !o.IsSome() {
		return nil
	}
	return elemCheck(ctx, pos+xunsafe.ByteSub(&o.value, o), &o.value)
}

// optionResolver is the resolver SerializeOption returns.
type optionResolver struct {
	some  bool
	value any
}

// SerializeOption builds a resolver for an optional already-archived value.
// For a Some value that itself needs an out-of-line payload, call its
// SerializeInto before constructing value and pass the field resolver
// through a type-specific wrapper; the common case (value is itself
// NoUndef, e.g. a primitive or another niched type) needs nothing further.
func SerializeOption[T any](value *T) optionResolver {
	if value == nil {
		return optionResolver{}
	}
	return optionResolver{some: true, value: *value}
}

// ResolveOption fills in out for an option resolved by SerializeOption.
func ResolveOption[T any](r optionResolver, out Place[ZOption[T]]) {
	var z ZOption[T]
	if r.some {
		z.tag = 1
		z.value = r.value.(T)
	}
	out.Set(z)
}

// NichedOption[T] is the zero-overhead option for a payload type whose
// zero value can never legitimately occur (a non-zero integer, a RelPtr
// that is never null except to mean None): None is encoded as the zero
// bit pattern, with no separate discriminant (spec §4.J "niched
// options"). A null RelPtr/ZBox is already a niched option in this sense
// and needs no wrapper at all; NichedOption exists for other payload
// types that want the same trick.
type NichedOption[T comparable] struct {
	value T
}

func (NichedOption[T]) archiveMarker() {}

// IsSome reports whether the payload differs from its zero value.
func (o *NichedOption[T]) IsSome() bool {
	var zero T
	return o.value != zero
}

// Get returns a pointer to the payload and true if it is set.
func (o *NichedOption[T]) Get() (*T, bool) {
	if !o.IsSome() {
		return nil, false
	}
	return &o.value, true
}

// Set writes value into the place, or leaves it at its zero-filled None
// state if value is nil.
func SetNichedOption[T comparable](value *T, out Place[NichedOption[T]]) {
	var z NichedOption[T]
	if value != nil {
		z.value = *value
	}
	out.Set(z)
}
