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

// This file hand-writes the kind of Archive/Serialize/Deserialize
// implementations a derive/codegen step would emit (spec §1's "out of
// scope" collaborator), so the core pipeline has something concrete to
// round-trip in tests.

import (
	"unsafe"

	"github.com/archivelab/zarchive/internal/dyn"
	"github.com/archivelab/zarchive/internal/pool"
	"github.com/archivelab/zarchive/internal/validate"
	"github.com/archivelab/zarchive/internal/xunsafe"
)

// --- Person: exercises ZString, ZSlice, and ZOption together. ---

type person struct {
	Name   string
	Age    int32
	Bonus  *int32
	Scores []int32
}

type archivedPerson struct {
	_ xunsafe.NoCopy

	name   ZString
	age    int32
	bonus  ZOption[int32]
	scores ZSlice[int32]
}

func (archivedPerson) archiveMarker() {}

type personResolver struct {
	name   stringResolver
	bonus  optionResolver
	scores sliceResolver
}

func (p *person) SerializeInto(scope *Scope) (personResolver, error) {
	nameR, err := SerializeString(p.Name, scope)
	if err != nil {
		return personResolver{}, err
	}
	scoresR, err := SerializeSlice(p.Scores, scope)
	if err != nil {
		return personResolver{}, err
	}
	return personResolver{
		name:   nameR,
		bonus:  SerializeOption(p.Bonus),
		scores: scoresR,
	}, nil
}

func (p *person) Resolve(r personResolver, out Place[archivedPerson]) {
	var a archivedPerson
	a.age = p.Age
	out.Set(a)

	ResolveString(r.name, Field(out, &out.Unsafe().name))
	ResolveOption[int32](r.bonus, Field(out, &out.Unsafe().bonus))
	ResolveSlice[int32](r.scores, Field(out, &out.Unsafe().scores))
}

func (a *archivedPerson) CheckBytes(ctx *validate.Context, pos int) error {
	namePos := pos + xunsafe.ByteSub(&a.name, a)
	if err := a.name.CheckBytes(ctx, namePos); err != nil {
		return err
	}
	bonusPos := pos + xunsafe.ByteSub(&a.bonus, a)
	if err := a.bonus.CheckBytes(ctx, bonusPos, func(*validate.Context, int, *int32) error { return nil }); err != nil {
		return err
	}
	scoresPos := pos + xunsafe.ByteSub(&a.scores, a)
	return a.scores.CheckBytesNoUndef(ctx, scoresPos)
}

func (a *archivedPerson) Deserialize() (person, error) {
	var bonus *int32
	if v, ok := a.bonus.Get(); ok {
		c := *v
		bonus = &c
	}
	return person{
		Name:   a.name.String(),
		Age:    a.age,
		Bonus:  bonus,
		Scores: append([]int32(nil), a.scores.Slice()...),
	}, nil
}

// --- pairSlices: two sibling ZSlice fields, exercising that validation
// rejects a second subtree pointer reusing bytes a prior sibling already
// claimed. ---

type pairSlices struct {
	A, B []int32
}

type archivedPairSlices struct {
	_ xunsafe.NoCopy

	a ZSlice[int32]
	b ZSlice[int32]
}

func (archivedPairSlices) archiveMarker() {}

type pairSlicesResolver struct {
	a, b sliceResolver
}

func (p *pairSlices) SerializeInto(scope *Scope) (pairSlicesResolver, error) {
	aR, err := SerializeSlice(p.A, scope)
	if err != nil {
		return pairSlicesResolver{}, err
	}
	bR, err := SerializeSlice(p.B, scope)
	if err != nil {
		return pairSlicesResolver{}, err
	}
	return pairSlicesResolver{a: aR, b: bR}, nil
}

func (p *pairSlices) Resolve(r pairSlicesResolver, out Place[archivedPairSlices]) {
	var a archivedPairSlices
	out.Set(a)
	ResolveSlice[int32](r.a, Field(out, &out.Unsafe().a))
	ResolveSlice[int32](r.b, Field(out, &out.Unsafe().b))
}

func (a *archivedPairSlices) CheckBytes(ctx *validate.Context, pos int) error {
	aPos := pos + xunsafe.ByteSub(&a.a, a)
	if err := a.a.CheckBytesNoUndef(ctx, aPos); err != nil {
		return err
	}
	bPos := pos + xunsafe.ByteSub(&a.b, a)
	return a.b.CheckBytesNoUndef(ctx, bPos)
}

func (a *archivedPairSlices) Deserialize() (pairSlices, error) {
	return pairSlices{
		A: append([]int32(nil), a.a.Slice()...),
		B: append([]int32(nil), a.b.Slice()...),
	}, nil
}

// --- sharedPair: exercises ZBox sharing identity. ---

type sharedPair struct {
	A, B *int32
}

type archivedSharedPair struct {
	_ xunsafe.NoCopy

	a ZBox[int32]
	b ZBox[int32]
}

func (archivedSharedPair) archiveMarker() {}

type sharedPairResolver struct {
	a, b boxResolver
}

func serializeSharedBox(value *int32, scope *Scope) (boxResolver, error) {
	if value == nil {
		return boxResolver{null: true}, nil
	}
	addr := uintptr(unsafe.Pointer(value))
	return SerializeBox[int32](addr, "int32", value, scope, func() (int, error) {
		return ResolveAligned[int32](scope.W, func(out Place[int32]) { out.Set(*value) })
	})
}

func (p *sharedPair) SerializeInto(scope *Scope) (sharedPairResolver, error) {
	a, err := serializeSharedBox(p.A, scope)
	if err != nil {
		return sharedPairResolver{}, err
	}
	b, err := serializeSharedBox(p.B, scope)
	if err != nil {
		return sharedPairResolver{}, err
	}
	return sharedPairResolver{a: a, b: b}, nil
}

func (p *sharedPair) Resolve(r sharedPairResolver, out Place[archivedSharedPair]) {
	var a archivedSharedPair
	out.Set(a)
	ResolveBox[int32](r.a, Field(out, &out.Unsafe().a))
	ResolveBox[int32](r.b, Field(out, &out.Unsafe().b))
}

func (z *archivedSharedPair) CheckBytes(ctx *validate.Context, pos int) error {
	aPos := pos + xunsafe.ByteSub(&z.a, z)
	if err := z.a.CheckBytes(ctx, aPos, "int32", func(*validate.Context, int, *int32) error { return nil }); err != nil {
		return err
	}
	bPos := pos + xunsafe.ByteSub(&z.b, z)
	return z.b.CheckBytes(ctx, bPos, "int32", func(*validate.Context, int, *int32) error { return nil })
}

func (z *archivedSharedPair) Deserialize() (sharedPair, error) {
	av := *z.a.Get()
	bv := *z.b.Get()
	return sharedPair{A: &av, B: &bv}, nil
}

// DeserializeShared is the identity-preserving counterpart to Deserialize:
// where Deserialize always reconstructs two independent *int32s (FromBytes
// has no channel to thread a dedup pool through the plain Deserialize[D]
// interface), this uses internal/pool to recognize that A and B point at
// the same archive position and hand back the same *int32 for both, the
// owned-deserialize analog of the zero-copy Access identity in
// TestSharingIdentityDedup.
func (z *archivedSharedPair) DeserializeShared(pos int, p *pool.MapPool) (sharedPair, error) {
	aPos := pos + xunsafe.ByteSub(&z.a, z)
	bPos := pos + xunsafe.ByteSub(&z.b, z)
	a, err := sharedInt32(&z.a, aPos, p)
	if err != nil {
		return sharedPair{}, err
	}
	b, err := sharedInt32(&z.b, bPos, p)
	if err != nil {
		return sharedPair{}, err
	}
	return sharedPair{A: a, B: b}, nil
}

func sharedInt32(b *ZBox[int32], pos int, p *pool.MapPool) (*int32, error) {
	if b.IsNull() {
		return nil, nil
	}
	targetPos := b.TargetPos(pos)
	if v, ok := p.GetShared(targetPos); ok {
		return v.(*int32), nil
	}
	c := *b.Get()
	cp := &c
	p.PutShared(targetPos, cp)
	return cp, nil
}

// --- node: a singly linked list, exercising ZBox recursion and cyclic
// shared-pointer rejection. ---

type node struct {
	Value int32
	Next  *node
}

type archivedNode struct {
	_ xunsafe.NoCopy

	value int32
	next  ZBox[archivedNode]
}

func (archivedNode) archiveMarker() {}

type nodeResolver struct {
	next boxResolver
}

func writeNode(n *node, scope *Scope) (int, error) {
	r, err := n.SerializeInto(scope)
	if err != nil {
		return 0, err
	}
	return ResolveAligned[archivedNode](scope.W, func(out Place[archivedNode]) {
		n.Resolve(r, out)
	})
}

func (n *node) SerializeInto(scope *Scope) (nodeResolver, error) {
	if n.Next == nil {
		return nodeResolver{}, nil
	}
	addr := uintptr(unsafe.Pointer(n.Next))
	r, err := SerializeBox[archivedNode](addr, "node", new(archivedNode), scope, func() (int, error) {
		return writeNode(n.Next, scope)
	})
	if err != nil {
		return nodeResolver{}, err
	}
	return nodeResolver{next: r}, nil
}

func (n *node) Resolve(r nodeResolver, out Place[archivedNode]) {
	var a archivedNode
	a.value = n.Value
	out.Set(a)
	ResolveBox[archivedNode](r.next, Field(out, &out.Unsafe().next))
}

func (a *archivedNode) CheckBytes(ctx *validate.Context, pos int) error {
	nextPos := pos + xunsafe.ByteSub(&a.next, a)
	return a.next.CheckBytes(ctx, nextPos, "node", func(ctx *validate.Context, p int, n *archivedNode) error {
		return n.CheckBytes(ctx, p)
	})
}

func (a *archivedNode) Deserialize() (node, error) {
	n := node{Value: a.value}
	if !a.next.IsNull() {
		child, err := a.next.Get().Deserialize()
		if err != nil {
			return node{}, err
		}
		n.Next = &child
	}
	return n, nil
}

// --- shapeArea: a single ZDyn implementation, exercising the polymorphic
// registry end to end. ---

type shapeArea struct {
	Value int32
}

type archivedShapeArea struct {
	_ xunsafe.NoCopy

	value int32
}

func (archivedShapeArea) archiveMarker() {}

func (s *shapeArea) SerializeInto(*Scope) (struct{}, error) { return struct{}{}, nil }

func (s *shapeArea) Resolve(_ struct{}, out Place[archivedShapeArea]) {
	out.Set(archivedShapeArea{value: s.Value})
}

func (a *archivedShapeArea) CheckBytes(*validate.Context, int) error { return nil }

func (a *archivedShapeArea) Deserialize() (shapeArea, error) {
	return shapeArea{Value: a.value}, nil
}

var shapeAreaImplID = dyn.Global.Register("shape", "area", dyn.VTable{
	Deserialize: func(buf []byte, pos int) (any, error) {
		return AccessPosUnchecked[archivedShapeArea](buf, pos).Deserialize()
	},
	CheckBytes: func(ctx any, buf []byte, pos int) error {
		return AccessPosUnchecked[archivedShapeArea](buf, pos).CheckBytes(ctx.(*validate.Context), pos)
	},
})

// dynRoot wraps a single polymorphic value as a serialization root, since
// ZDyn itself has no Serialize/Resolver methods of its own — those are
// free functions a generated root type calls into (spec §4.J).
type dynRoot struct {
	area *shapeArea
}

func (d *dynRoot) SerializeInto(scope *Scope) (dynResolver, error) {
	return SerializeDyn(shapeAreaImplID, func() (int, error) {
		r, err := d.area.SerializeInto(scope)
		if err != nil {
			return 0, err
		}
		return ResolveAligned[archivedShapeArea](scope.W, func(out Place[archivedShapeArea]) {
			d.area.Resolve(r, out)
		})
	})
}

func (d *dynRoot) Resolve(r dynResolver, out Place[ZDyn]) {
	ResolveDyn(r, out)
}
