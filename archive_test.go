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
	"testing"

	"github.com/archivelab/zarchive/internal/pool"
	"github.com/archivelab/zarchive/internal/validate"
	"github.com/stretchr/testify/require"
	"github.com/tiendc/go-deepcopy"
)

func TestRoundTripPerson(t *testing.T) {
	bonus := int32(7)
	p := person{
		Name:   "hello, world! this is long enough to go out of line",
		Age:    42,
		Bonus:  &bonus,
		Scores: []int32{1, 2, 3, 4},
	}

	buf, err := ToBytes[archivedPerson, personResolver](&p)
	require.NoError(t, err)

	view, err := Access[archivedPerson](buf)
	require.NoError(t, err)
	require.Equal(t, p.Name, view.name.String())
	require.Equal(t, p.Age, view.age)
	require.Equal(t, p.Scores, view.scores.Slice())

	got, err := FromBytes[archivedPerson, person](buf)
	require.NoError(t, err)

	// property 1: round trip.
	var want person
	require.NoError(t, deepcopy.Copy(&want, &p))
	require.Equal(t, want, got)
}

func TestRoundTripPersonInlineStringNoBonus(t *testing.T) {
	p := person{Name: "hi", Age: 1, Scores: nil}

	buf, err := ToBytes[archivedPerson, personResolver](&p)
	require.NoError(t, err)

	view, err := Access[archivedPerson](buf)
	require.NoError(t, err)
	require.True(t, view.name.IsInline())
	require.Equal(t, "hi", view.name.String())
	_, ok := view.bonus.Get()
	require.False(t, ok)

	got, err := FromBytes[archivedPerson, person](buf)
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.Nil(t, got.Bonus)
	require.Empty(t, got.Scores)
}

func TestValidateThenAccessSafety(t *testing.T) {
	p := person{Name: "a string long enough to force the out-of-line representation", Age: 9}
	buf, err := ToBytes[archivedPerson, personResolver](&p)
	require.NoError(t, err)

	checked, err := Access[archivedPerson](buf)
	require.NoError(t, err)

	unchecked := AccessUnchecked[archivedPerson](buf)
	require.Equal(t, checked.name.String(), unchecked.name.String())
	require.Equal(t, checked.age, unchecked.age)
}

func TestSharingIdentityDedup(t *testing.T) {
	v := int32(7)
	pair := sharedPair{A: &v, B: &v}

	buf, err := ToBytes[archivedSharedPair, sharedPairResolver](&pair)
	require.NoError(t, err)

	view, err := Access[archivedSharedPair](buf)
	require.NoError(t, err)

	// property 5: sharing identity. Both boxes resolve to the same position.
	require.Same(t, view.a.Get(), view.b.Get())
	require.Equal(t, int32(7), *view.a.Get())

	got, err := FromBytes[archivedSharedPair, sharedPair](buf)
	require.NoError(t, err)
	require.Equal(t, int32(7), *got.A)
	require.Equal(t, int32(7), *got.B)
}

func TestSharedDeserializeIdentityPreserved(t *testing.T) {
	v := int32(7)
	pair := sharedPair{A: &v, B: &v}

	buf, err := ToBytes[archivedSharedPair, sharedPairResolver](&pair)
	require.NoError(t, err)

	pos, err := rootPos[archivedSharedPair](buf)
	require.NoError(t, err)
	view := AccessPosUnchecked[archivedSharedPair](buf, pos)

	p := pool.NewMapPool()
	defer p.Close()

	got, err := view.DeserializeShared(pos, p)
	require.NoError(t, err)
	require.Same(t, got.A, got.B)
	require.Equal(t, int32(7), *got.A)
}

func TestCyclicSharedPointerRejected(t *testing.T) {
	c := &node{Value: 1}
	d := &node{Value: 2}
	c.Next = d
	d.Next = c // c and d form a cycle; neither is the root.

	root := node{Value: 0, Next: c}

	_, err := ToBytes[archivedNode, nodeResolver](&root)
	require.ErrorIs(t, err, ErrCyclicSharedPointer)
}

func TestAcyclicLinkedListRoundTrips(t *testing.T) {
	tail := &node{Value: 3}
	mid := &node{Value: 2, Next: tail}
	root := node{Value: 1, Next: mid}

	buf, err := ToBytes[archivedNode, nodeResolver](&root)
	require.NoError(t, err)

	got, err := FromBytes[archivedNode, node](buf)
	require.NoError(t, err)
	require.Equal(t, int32(1), got.Value)
	require.NotNil(t, got.Next)
	require.Equal(t, int32(2), got.Next.Value)
	require.NotNil(t, got.Next.Next)
	require.Equal(t, int32(3), got.Next.Next.Value)
	require.Nil(t, got.Next.Next.Next)
}

func TestDynRoundTrips(t *testing.T) {
	root := dynRoot{area: &shapeArea{Value: 42}}

	buf, err := ToBytes[ZDyn, dynResolver](&root)
	require.NoError(t, err)

	pos, err := rootPos[ZDyn](buf)
	require.NoError(t, err)
	view := AccessPosUnchecked[ZDyn](buf, pos)
	require.Equal(t, shapeAreaImplID, view.ImplID())

	ctx := validate.NewContext(len(buf))
	require.NoError(t, view.CheckBytes(ctx, pos, buf))

	val, err := view.Deserialize(buf, pos)
	require.NoError(t, err)
	require.Equal(t, shapeArea{Value: 42}, val)
}
