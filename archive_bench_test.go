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

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// samplePeople builds n persons with realistic, non-repeating string data
// (UUIDs rather than a fixed literal), so the out-of-line ZString path is
// exercised against varied byte content (every UUID string is 36 bytes)
// the way production data would, not just a single repeated short inline
// string.
func samplePeople(n int) []person {
	people := make([]person, n)
	for i := range people {
		bonus := int32(i)
		people[i] = person{
			Name:   uuid.New().String(),
			Age:    int32(i % 100),
			Bonus:  &bonus,
			Scores: []int32{int32(i), int32(i + 1), int32(i + 2)},
		}
	}
	return people
}

func TestRoundTripManyPeopleWithUUIDNames(t *testing.T) {
	people := samplePeople(32)
	for i := range people {
		buf, err := ToBytes[archivedPerson, personResolver](&people[i])
		require.NoError(t, err)

		view, err := Access[archivedPerson](buf)
		require.NoError(t, err)
		require.False(t, view.name.IsInline(), "a UUID string is always longer than the inline capacity")
		require.Equal(t, people[i].Name, view.name.String())

		got, err := FromBytes[archivedPerson, person](buf)
		require.NoError(t, err)
		require.Equal(t, people[i].Name, got.Name)
		require.Equal(t, people[i].Scores, got.Scores)
	}
}
