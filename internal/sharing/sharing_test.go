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

package sharing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstStartWins(t *testing.T) {
	r := NewRegistry()

	already, mismatch := r.Start(0x1000, "Foo")
	require.False(t, already)
	require.False(t, mismatch)

	already, mismatch = r.Start(0x1000, "Foo")
	require.True(t, already)
	require.False(t, mismatch)
}

func TestTypeMismatchDetected(t *testing.T) {
	r := NewRegistry()

	_, _ = r.Start(0x2000, "Foo")
	already, mismatch := r.Start(0x2000, "Bar")
	require.True(t, already)
	require.True(t, mismatch)
}

func TestResolveOnlyAfterFinish(t *testing.T) {
	r := NewRegistry()

	_, _ = r.Start(0x3000, "Foo")
	require.True(t, r.InProgress(0x3000))

	_, ok := r.Resolve(0x3000)
	require.False(t, ok)

	r.Finish(0x3000, 42)
	require.False(t, r.InProgress(0x3000))

	pos, ok := r.Resolve(0x3000)
	require.True(t, ok)
	require.Equal(t, 42, pos)
}

func TestConcurrentStartIsSerialized(t *testing.T) {
	r := NewRegistry()

	const n = 64
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			already, _ := r.Start(0x4000, "Foo")
			if !already {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestUnpooledNeverShares(t *testing.T) {
	var u Unpooled

	already, mismatch := u.Start(0x5000, "Foo")
	require.False(t, already)
	require.False(t, mismatch)

	already, mismatch = u.Start(0x5000, "Foo")
	require.False(t, already)
	require.False(t, mismatch)

	u.Finish(0x5000, 7)
	_, ok := u.Resolve(0x5000)
	require.False(t, ok)
}
