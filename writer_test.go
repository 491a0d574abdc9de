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

	"github.com/stretchr/testify/require"
)

func TestAlignedWriterWriteAndPad(t *testing.T) {
	w := NewAlignedWriter()

	pos, err := w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 0, pos)
	require.Equal(t, 3, w.Pos())

	require.NoError(t, w.Pad(5))
	require.Equal(t, 8, w.Pos())
	require.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, w.Bytes())
}

func TestAlignBringsUpToMultiple(t *testing.T) {
	w := NewAlignedWriter()
	_, err := w.Write([]byte{1, 2, 3})
	require.NoError(t, err)

	require.NoError(t, Align(w, 8))
	require.Equal(t, 0, w.Pos()%8)

	// Already aligned: a second call pads nothing further.
	pos := w.Pos()
	require.NoError(t, Align(w, 8))
	require.Equal(t, pos, w.Pos())
}

func TestAlignForUsesTypeAlignment(t *testing.T) {
	w := NewAlignedWriter()
	_, err := w.Write([]byte{1})
	require.NoError(t, err)

	require.NoError(t, AlignFor[int64](w))
	require.Equal(t, 0, w.Pos()%8)
}

func TestWithMaxBytesRejectsOverflow(t *testing.T) {
	w := NewAlignedWriterIn(nil).WithMaxBytes(4)

	_, err := w.Write([]byte{1, 2, 3, 4})
	require.NoError(t, err)

	_, err = w.Write([]byte{5})
	require.ErrorIs(t, err, ErrBufferOverflow)

	err = w.Pad(1)
	require.ErrorIs(t, err, ErrBufferOverflow)
}

func TestNewAlignedWriterInReusesBackingArray(t *testing.T) {
	backing := make([]byte, 0, 16)
	w := NewAlignedWriterIn(backing)
	require.Equal(t, 0, w.Pos())

	_, err := w.Write([]byte{9, 9})
	require.NoError(t, err)
	require.Equal(t, []byte{9, 9}, w.Bytes())
}

func TestResolveAlignedReservesZeroedSpace(t *testing.T) {
	w := NewAlignedWriter()
	_, err := w.Write([]byte{1})
	require.NoError(t, err)

	pos, err := ResolveAligned[int64](w, func(p Place[int64]) {
		p.Set(123456789)
	})
	require.NoError(t, err)
	require.Equal(t, 0, pos%8, "ResolveAligned must align before reserving")

	var got int64
	require.NoError(t, err)
	got = int64(w.Bytes()[pos]) | int64(w.Bytes()[pos+1])<<8 |
		int64(w.Bytes()[pos+2])<<16 | int64(w.Bytes()[pos+3])<<24 |
		int64(w.Bytes()[pos+4])<<32 | int64(w.Bytes()[pos+5])<<40 |
		int64(w.Bytes()[pos+6])<<48 | int64(w.Bytes()[pos+7])<<56
	require.Equal(t, int64(123456789), got)
}

func TestResolveAlignedFailsOnNonAlignedWriter(t *testing.T) {
	_, err := ResolveAligned[int64](fakeWriter{}, func(Place[int64]) {})
	require.ErrorIs(t, err, ErrBufferOverflow)
}

// fakeWriter is a minimal, non-*AlignedWriter Writer implementation, used
// to exercise ResolveAligned's append-only fallback path.
type fakeWriter struct{}

func (fakeWriter) Pos() int             { return 0 }
func (fakeWriter) Write([]byte) (int, error) { return 0, nil }
func (fakeWriter) Pad(int) error        { return nil }
