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
	"github.com/archivelab/zarchive/internal/debug"
	"github.com/archivelab/zarchive/internal/xunsafe"
	"github.com/archivelab/zarchive/internal/xunsafe/layout"
)

// Writer is the contract a serializer writes archived bytes through
// (spec §4.B). Every byte a Writer hands back via Resolve must already be
// part of the growing buffer at the position it reports.
type Writer interface {
	// Pos returns the current write position: the offset at which the next
	// Pad or Write call would place its first byte.
	Pos() int

	// Write appends p verbatim and returns the position it was written at.
	Write(p []byte) (int, error)

	// Pad appends n zero bytes.
	Pad(n int) error
}

// Align appends the minimum number of zero bytes needed to bring w.Pos() up
// to a multiple of align, a power of two.
func Align(w Writer, align int) error {
	n := layout.Padding(w.Pos(), align)
	if n == 0 {
		return nil
	}
	return w.Pad(n)
}

// AlignFor aligns w to the alignment required by T.
func AlignFor[T any](w Writer) error {
	return Align(w, layout.Align[T]())
}

// ResolveAligned aligns w for T, reserves sizeof(T) zeroed bytes, invokes
// resolve with a Place addressing them, and returns the position the value
// was written at. This is the common shape every Serialize implementation's
// resolve step follows: align, reserve, fill (spec §4.B / §4.F step 4).
func ResolveAligned[T any](w Writer, resolve func(Place[T])) (int, error) {
	if err := AlignFor[T](w); err != nil {
		return 0, err
	}
	pos := w.Pos()
	size := layout.Size[T]()
	if err := w.Pad(size); err != nil {
		return 0, err
	}
	aw, ok := w.(*AlignedWriter)
	if !ok {
		// Non-AlignedWriter implementations only support append-only writes;
		// resolution in place is an AlignedWriter-specific capability.
		return pos, errBufferOverflow(pos, size)
	}
	debug.Assert(pos+size <= len(aw.buf), "ResolveAligned reserved [%d:%d] past buffer of length %d", pos, pos+size, len(aw.buf))
	ptr := aw.at(pos)
	resolve(newPlace[T](pos, xunsafe.Cast[T](ptr)))
	return pos, nil
}

// AlignedWriter is the concrete, growable-byte-slice Writer used by ToBytes
// and ToBytesIn (spec §4.B's "byte buffer" instance).
type AlignedWriter struct {
	buf []byte
	max int // 0 means unbounded
}

// NewAlignedWriter creates a writer backed by an empty, growable buffer.
func NewAlignedWriter() *AlignedWriter {
	return &AlignedWriter{}
}

// NewAlignedWriterIn creates a writer that reuses buf's backing array as its
// initial capacity, per the "serialize into a caller-owned scratch buffer"
// path in spec §4.F.
func NewAlignedWriterIn(buf []byte) *AlignedWriter {
	return &AlignedWriter{buf: buf[:0]}
}

// WithMaxBytes caps how large the writer's buffer may grow; writes that
// would exceed it fail with ErrBufferOverflow.
func (w *AlignedWriter) WithMaxBytes(max int) *AlignedWriter {
	w.max = max
	return w
}

// Pos implements Writer.
func (w *AlignedWriter) Pos() int { return len(w.buf) }

// Write implements Writer.
func (w *AlignedWriter) Write(p []byte) (int, error) {
	pos := len(w.buf)
	if w.max > 0 && pos+len(p) > w.max {
		return 0, errBufferOverflow(pos, len(p))
	}
	w.buf = append(w.buf, p...)
	debug.Log(nil, "AlignedWriter.Write", "wrote %d bytes at %d", len(p), pos)
	return pos, nil
}

// Pad implements Writer.
func (w *AlignedWriter) Pad(n int) error {
	if n == 0 {
		return nil
	}
	pos := len(w.buf)
	if w.max > 0 && pos+n > w.max {
		return errBufferOverflow(pos, n)
	}
	for range n {
		w.buf = append(w.buf, 0)
	}
	return nil
}

// Bytes returns the archive built so far. The slice aliases the writer's
// internal buffer and must not be mutated by the caller.
func (w *AlignedWriter) Bytes() []byte { return w.buf }

// at returns a pointer to the byte at pos within the writer's buffer.
//
// This is only safe to call immediately after reserving [pos, pos+size)
// via Pad, and only until the next Write/Pad call, since append may
// reallocate the backing array.
func (w *AlignedWriter) at(pos int) *byte {
	return &w.buf[pos]
}
