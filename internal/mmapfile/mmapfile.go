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

// Package mmapfile memory-maps an archive file for zero-copy access, and
// grows a file-backed buffer for zero-copy writing, extending the
// zero-copy promise of the core package all the way to the filesystem:
// a serialized archive can be read back without the kernel ever copying
// its bytes into a separate heap buffer (spec §6's "external interfaces"
// — files are a first-class way in and out of an archive, alongside
// plain []byte).
package mmapfile

import (
	"fmt"
	"os"

	"github.com/archivelab/zarchive/internal/zc"
	"golang.org/x/sys/unix"
)

// Reader memory-maps an archive file read-only.
type Reader struct {
	f    *os.File
	data []byte
}

// Open memory-maps path for reading. The returned Reader's Bytes are
// backed directly by the mapping; the caller must call Close once done
// to unmap it.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return &Reader{f: f}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmapfile: mmap %s: %w", path, err)
	}

	return &Reader{f: f, data: data}, nil
}

// Bytes returns the mapped archive bytes.
func (r *Reader) Bytes() []byte { return r.data }

// Close unmaps the file and closes its descriptor.
func (r *Reader) Close() error {
	var err error
	if r.data != nil {
		err = unix.Munmap(r.data)
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Writer grows a file-backed buffer by truncating the underlying file and
// remapping it, rather than buffering in anonymous heap memory and
// writing it out at Close (spec's "mmap writer" domain-stack component).
//
// It has the method set of the root package's Writer interface. ToBytesIn
// takes an *AlignedWriter, and ResolveAligned resolves in place only on an
// *AlignedWriter, so ToBytesIn cannot serialize onto this Writer.
type Writer struct {
	f       *os.File
	data    []byte
	pos     int
	granule int
}

// Create truncates (or creates) path and memory-maps it read-write,
// growing it in granule-sized steps as writes exceed its current mapping.
func Create(path string, granule int) (*Writer, error) {
	if granule <= 0 {
		granule = 1 << 20
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	w := &Writer{f: f, granule: granule}
	if err := w.resize(granule); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) resize(size int) error {
	if w.data != nil {
		if err := unix.Munmap(w.data); err != nil {
			return err
		}
		w.data = nil
	}
	if err := w.f.Truncate(int64(size)); err != nil {
		return err
	}
	data, err := unix.Mmap(int(w.f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmapfile: mmap for write: %w", err)
	}
	w.data = data
	return nil
}

func (w *Writer) ensure(extra int) error {
	if w.pos+extra <= len(w.data) {
		return nil
	}
	newSize := len(w.data)
	if newSize == 0 {
		newSize = w.granule
	}
	for newSize < w.pos+extra {
		newSize *= 2
	}
	return w.resize(newSize)
}

// Pos implements zarchive.Writer.
func (w *Writer) Pos() int { return w.pos }

// Write implements zarchive.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.ensure(len(p)); err != nil {
		return 0, err
	}
	pos := w.pos
	copy(w.data[pos:], p)
	w.pos += len(p)
	return pos, nil
}

// Pad implements zarchive.Writer.
func (w *Writer) Pad(n int) error {
	if err := w.ensure(n); err != nil {
		return err
	}
	// w.data is zero-initialized by Truncate growing the file, so padding
	// is just advancing pos; there is nothing to clear.
	w.pos += n
	return nil
}

// WrittenRange describes the logical bytes written so far as a zero-copy
// window into the mapping (internal/zc's "offset, length into a larger
// buffer" abstraction), rather than len(w.data), which also includes the
// unused, granule-rounded tail of the current mapping.
func (w *Writer) WrittenRange() zc.Range {
	return zc.NewRaw(0, w.pos)
}

// Bytes returns the archive written so far, truncated to the logical
// write position rather than the mapping's (larger, granule-rounded)
// size.
func (w *Writer) Bytes() []byte {
	return w.WrittenRange().Bytes(&w.data[0])
}

// Close truncates the file down to the logical write position, flushes
// the mapping, and unmaps it.
func (w *Writer) Close() error {
	if err := unix.Munmap(w.data); err != nil {
		return err
	}
	w.data = nil
	if err := w.f.Truncate(int64(w.pos)); err != nil {
		return err
	}
	return w.f.Close()
}
