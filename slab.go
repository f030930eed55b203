// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

import (
	"errors"
	"io"
)

// wordSize is the alignment and length unit of Cap'n Proto payloads.
const wordSize = 8

// defaultSlabCapacity is the capacity used when a MessageStream replaces its
// active Slab without a larger size being demanded by the next read.
const defaultSlabCapacity = 4096

// Slab is a fixed-capacity, append-only byte region that hands out shared,
// immutable views into its committed prefix. Once a byte has been committed
// by Append or FillFrom it is never overwritten, which lets SegmentView
// readers observe a stable address and value for as long as they hold the
// view, without copying (spec.md §4.1).
//
// Slab is not safe for concurrent use: the reference count is a plain int,
// not an atomic, because a Slab and every view derived from it must stay on
// the goroutine that created them (spec.md §5). Concurrency across streams
// is obtained by using independent Slabs on independent goroutines.
type Slab struct {
	data     []byte
	writeOff int
	refCount int
}

// NewSlab allocates a Slab with at least the requested capacity, rounded up
// to a whole word. The reference count starts at 1, representing the
// caller's own handle.
func NewSlab(capacity int) *Slab {
	capacity = roundUpToWord(capacity)
	if capacity < wordSize {
		capacity = wordSize
	}
	return &Slab{data: make([]byte, capacity), refCount: 1}
}

func roundUpToWord(n int) int {
	return (n + wordSize - 1) &^ (wordSize - 1)
}

// Capacity returns the total size of the Slab's backing region in bytes.
func (s *Slab) Capacity() int { return len(s.data) }

// WriteOffset returns the position of the next unwritten byte.
func (s *Slab) WriteOffset() int { return s.writeOff }

// Remaining returns the number of bytes that can still be appended before
// the Slab is full.
func (s *Slab) Remaining() int { return len(s.data) - s.writeOff }

// CommittedPrefix returns the read-only slice of bytes already written.
// The returned slice aliases the Slab's storage and must not be retained
// past the lifetime of any view derived from it without also retaining a
// reference to the Slab (see View).
func (s *Slab) CommittedPrefix() []byte { return s.data[:s.writeOff] }

// Append copies min(len(p), Remaining()) bytes from p at the write offset
// and advances it. It never overwrites a previously committed byte.
func (s *Slab) Append(p []byte) int {
	n := copy(s.data[s.writeOff:], p)
	s.writeOff += n
	return n
}

// FillFrom reads from r into the uncommitted tail until needed additional
// bytes have been committed, the reader signals end-of-input, or an I/O
// error occurs. ErrWouldBlock is surfaced unchanged so the caller can retry;
// all bytes committed before the interruption remain committed.
//
// It is the caller's responsibility to ensure needed <= Remaining().
func (s *Slab) FillFrom(r io.Reader, needed int) error {
	if needed > s.Remaining() {
		panic("capnstream: FillFrom needs more bytes than the slab has remaining")
	}
	end := s.writeOff + needed
	for s.writeOff < end {
		n, rerr := r.Read(s.data[s.writeOff:end])
		if n == 0 && rerr == nil {
			return ErrUnexpectedEOF
		}
		s.writeOff += n
		if rerr == nil {
			continue
		}
		if isInterrupted(rerr) {
			continue
		}
		if errors.Is(rerr, io.EOF) {
			if s.writeOff >= end {
				break
			}
			return ErrUnexpectedEOF
		}
		return rerr
	}
	return nil
}

// View returns a reference-counted, zero-copy window into
// data[offset:offset+length]. It panics if the requested range extends past
// the committed prefix, which spec.md §4.1 treats as a programmer error
// rather than a recoverable one.
func (s *Slab) View(offset, length int) *SegmentView {
	if offset < 0 || length < 0 || offset+length > s.writeOff {
		panic("capnstream: slab view out of bounds")
	}
	s.refCount++
	return &SegmentView{slab: s, offset: offset, length: length}
}

// release decrements the Slab's reference count. It is called by
// SegmentView.Release and by MessageStream when it drops its own handle.
func (s *Slab) release() {
	s.refCount--
}

// SegmentView is a zero-copy, reference-counting window into a Slab's
// committed prefix (spec.md §3). Cloning yields another handle that keeps
// the underlying Slab alive independently of the view that produced it;
// Release drops one handle.
type SegmentView struct {
	slab   *Slab
	offset int
	length int
}

// Bytes returns the read-only byte slice covered by this view. The slice
// aliases the owning Slab's storage and is valid for as long as the view is
// not released.
func (v *SegmentView) Bytes() []byte {
	return v.slab.data[v.offset : v.offset+v.length]
}

// Len returns the number of bytes covered by this view.
func (v *SegmentView) Len() int { return v.length }

// Clone returns another handle over the same bytes, incrementing the owning
// Slab's reference count.
func (v *SegmentView) Clone() *SegmentView {
	v.slab.refCount++
	return &SegmentView{slab: v.slab, offset: v.offset, length: v.length}
}

// Release drops this handle's claim on the owning Slab. A released view
// must not be used again.
func (v *SegmentView) Release() {
	v.slab.release()
}
