// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package iotest provides scripted transport doubles used by the
// capnstream test suite to exercise resumability under interruption.
package iotest

import (
	"io"

	"code.hybscloud.com/iox"
)

// ChunkedBlocker wraps a Reader/Writer and injects ErrWouldBlock after every
// Frequency bytes processed, independently tracked for reads and writes.
// Ported from the Rust origin's BlockingStream (test_utils.rs): the first
// call after construction, and the first call after each successful chunk,
// returns ErrWouldBlock with zero bytes; the call after that drains up to
// Frequency bytes before blocking again.
type ChunkedBlocker struct {
	R io.Reader
	W io.Writer

	Frequency int

	readRemaining  int
	writeRemaining int
}

// NewChunkedBlocker wraps rw, blocking every frequency bytes on both read
// and write.
func NewChunkedBlocker(rw interface {
	io.Reader
	io.Writer
}, frequency int) *ChunkedBlocker {
	return &ChunkedBlocker{R: rw, W: rw, Frequency: frequency}
}

func (b *ChunkedBlocker) Read(p []byte) (int, error) {
	if b.readRemaining == 0 {
		b.readRemaining = b.Frequency
		return 0, iox.ErrWouldBlock
	}
	n := len(p)
	if b.readRemaining < n {
		n = b.readRemaining
	}
	read, err := b.R.Read(p[:n])
	b.readRemaining -= read
	return read, err
}

func (b *ChunkedBlocker) Write(p []byte) (int, error) {
	if b.writeRemaining == 0 {
		b.writeRemaining = b.Frequency
		return 0, iox.ErrWouldBlock
	}
	n := len(p)
	if b.writeRemaining < n {
		n = b.writeRemaining
	}
	written, err := b.W.Write(p[:n])
	b.writeRemaining -= written
	return written, err
}
