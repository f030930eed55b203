// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock means "no further progress without waiting".
//
// It is an expected, non-failure control-flow signal for non-blocking I/O.
// All state accumulated so far (buffered bytes, assembled segments, the
// pending write cursor) is preserved; the caller retries the same call
// later.
//
// Caller action: stop the current attempt and retry later (after
// readiness/event), or configure a RetryPolicy to emulate cooperative
// blocking on top of a non-blocking transport.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrInvalidArgument reports an invalid MessageStream configuration.
var ErrInvalidArgument = errors.New("capnstream: invalid argument")

// ErrUnexpectedEOF is returned when the transport signals end-of-input while
// the codec still requires more bytes to complete a header or a segment.
var ErrUnexpectedEOF = io.ErrUnexpectedEOF

// ErrWriteZero is returned when a transport reports a successful write of
// zero bytes while bytes remained to be written. Per spec.md §5 and §9 this
// is treated as a protocol error rather than retried.
var ErrWriteZero = errors.New("capnstream: write returned 0 with no error")

// InvalidSegmentCountError reports that the on-wire segment count (after the
// +1 adjustment described in spec.md §4.3/§6) was outside [1, maxSegments-1].
// Count is the raw adjusted count, so callers can distinguish "0 segments"
// from "too many segments".
type InvalidSegmentCountError struct {
	Count uint32
}

func (e *InvalidSegmentCountError) Error() string {
	if e.Count == 0 {
		return "capnstream: 0 segments in message"
	}
	return fmt.Sprintf("capnstream: too many segments in message (%d)", e.Count)
}

// MessageTooLargeError reports that the sum of segment byte-lengths exceeded
// the configured traversal limit.
type MessageTooLargeError struct {
	SizeWords  uint64
	LimitWords uint64
}

func (e *MessageTooLargeError) Error() string {
	return fmt.Sprintf("capnstream: message is too large (%d words > limit %d words)", e.SizeWords, e.LimitWords)
}

// asWouldBlock reports whether err is the non-blocking control-flow sentinel.
func asWouldBlock(err error) bool {
	return errors.Is(err, ErrWouldBlock)
}

// isInterrupted reports whether err represents a signal-interrupted syscall
// (EINTR), which spec.md §5/§9 treats as "retry immediately" rather than a
// failure. Most Go net.Conn implementations already retry EINTR internally,
// but the transport contract (spec.md §6) accepts any io.Reader/io.Writer,
// some of which surface it directly.
func isInterrupted(err error) bool {
	return errors.Is(err, syscall.EINTR)
}
