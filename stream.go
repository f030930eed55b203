// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

import "io"

// Transport is the byte-oriented, possibly non-blocking connection a
// MessageStream drives (spec.md §1, §6). Any io.Reader+io.Writer that
// returns a positive byte count, zero (EOF on read, fatal on write), or an
// error — recognizing ErrWouldBlock as "try again later" — satisfies it.
// net.Conn satisfies Transport.
type Transport interface {
	io.Reader
	io.Writer
}

// MessageStream is a bidirectional, resumable adapter between a Transport
// and the Cap'n Proto stream framing format. PollRead pulls the next fully
// available inbound message without blocking; PollWrite makes progress on
// queued outbound messages. Both may be interrupted by ErrWouldBlock at any
// point and resumed later with no loss of partial progress (spec.md §1,
// §4.4–§4.6).
//
// A MessageStream and every Slab/SegmentView/Message derived from it must
// stay on the goroutine that created them (spec.md §5).
type MessageStream struct {
	t    Transport
	opts Options

	// read state (spec.md §3 "MessageStream state")
	buf             *Slab
	bufOffset       int
	pendingSegments []int // stack; top (last element) is the next segment to read
	accumulated     []*SegmentView

	// write state
	outboundQueue   []OutboundMessage
	currentOutbound OutboundMessage
	headerBytes     []byte
	writeSegIndex   int // 0: writing header; k>0: writing segment k-1
	writeByteOffset int
}

// NewMessageStream wraps t in a MessageStream. The stream owns one Slab at a
// time, sized by Options.SlabCapacity (default 4 KiB), and rejects inbound
// messages whose segments sum to more than Options.TraversalLimitWords
// words (default 64 MiB).
func NewMessageStream(t Transport, opts ...Option) *MessageStream {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &MessageStream{
		t:    t,
		opts: o,
		buf:  NewSlab(o.SlabCapacity),
	}
}

// Inner returns the underlying Transport, for callers that need to register
// it with a reactor/event loop (out of scope for this package; spec.md §1).
func (m *MessageStream) Inner() Transport { return m.t }

// HasQueuedOutboundMessages reports whether any outbound message is queued
// or currently being written.
func (m *MessageStream) HasQueuedOutboundMessages() bool {
	return m.currentOutbound != nil || len(m.outboundQueue) > 0
}

// fillOrReplace ensures that at least amount bytes are committed in m.buf
// starting at *from, replacing m.buf with a larger Slab if necessary
// (spec.md §4.2). *from is updated in place if a replacement occurs.
//
// The precise amount still needed after a replacement is
// amount - (old_write_offset - old_from), i.e. amount minus whatever tail
// was already buffered and carried forward — not a wrapped-subtraction
// expression against the new offset (spec.md §9, Open Questions).
func (m *MessageStream) fillOrReplace(from *int, amount int) error {
	if m.buf.WriteOffset()-*from >= amount {
		return nil
	}

	if m.buf.Capacity()-*from < amount {
		newCap := m.opts.SlabCapacity
		if need := amount + wordSize; need > newCap {
			newCap = need
		}
		tail := m.buf.CommittedPrefix()[*from:]
		replacement := NewSlab(newCap)
		replacement.Append(tail)
		m.buf.release()
		m.buf = replacement
		*from = 0
	}

	target := *from + amount
	for {
		remaining := target - m.buf.WriteOffset()
		if remaining <= 0 {
			return nil
		}
		before := m.buf.WriteOffset()
		err := m.buf.FillFrom(m.t, remaining)
		progressed := m.buf.WriteOffset() > before
		if err == nil {
			continue
		}
		if progressed && m.opts.RetryPolicy != nil {
			m.opts.RetryPolicy.Reset()
		}
		if asWouldBlock(err) && m.opts.RetryPolicy != nil && m.opts.RetryPolicy.Wait() {
			continue
		}
		return err
	}
}

// PollRead pulls the next fully-available inbound message (spec.md §4.4).
// It returns (nil, ErrWouldBlock) when the transport has no more bytes
// right now; all progress made so far (buffered bytes, assembled segments)
// is preserved for the next call. Other non-nil errors are fatal: the
// stream should be discarded.
func (m *MessageStream) PollRead() (*Message, error) {
	if len(m.pendingSegments) == 0 {
		if err := m.parseSegmentTable(); err != nil {
			return nil, err
		}
	}

	for len(m.pendingSegments) > 0 {
		top := m.pendingSegments[len(m.pendingSegments)-1]
		if err := m.fillOrReplace(&m.bufOffset, top); err != nil {
			return nil, err
		}
		view := m.buf.View(m.bufOffset, top)
		m.bufOffset += top
		m.accumulated = append(m.accumulated, view)
		m.pendingSegments = m.pendingSegments[:len(m.pendingSegments)-1]
	}

	msg := &Message{segments: m.accumulated}
	m.accumulated = nil
	return msg, nil
}

func (m *MessageStream) parseSegmentTable() error {
	for {
		rest, lengths, needMore, err := ParseSegmentTable(m.buf.CommittedPrefix()[m.bufOffset:], nil)
		if err != nil {
			return err
		}
		if needMore > 0 {
			// needMore counts bytes beyond those already buffered, while
			// fillOrReplace's amount counts from bufOffset.
			amount := len(m.buf.CommittedPrefix()[m.bufOffset:]) + needMore
			if amount < wordSize {
				amount = wordSize
			}
			if err := m.fillOrReplace(&m.bufOffset, amount); err != nil {
				return err
			}
			continue
		}

		headerLen := len(m.buf.CommittedPrefix()[m.bufOffset:]) - len(rest)
		m.bufOffset += headerLen

		var totalBytes uint64
		for _, l := range lengths {
			totalBytes += uint64(l)
		}
		if limit := m.opts.TraversalLimitWords * wordSize; totalBytes > limit {
			return &MessageTooLargeError{SizeWords: totalBytes / wordSize, LimitWords: m.opts.TraversalLimitWords}
		}

		m.pendingSegments = make([]int, len(lengths))
		for i, l := range lengths {
			m.pendingSegments[len(lengths)-1-i] = l
		}
		return nil
	}
}

// Enqueue pushes msg onto the outbound queue (spec.md §4.5). If no write is
// currently in progress, Enqueue synchronously invokes PollWrite once, so a
// caller using a blocking Transport (or a RetryPolicy that blocks) does not
// need to separately drive writes. ErrWouldBlock from that eager attempt is
// swallowed, since it is expected and non-fatal; any other error is
// returned.
func (m *MessageStream) Enqueue(msg OutboundMessage) error {
	m.outboundQueue = append(m.outboundQueue, msg)
	if m.currentOutbound != nil {
		return nil
	}
	err := m.PollWrite()
	if err != nil && !asWouldBlock(err) {
		return err
	}
	return nil
}

// PollWrite drains the outbound queue as far as the transport currently
// permits (spec.md §4.5). It returns nil once the queue is fully drained,
// ErrWouldBlock if a write was interrupted (partial progress is preserved
// for the next call), or another error for a fatal transport/protocol
// failure. Outbound messages are emitted strictly in enqueue order, with no
// interleaving between messages.
func (m *MessageStream) PollWrite() error {
	for {
		if m.currentOutbound == nil {
			if len(m.outboundQueue) == 0 {
				return nil
			}
			m.currentOutbound = m.outboundQueue[0]
			m.outboundQueue = m.outboundQueue[1:]
			m.headerBytes = SerializeSegmentTable(m.headerBytes, m.currentOutbound.wordLengths())
			m.writeSegIndex = 0
			m.writeByteOffset = 0
		}

		if m.writeSegIndex == 0 {
			if err := m.writeAll(m.headerBytes); err != nil {
				return err
			}
			m.writeByteOffset = 0
			m.writeSegIndex = 1
		}

		for m.writeSegIndex-1 < len(m.currentOutbound) {
			seg := m.currentOutbound[m.writeSegIndex-1]
			if err := m.writeAll(seg); err != nil {
				return err
			}
			m.writeByteOffset = 0
			m.writeSegIndex++
		}

		m.currentOutbound = nil
		m.writeSegIndex = 0
		m.writeByteOffset = 0
	}
}

// writeAll drains buf[m.writeByteOffset:] to the transport, advancing
// m.writeByteOffset on every partial write so a later retry resumes exactly
// where it left off.
func (m *MessageStream) writeAll(buf []byte) error {
	for m.writeByteOffset < len(buf) {
		n, err := m.writeChunk(buf[m.writeByteOffset:])
		m.writeByteOffset += n
		if err != nil {
			return err
		}
	}
	return nil
}

// writeChunk performs one write attempt, retrying on Interrupted and on
// ErrWouldBlock when a RetryPolicy is configured (spec.md §4.5, §5, §9).
func (m *MessageStream) writeChunk(p []byte) (int, error) {
	for {
		n, err := m.t.Write(p)
		if n > 0 {
			return n, err
		}
		if err == nil {
			return 0, ErrWriteZero
		}
		if isInterrupted(err) {
			continue
		}
		if asWouldBlock(err) {
			// n == 0 here (the n > 0 case already returned above), so no
			// progress occurred this attempt: do not Reset the RetryPolicy.
			if m.opts.RetryPolicy != nil && m.opts.RetryPolicy.Wait() {
				continue
			}
			return 0, err
		}
		return 0, err
	}
}
