// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

// Message is an inbound message: an ordered sequence of SegmentView, each a
// multiple of wordSize bytes (spec.md §3). A Message borrows no data from
// the stream that produced it; it is independently droppable via Release.
type Message struct {
	segments []*SegmentView
}

// NumSegments returns the number of segments in the message.
func (m *Message) NumSegments() int { return len(m.segments) }

// Segment returns the bytes of the i'th segment, 0-indexed.
func (m *Message) Segment(i int) []byte { return m.segments[i].Bytes() }

// View returns the underlying SegmentView for the i'th segment, for callers
// that want to Clone it and retain it independently of the Message.
func (m *Message) View(i int) *SegmentView { return m.segments[i] }

// Release releases every segment's handle on its owning Slab. After Release
// the Message's segment bytes must not be read.
func (m *Message) Release() {
	for _, v := range m.segments {
		v.Release()
	}
	m.segments = nil
}

// OutboundMessage is an ordered sequence of word-aligned segments supplied
// by the caller for enqueueing (spec.md §3). The codec only reads these
// bytes; it takes no ownership of them, so the caller must not mutate a
// segment while it is still queued for write.
type OutboundMessage [][]byte

// wordLengths returns each segment's length in words, panicking if any
// segment is not word-aligned (a caller error, analogous to the fatal
// "segment not word-aligned" condition the teacher's Cap'n Proto message
// marshaler enforces when building a stream header).
func (m OutboundMessage) wordLengths() []int {
	lens := make([]int, len(m))
	for i, seg := range m {
		if len(seg)%wordSize != 0 {
			panic("capnstream: outbound segment is not word-aligned")
		}
		lens[i] = len(seg) / wordSize
	}
	return lens
}
