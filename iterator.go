// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

// MessageIterator repeatedly calls PollRead, stopping the moment no message
// is currently available rather than treating that as an error (spec.md
// §4.6). It follows the bufio.Scanner idiom: call Next in a loop, and when
// Next returns false check Err to distinguish "nothing to read right now"
// (Err returns nil) from a fatal decode/transport error (Err returns it).
//
// A false Next result never means the underlying transport is closed or the
// stream is exhausted forever — only that this poll found nothing yet.
// Callers drive the iterator again after the transport becomes readable.
type MessageIterator struct {
	ms  *MessageStream
	msg *Message
	err error
}

// Messages returns a MessageIterator over m's inbound messages.
func (m *MessageStream) Messages() *MessageIterator {
	return &MessageIterator{ms: m}
}

// Next attempts to decode one more message. It returns true if Message will
// return a newly decoded message. It returns false either because the
// transport currently has nothing more to offer (Err returns nil) or
// because a fatal error occurred (Err returns it).
func (it *MessageIterator) Next() bool {
	it.msg = nil
	msg, err := it.ms.PollRead()
	if err != nil {
		if !asWouldBlock(err) {
			it.err = err
		}
		return false
	}
	it.msg = msg
	return true
}

// Message returns the message decoded by the most recent successful Next.
func (it *MessageIterator) Message() *Message { return it.msg }

// Err returns the fatal error, if any, that stopped iteration. It returns
// nil if iteration stopped only because no message was currently available.
func (it *MessageIterator) Err() error { return it.err }
