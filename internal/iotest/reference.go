// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iotest

import (
	"encoding/binary"
	"fmt"
	"io"
)

const wordSize = 8

// EncodeReferenceMessage writes segments to w as a Cap'n Proto stream-framed
// message, using an encoding path that is deliberately independent of
// capnstream's own SerializeSegmentTable. It exists so round-trip tests have
// an oracle that does not share code with the thing under test: if the
// codec's own serializer and parser had a matching bug, a test that built
// its fixtures with the serializer would never catch it.
//
// Ported from the Rust origin's write_message_segments (test_utils.rs),
// which is itself copied from capnproto-rust to guarantee wire-format
// parity with the canonical Rust implementation. Every segment's length
// must be a multiple of wordSize.
func EncodeReferenceMessage(w io.Writer, segments [][]byte) error {
	if len(segments) == 0 {
		return fmt.Errorf("iotest: EncodeReferenceMessage requires at least one segment")
	}
	if err := writeReferenceSegmentTable(w, segments); err != nil {
		return err
	}
	for _, seg := range segments {
		if _, err := w.Write(seg); err != nil {
			return err
		}
	}
	return nil
}

func writeReferenceSegmentTable(w io.Writer, segments [][]byte) error {
	wordLen := func(seg []byte) uint32 {
		if len(seg)%wordSize != 0 {
			panic("iotest: reference segment is not word-aligned")
		}
		return uint32(len(seg) / wordSize)
	}

	var buf [8]byte
	count := len(segments)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(count-1))
	binary.LittleEndian.PutUint32(buf[4:8], wordLen(segments[0]))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}

	if count == 1 {
		return nil
	}

	for i := 1; i < (count+1)/2; i++ {
		binary.LittleEndian.PutUint32(buf[0:4], wordLen(segments[i*2-1]))
		binary.LittleEndian.PutUint32(buf[4:8], wordLen(segments[i*2]))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}

	if count%2 == 0 {
		binary.LittleEndian.PutUint32(buf[0:4], wordLen(segments[count-1]))
		binary.LittleEndian.PutUint32(buf[4:8], 0)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}

	return nil
}
