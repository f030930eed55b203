// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package crcexample is a small checksum request/response service built on
// capnstream, illustrating MessageStream used in blocking mode over
// net.Conn (capnstream's spec explicitly scopes schema compilation and
// application framing out of the core codec; this package is the bundled
// example program instead).
//
// Messages are single-segment and hand-encoded rather than generated from a
// schema: a request is a little-endian uint64 byte count followed by that
// many data bytes (padded to a word), and a response is a single
// little-endian uint32.
package crcexample

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"code.hybscloud.com/capnstream"
)

// castagnoliTable is the CRC-32C (Castagnoli) polynomial table, matching
// the Rust origin's crc::crc32::checksum_castagnoli.
var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the CRC-32C checksum of data.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoliTable)
}

// EncodeRequest builds the outbound message for a checksum request.
func EncodeRequest(data []byte) capnstream.OutboundMessage {
	padded := (len(data) + 7) &^ 7
	seg := make([]byte, 8+padded)
	binary.LittleEndian.PutUint64(seg[0:8], uint64(len(data)))
	copy(seg[8:], data)
	return capnstream.OutboundMessage{seg}
}

// DecodeRequest extracts the data payload from a decoded request message.
func DecodeRequest(msg *capnstream.Message) ([]byte, error) {
	if msg.NumSegments() != 1 {
		return nil, fmt.Errorf("crcexample: request must have exactly one segment, got %d", msg.NumSegments())
	}
	seg := msg.Segment(0)
	if len(seg) < 8 {
		return nil, fmt.Errorf("crcexample: request segment too short for length header (%d bytes)", len(seg))
	}
	n := binary.LittleEndian.Uint64(seg[0:8])
	if n > uint64(len(seg)-8) {
		return nil, fmt.Errorf("crcexample: request declares %d data bytes but segment only carries %d", n, len(seg)-8)
	}
	return seg[8 : 8+n], nil
}

// EncodeResponse builds the outbound message for a checksum response.
func EncodeResponse(crc uint32) capnstream.OutboundMessage {
	seg := make([]byte, 8)
	binary.LittleEndian.PutUint32(seg[0:4], crc)
	return capnstream.OutboundMessage{seg}
}

// DecodeResponse extracts the checksum from a decoded response message.
func DecodeResponse(msg *capnstream.Message) (uint32, error) {
	if msg.NumSegments() != 1 {
		return 0, fmt.Errorf("crcexample: response must have exactly one segment, got %d", msg.NumSegments())
	}
	seg := msg.Segment(0)
	if len(seg) < 4 {
		return 0, fmt.Errorf("crcexample: response segment too short (%d bytes)", len(seg))
	}
	return binary.LittleEndian.Uint32(seg[0:4]), nil
}
