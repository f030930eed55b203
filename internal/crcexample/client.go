// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crcexample

import (
	"fmt"
	"net"

	"code.hybscloud.com/capnstream"
)

// ChecksumRemote connects to a checksum server at addr, requests a checksum
// of data, and returns the result. The client uses a standard blocking
// net.Conn, matching the Rust origin's client (examples/crc-server/src/lib.rs
// checksum): like the server, it drives a blocking-mode MessageStream over
// its net.Conn.
func ChecksumRemote(addr string, data []byte) (uint32, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("crcexample: dialing %s: %w", addr, err)
	}
	defer conn.Close()

	ms := capnstream.NewMessageStream(conn, capnstream.WithBlock())

	if err := ms.Enqueue(EncodeRequest(data)); err != nil {
		return 0, fmt.Errorf("crcexample: sending request: %w", err)
	}

	msg, err := ms.PollRead()
	if err != nil {
		return 0, fmt.Errorf("crcexample: reading response: %w", err)
	}
	defer msg.Release()

	crc, err := DecodeResponse(msg)
	if err != nil {
		return 0, fmt.Errorf("crcexample: decoding response: %w", err)
	}
	return crc, nil
}
