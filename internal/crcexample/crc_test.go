// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package crcexample

import (
	"bytes"
	"encoding/binary"
	"testing"

	"code.hybscloud.com/capnstream"
)

// loopback is a bytes.Buffer used as a capnstream.Transport: writes append
// to the back, reads consume from the front.
type loopback struct {
	bytes.Buffer
}

func TestChecksumKnownVector(t *testing.T) {
	// CRC-32C("123456789") is a widely published test vector for the
	// Castagnoli polynomial.
	got := Checksum([]byte("123456789"))
	const want = 0xE3069283
	if got != want {
		t.Fatalf("Checksum(\"123456789\") = 0x%X, want 0x%X", got, want)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox")
	outbound := EncodeRequest(data)

	tr := &loopback{}
	ms := capnstream.NewMessageStream(tr)
	if err := ms.Enqueue(outbound); err != nil {
		t.Fatal(err)
	}

	msg, err := ms.PollRead()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeRequest(msg)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	outbound := EncodeResponse(0xDEADBEEF)

	tr := &loopback{}
	ms := capnstream.NewMessageStream(tr)
	if err := ms.Enqueue(outbound); err != nil {
		t.Fatal(err)
	}

	msg, err := ms.PollRead()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeResponse(msg)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xDEADBEEF {
		t.Fatalf("got 0x%X, want 0xDEADBEEF", got)
	}
}

func TestDecodeRequestRejectsOversizedLengthClaim(t *testing.T) {
	// A one-word segment whose embedded length header claims more data
	// bytes than the segment actually carries.
	seg := make([]byte, 8)
	binary.LittleEndian.PutUint64(seg, 100)

	tr := &loopback{}
	ms := capnstream.NewMessageStream(tr)
	if err := ms.Enqueue(capnstream.OutboundMessage{seg}); err != nil {
		t.Fatal(err)
	}
	msg, err := ms.PollRead()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeRequest(msg); err == nil {
		t.Fatal("expected error for oversized length claim")
	}
}
