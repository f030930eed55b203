// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iotest

import (
	"bytes"
	"errors"
	"testing"

	"code.hybscloud.com/iox"
)

func TestChunkedBlockerReadAlternatesBlockAndDrain(t *testing.T) {
	src := bytes.NewBufferString("abcdef")
	b := &ChunkedBlocker{R: src, Frequency: 2}

	buf := make([]byte, 8)

	if _, err := b.Read(buf); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("first read: want ErrWouldBlock, got %v", err)
	}

	n, err := b.Read(buf)
	if err != nil || n != 2 {
		t.Fatalf("second read: want (2, nil), got (%d, %v)", n, err)
	}
	if string(buf[:n]) != "ab" {
		t.Fatalf("unexpected bytes: %q", buf[:n])
	}

	if _, err := b.Read(buf); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("third read: want ErrWouldBlock, got %v", err)
	}

	n, err = b.Read(buf)
	if err != nil || n != 2 || string(buf[:n]) != "cd" {
		t.Fatalf("fourth read: want (2, nil, \"cd\"), got (%d, %v, %q)", n, err, buf[:n])
	}
}

func TestChunkedBlockerWrite(t *testing.T) {
	var dst bytes.Buffer
	b := &ChunkedBlocker{W: &dst, Frequency: 3}

	if _, err := b.Write([]byte("xyz")); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("first write: want ErrWouldBlock, got %v", err)
	}
	n, err := b.Write([]byte("xyz"))
	if err != nil || n != 3 {
		t.Fatalf("second write: want (3, nil), got (%d, %v)", n, err)
	}
	if dst.String() != "xyz" {
		t.Fatalf("unexpected written bytes: %q", dst.String())
	}
}
