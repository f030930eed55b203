// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

import (
	"bytes"
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlabAppend(t *testing.T) {
	s := NewSlab(16)
	n := s.Append([]byte("hello"))
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, s.WriteOffset())
	assert.Equal(t, []byte("hello"), s.CommittedPrefix())

	// Appending past capacity truncates rather than overwriting prior bytes.
	n = s.Append([]byte("world!!!!!!!!!!!!"))
	assert.Equal(t, s.Capacity()-5, n)
	assert.Equal(t, s.Capacity(), s.WriteOffset())
}

func TestSlabCapacityRoundsUpToWord(t *testing.T) {
	s := NewSlab(1)
	assert.Equal(t, wordSize, s.Capacity())
	s2 := NewSlab(9)
	assert.Equal(t, 16, s2.Capacity())
}

func TestSlabFillFromWouldBlockPreservesProgress(t *testing.T) {
	r := &scriptedReader{chunks: [][]byte{
		[]byte("ab"),
		nil, // WouldBlock with no bytes
		[]byte("cd"),
	}}
	s := NewSlab(16)

	err := s.FillFrom(r, 4)
	require.True(t, asWouldBlock(err))
	assert.Equal(t, 2, s.WriteOffset())
	assert.Equal(t, []byte("ab"), s.CommittedPrefix())

	err = s.FillFrom(r, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), s.CommittedPrefix())
}

func TestSlabFillFromUnexpectedEOF(t *testing.T) {
	s := NewSlab(16)
	err := s.FillFrom(bytes.NewReader([]byte("ab")), 4)
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
	assert.Equal(t, 2, s.WriteOffset())
}

func TestSlabFillFromExactEOFIsFine(t *testing.T) {
	s := NewSlab(16)
	err := s.FillFrom(bytes.NewReader([]byte("abcd")), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), s.CommittedPrefix())
}

func TestSlabFillFromInterruptedRetries(t *testing.T) {
	r := &scriptedReader{
		chunks: [][]byte{[]byte("ab")},
		errs:   map[int]error{0: syscall.EINTR},
	}
	s := NewSlab(16)
	err := s.FillFrom(r, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), s.CommittedPrefix())
}

func TestSlabViewOutOfBoundsPanics(t *testing.T) {
	s := NewSlab(16)
	s.Append([]byte("abcd"))
	assert.Panics(t, func() { s.View(0, 8) })
}

// P5: appending after a view is taken does not change the view's bytes.
func TestSlabViewStableAcrossAppend(t *testing.T) {
	s := NewSlab(16)
	s.Append([]byte("abcd"))
	v := s.View(0, 4)
	s.Append([]byte("efgh"))
	assert.Equal(t, []byte("abcd"), v.Bytes())
}

// P6: releasing the stream's own handle does not invalidate an outstanding view.
func TestSlabViewOutlivesOwnHandle(t *testing.T) {
	s := NewSlab(16)
	s.Append([]byte("abcd"))
	v := s.View(0, 4)
	s.release() // the stream dropping its own handle
	assert.Equal(t, []byte("abcd"), v.Bytes())
	v.Release()
}

func TestSegmentViewClone(t *testing.T) {
	s := NewSlab(16)
	s.Append([]byte("abcd"))
	v := s.View(0, 4)
	refCountBefore := s.refCount
	clone := v.Clone()
	assert.Equal(t, refCountBefore+1, s.refCount)
	assert.Equal(t, v.Bytes(), clone.Bytes())
	v.Release()
	clone.Release()
}

// scriptedReader replays a script of byte chunks; a nil chunk means "return
// (0, ErrWouldBlock) without consuming a script entry twice".
type scriptedReader struct {
	chunks [][]byte
	errs   map[int]error
	pos    int
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if e, ok := r.errs[r.pos]; ok {
		delete(r.errs, r.pos)
		return 0, e
	}
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	chunk := r.chunks[r.pos]
	r.pos++
	if chunk == nil {
		return 0, ErrWouldBlock
	}
	n := copy(p, chunk)
	return n, nil
}
