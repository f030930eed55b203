// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package capnstream

import "encoding/binary"

// maxSegments is the exclusive upper bound on the adjusted segment count
// (spec.md §4.3, §6, §8): the decoded count must lie in [1, maxSegments-1].
// This is a preserved policy choice from the Rust origin
// (original_source/src/lib.rs); raising it is possible but must be
// documented, as spec.md §9 notes.
const maxSegments = 512

// ParseSegmentTable attempts to parse a segment table from the front of
// input (spec.md §4.3). lengths is an accumulator slice; on success the
// per-segment byte lengths (word length × wordSize) are appended to it in
// source order and returned as out.
//
// The three possible outcomes, matching spec.md's Incomplete/Error/Done:
//
//   - err == nil && needMore > 0: input is a prefix of a valid header;
//     needMore is exactly how many more bytes are required before the next
//     call can make progress.
//   - err is *InvalidSegmentCountError: the decoded segment count (after the
//     +1 wrapping adjustment) is 0 or >= maxSegments. err.Count carries the
//     raw adjusted count.
//   - err == nil && needMore == 0: done. rest is the suffix of input past
//     the header, including any trailing pad word.
func ParseSegmentTable(input []byte, lengths []int) (rest []byte, out []int, needMore int, err error) {
	const countFieldLen = 4
	if len(input) < countFieldLen {
		return nil, lengths, countFieldLen - len(input), nil
	}

	raw := binary.LittleEndian.Uint32(input[0:countFieldLen])
	count := raw + 1 // wrapping add: 0xFFFFFFFF wraps to 0
	if count == 0 || count >= maxSegments {
		return nil, lengths, 0, &InvalidSegmentCountError{Count: count}
	}

	headerLen := SegmentTableLength(count)
	if len(input) < headerLen {
		return nil, lengths, headerLen - len(input), nil
	}

	out = lengths
	for i := uint32(0); i < count; i++ {
		off := countFieldLen + countFieldLen*int(i)
		wordLen := binary.LittleEndian.Uint32(input[off : off+countFieldLen])
		out = append(out, int(wordLen)*wordSize)
	}
	return input[headerLen:], out, 0, nil
}

// SegmentTableLength returns the on-wire byte length of a segment table
// header for the given (already +1-adjusted) segment count: 4n bytes for
// the per-segment lengths plus 4 bytes for the count field, padded to a
// word boundary (spec.md §4.3, §8 P7).
func SegmentTableLength(count uint32) int {
	if count%2 == 1 {
		return 4*int(count) + 4
	}
	return 4*int(count) + 8
}

// SerializeSegmentTable clears dst and writes a segment table header for
// wordLengths (each entry a segment's length in words) following spec.md
// §4.3/§6: a little-endian count-minus-one, then each segment's
// little-endian word-length, then a zero pad word if the count is even.
// The returned slice's length always equals SegmentTableLength(len(wordLengths)).
//
// SerializeSegmentTable does not validate wordLengths; callers constructing
// an outbound message are responsible for supplying a non-empty, in-range
// segment count (spec.md §6: count-1 wraps, so a 0-length slice round-trips
// to the "0 segments" error case on the reading side).
func SerializeSegmentTable(dst []byte, wordLengths []int) []byte {
	dst = dst[:0]
	count := uint32(len(wordLengths))
	dst = binary.LittleEndian.AppendUint32(dst, count-1)
	for _, wl := range wordLengths {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(wl))
	}
	if count%2 == 0 {
		dst = binary.LittleEndian.AppendUint32(dst, 0)
	}
	return dst
}
