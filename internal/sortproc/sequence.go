package sortproc

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrFormat indicates an integer file that does not match the expected layout.
var ErrFormat = errors.New("malformed integer file")

// readBlock is the number of values decoded per read, which bounds the memory committed
// ahead of the data actually present.
const readBlock = 1 << 14

// ReadSequence reads the integer file format: a little-endian int32 element count followed
// by that many little-endian int32 values. size is the byte length of the input when
// known, or a value <= 0 otherwise; a count the input cannot hold is rejected up front.
func ReadSequence(r io.Reader, size int64) ([]int32, error) {
	br := bufio.NewReader(r)
	var n int32
	if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: read count: %v", ErrFormat, err)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrFormat, n)
	}
	if size > 0 && 4+4*int64(n) > size {
		return nil, fmt.Errorf("%w: count %d needs %d bytes, input has %d", ErrFormat, n, 4+4*int64(n), size)
	}
	vals := make([]int32, 0, min(int(n), readBlock))
	buf := make([]byte, 4*min(int(n), readBlock))
	for left := int(n); left > 0; {
		k := min(left, readBlock)
		if _, err := io.ReadFull(br, buf[:4*k]); err != nil {
			return nil, fmt.Errorf("%w: want %d values, got %d: %v", ErrFormat, n, len(vals), err)
		}
		for i := 0; i < k; i++ {
			vals = append(vals, int32(binary.LittleEndian.Uint32(buf[4*i:])))
		}
		left -= k
	}
	return vals, nil
}

// WriteSequence writes vals in the format ReadSequence expects.
func WriteSequence(w io.Writer, vals []int32) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(vals))); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, vals); err != nil {
		return err
	}
	return bw.Flush()
}
