/*
Package chunk implements reading and writing of tagged, length-prefixed
chunks.

Each chunk is a four byte ASCII tag followed by the payload length in bytes
as a little-endian 32-bit value and then the payload itself. There is no
padding between chunks.
*/
package chunk

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const (
	tagSize    = 4
	headerSize = tagSize + 4
)

var (
	// ErrBadTag is returned when a tag is not exactly four bytes long
	ErrBadTag = errors.New("chunk: tag must be four bytes")
	// ErrBadLength is returned when a payload length is not a multiple of
	// the expected element size
	ErrBadLength = errors.New("chunk: length is not a multiple of element size")
	errTooLarge  = errors.New("chunk: payload too large")
	errBadSize   = errors.New("chunk: data must be fixed-size")
)

// TagError is returned by Read when the tag found in the stream does not
// match the expected tag.
type TagError struct {
	Got  string
	Want string
}

func (err *TagError) Error() string {
	return "chunk: invalid tag: expected " + err.Want + ", got " + err.Got
}

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Write writes data to w as a chunk with the given tag. data must be a
// fixed-size value, or a slice of fixed-size values, as understood by
// encoding/binary.
func Write(w io.Writer, tag string, data interface{}) error {
	if len(tag) != tagSize {
		return ErrBadTag
	}

	n := binary.Size(data)
	if n < 0 {
		return errBadSize
	}
	if uint64(n) > math.MaxUint32 {
		return errTooLarge
	}

	var header [headerSize]byte
	copy(header[:], tag)
	binary.LittleEndian.PutUint32(header[tagSize:], uint32(n))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	return binary.Write(w, binary.LittleEndian, data)
}

// Read reads a single chunk from r, checks its tag matches and that its
// length is a whole number of elements of the given size, and returns the
// raw payload.
func Read(r io.Reader, tag string, size int) ([]byte, error) {
	if len(tag) != tagSize {
		return nil, ErrBadTag
	}
	if size <= 0 {
		return nil, errBadSize
	}

	var header [headerSize]byte
	if err := readFull(r, header[:]); err != nil {
		return nil, err
	}

	if got := string(header[:tagSize]); got != tag {
		return nil, &TagError{Got: got, Want: tag}
	}

	n := binary.LittleEndian.Uint32(header[tagSize:])
	if uint64(n)%uint64(size) != 0 {
		return nil, ErrBadLength
	}

	// The length field is untrusted, allocate as data arrives
	b := make([]byte, 0, minInt(int64(n), 1<<16))
	for uint32(len(b)) < n {
		step := minInt(int64(n)-int64(len(b)), 1<<16)
		start := len(b)
		b = append(b, make([]byte, step)...)
		if err := readFull(r, b[start:]); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func minInt(a, b int64) int {
	if a < b {
		return int(a)
	}
	return int(b)
}
