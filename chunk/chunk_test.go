package chunk

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	A, B uint32
}

func TestWriteRead(t *testing.T) {
	var b bytes.Buffer

	require.NoError(t, Write(&b, "pair", []pair{{1, 2}, {3, 4}}))
	assert.Equal(t, []byte{
		'p', 'a', 'i', 'r',
		16, 0, 0, 0,
		1, 0, 0, 0, 2, 0, 0, 0,
		3, 0, 0, 0, 4, 0, 0, 0,
	}, b.Bytes())

	payload, err := Read(&b, "pair", 8)
	require.NoError(t, err)
	assert.Len(t, payload, 16)
	assert.Equal(t, 0, b.Len())
}

func TestWriteEmpty(t *testing.T) {
	var b bytes.Buffer

	require.NoError(t, Write(&b, "name", []byte(nil)))
	assert.Equal(t, []byte{'n', 'a', 'm', 'e', 0, 0, 0, 0}, b.Bytes())

	payload, err := Read(&b, "name", 1)
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestWriteBadTag(t *testing.T) {
	var b bytes.Buffer
	assert.Equal(t, ErrBadTag, Write(&b, "toolong", []byte{1}))
	assert.Equal(t, 0, b.Len())
}

func TestWriteUnsized(t *testing.T) {
	var b bytes.Buffer
	assert.Error(t, Write(&b, "name", []int{1, 2}))
}

func TestReadTagMismatch(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write(&b, "tile", []byte{1, 2}))

	_, err := Read(&b, "name", 1)

	var tagErr *TagError
	require.True(t, errors.As(err, &tagErr))
	assert.Equal(t, "tile", tagErr.Got)
	assert.Equal(t, "name", tagErr.Want)
	assert.Equal(t, "chunk: invalid tag: expected name, got tile", err.Error())
}

func TestReadBadLength(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write(&b, "pal0", []byte{1, 2, 3}))

	_, err := Read(&b, "pal0", 16)
	assert.Equal(t, ErrBadLength, err)
}

func TestReadTruncated(t *testing.T) {
	tables := map[string][]byte{
		"empty":   {},
		"header":  {'s', 'p', 'r'},
		"payload": {'s', 'p', 'r', 't', 4, 0, 0, 0, 1, 2},
	}

	for name, table := range tables {
		t.Run(name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(table), "sprt", 1)
			assert.Equal(t, io.ErrUnexpectedEOF, err)
		})
	}
}

func TestReadLargeLengthShortStream(t *testing.T) {
	// Claims 4 GiB but only carries a few bytes
	b := []byte{'n', 'a', 'm', 'e', 0xff, 0xff, 0xff, 0xff, 'a', 'b'}

	_, err := Read(bytes.NewReader(b), "name", 1)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}
