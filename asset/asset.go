/*
Package asset implements the sprite container format.

A container is four chunks written in a fixed order: the concatenated sprite
names, the concatenated palettes, the concatenated tiles and finally one
24 byte record per sprite holding the half-open ranges of its name, palettes
and tiles within the first three chunks. Ranges count elements, not bytes.
Nothing may follow the last chunk.
*/
package asset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/bodgit/ppusprite/chunk"
	"github.com/bodgit/ppusprite/tile"
)

const (
	nameTag    = "name"
	paletteTag = "pal0"
	tileTag    = "tile"
	spriteTag  = "sprt"

	// RecordSize is the size in bytes of each stored sprite record
	RecordSize = 24
)

var (
	// ErrTrailingData is returned when data follows the last chunk
	ErrTrailingData = errors.New("asset: trailing junk at end of file")
	errTooLarge     = errors.New("asset: too many elements")
)

// Pool names used in RangeError
const (
	PoolName    = "name"
	PoolPalette = "palette"
	PoolTile    = "tile"
)

// RangeError is returned when a stored sprite references data outside of a
// pool, or its range is inverted.
type RangeError struct {
	Sprite     int
	Pool       string
	Begin, End uint32
	Size       int
}

func (err *RangeError) Error() string {
	return fmt.Sprintf("asset: bad %s range [%d, %d) for sprite %d, pool holds %d", err.Pool, err.Begin, err.End, err.Sprite, err.Size)
}

// Sprite is a named set of palettes and tiles. The palettes and tiles are
// independent sequences; nothing records which palette a tile uses.
type Sprite struct {
	Name     string
	Palettes []tile.Palette
	Tiles    []tile.Tile
}

type storedSprite struct {
	NameBegin, NameEnd   uint32
	PalBegin, PalEnd     uint32
	TilesBegin, TilesEnd uint32
}

type pools struct {
	names    []byte
	palettes []tile.Palette
	tiles    []tile.Tile
	sprites  []storedSprite
}

func checkLen(n int) error {
	if uint64(n) > math.MaxUint32 {
		return errTooLarge
	}
	return nil
}

func (p *pools) add(s Sprite) error {
	var m storedSprite

	m.NameBegin = uint32(len(p.names))
	p.names = append(p.names, s.Name...)
	m.NameEnd = uint32(len(p.names))

	m.PalBegin = uint32(len(p.palettes))
	p.palettes = append(p.palettes, s.Palettes...)
	m.PalEnd = uint32(len(p.palettes))

	m.TilesBegin = uint32(len(p.tiles))
	p.tiles = append(p.tiles, s.Tiles...)
	m.TilesEnd = uint32(len(p.tiles))

	for _, n := range []int{len(p.names), len(p.palettes), len(p.tiles)} {
		if err := checkLen(n); err != nil {
			return err
		}
	}

	p.sprites = append(p.sprites, m)

	return nil
}

func pack(sprites []Sprite) (*pools, error) {
	p := new(pools)
	for _, s := range sprites {
		if err := p.add(s); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Write encodes sprites as a container and writes it to w.
func Write(w io.Writer, sprites []Sprite) error {
	p, err := pack(sprites)
	if err != nil {
		return err
	}

	if err := chunk.Write(w, nameTag, p.names); err != nil {
		return err
	}
	if err := chunk.Write(w, paletteTag, p.palettes); err != nil {
		return err
	}
	if err := chunk.Write(w, tileTag, p.tiles); err != nil {
		return err
	}
	return chunk.Write(w, spriteTag, p.sprites)
}

func decodePool(b []byte, data interface{}) error {
	return binary.Read(bytes.NewReader(b), binary.LittleEndian, data)
}

func (p *pools) read(r io.Reader) error {
	var err error

	if p.names, err = chunk.Read(r, nameTag, 1); err != nil {
		return err
	}

	b, err := chunk.Read(r, paletteTag, binary.Size(tile.Palette{}))
	if err != nil {
		return err
	}
	p.palettes = make([]tile.Palette, len(b)/binary.Size(tile.Palette{}))
	if err := decodePool(b, p.palettes); err != nil {
		return err
	}

	if b, err = chunk.Read(r, tileTag, binary.Size(tile.Tile{})); err != nil {
		return err
	}
	p.tiles = make([]tile.Tile, len(b)/binary.Size(tile.Tile{}))
	if err := decodePool(b, p.tiles); err != nil {
		return err
	}

	if b, err = chunk.Read(r, spriteTag, RecordSize); err != nil {
		return err
	}
	p.sprites = make([]storedSprite, len(b)/RecordSize)
	return decodePool(b, p.sprites)
}

func checkRange(i int, pool string, begin, end uint32, size int) error {
	if begin <= end && uint64(end) <= uint64(size) {
		return nil
	}
	return &RangeError{
		Sprite: i,
		Pool:   pool,
		Begin:  begin,
		End:    end,
		Size:   size,
	}
}

func (p *pools) validate() error {
	for i, m := range p.sprites {
		if err := checkRange(i, PoolName, m.NameBegin, m.NameEnd, len(p.names)); err != nil {
			return err
		}
		if err := checkRange(i, PoolPalette, m.PalBegin, m.PalEnd, len(p.palettes)); err != nil {
			return err
		}
		if err := checkRange(i, PoolTile, m.TilesBegin, m.TilesEnd, len(p.tiles)); err != nil {
			return err
		}
	}
	return nil
}

func (p *pools) unpack() []Sprite {
	if len(p.sprites) == 0 {
		return nil
	}

	sprites := make([]Sprite, 0, len(p.sprites))
	for _, m := range p.sprites {
		s := Sprite{
			Name: string(p.names[m.NameBegin:m.NameEnd]),
		}
		if m.PalBegin < m.PalEnd {
			s.Palettes = append([]tile.Palette(nil), p.palettes[m.PalBegin:m.PalEnd]...)
		}
		if m.TilesBegin < m.TilesEnd {
			s.Tiles = append([]tile.Tile(nil), p.tiles[m.TilesBegin:m.TilesEnd]...)
		}
		sprites = append(sprites, s)
	}
	return sprites
}

// Read decodes a container from r. Every chunk is read and every stored
// range is validated before any sprite is returned; on error no sprites are
// returned.
func Read(r io.Reader) ([]Sprite, error) {
	var p pools
	if err := p.read(r); err != nil {
		return nil, err
	}

	var tmp [1]byte
	switch n, err := io.ReadFull(r, tmp[:]); {
	case n != 0:
		return nil, ErrTrailingData
	case err != io.EOF:
		return nil, err
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	return p.unpack(), nil
}

// Set is a list of sprites. It implements the encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler interfaces.
type Set []Sprite

// MarshalBinary encodes the set as a container and returns the result
func (s Set) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	if err := Write(b, s); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalBinary decodes the set from a container
func (s *Set) UnmarshalBinary(b []byte) error {
	sprites, err := Read(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*s = sprites
	return nil
}
