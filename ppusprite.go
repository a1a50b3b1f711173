/*
Package ppusprite is a library for converting images into 4 color, 8 by 8
tile sprites and packing them into sprite containers.
*/
package ppusprite

import (
	"crypto/sha1"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/ppusprite/asset"
	"github.com/bodgit/ppusprite/tile"
)

const defaultWorkers = 10

// Options configures a Packer.
type Options struct {
	// Reduce quantizes images with more than three opaque colors down to
	// three rather than failing
	Reduce bool
	// Workers is the number of directories converted concurrently by
	// Scan
	Workers int
}

// Packer converts images into sprites.
type Packer struct {
	db     *SpriteDB
	logger *log.Logger
	opts   Options
}

// New returns a Packer. db may be nil in which case conversions are not
// cached.
func New(db *SpriteDB, logger *log.Logger, opts Options) *Packer {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Packer{
		db:     db,
		logger: logger,
		opts:   opts,
	}
}

// SpriteName returns the name used for the sprite converted from file.
func SpriteName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *Packer) convert(r io.Reader) (tile.Palette, []tile.Tile, error) {
	m, _, err := image.Decode(r)
	if err != nil {
		return tile.Palette{}, nil, err
	}
	if p.opts.Reduce {
		m = tile.Reduce(m)
	}
	return tile.Build(tile.Pixels(m))
}

// Convert decodes the image in file and converts it into a sprite with a
// single palette.
func (p *Packer) Convert(file string) (asset.Sprite, error) {
	f, err := os.Open(file)
	if err != nil {
		return asset.Sprite{}, err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return asset.Sprite{}, err
	}
	sha := fmt.Sprintf("%X", h.Sum(nil))

	s := asset.Sprite{
		Name: SpriteName(file),
	}

	if p.db != nil {
		palette, tiles, ok, err := p.db.Lookup(sha, p.opts.Reduce)
		if err != nil {
			return asset.Sprite{}, err
		}
		if ok {
			p.logger.Printf("Using cached conversion of \"%s\"\n", file)
			s.Palettes = []tile.Palette{palette}
			s.Tiles = tiles
			return s, nil
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return asset.Sprite{}, err
	}

	palette, tiles, err := p.convert(f)
	if err != nil {
		return asset.Sprite{}, fmt.Errorf("%s: %w", file, err)
	}

	if p.db != nil {
		if err := p.db.Store(sha, p.opts.Reduce, palette, tiles); err != nil {
			return asset.Sprite{}, err
		}
	}

	p.logger.Printf("Converted \"%s\" into %d tiles\n", file, len(tiles))

	s.Palettes = []tile.Palette{palette}
	s.Tiles = tiles

	return s, nil
}

// Pack converts each file in order and writes the resulting sprites to w as
// a single container.
func (p *Packer) Pack(w io.Writer, files []string) error {
	sprites := make([]asset.Sprite, 0, len(files))
	for _, file := range files {
		s, err := p.Convert(file)
		if err != nil {
			return err
		}
		sprites = append(sprites, s)
	}
	return asset.Write(w, sprites)
}
