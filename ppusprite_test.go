package ppusprite

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/ppusprite/asset"
	"github.com/bodgit/ppusprite/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{200, 50, 50, 0xff}
	green = color.NRGBA{50, 200, 50, 0xff}
	blue  = color.NRGBA{50, 50, 200, 0xff}
)

func tempDir(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "ppusprite")
	require.NoError(t, err)
	return dir, func() {
		os.RemoveAll(dir)
	}
}

func writePNG(t *testing.T, file string, w, h int, colors ...color.NRGBA) {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%(len(colors)+1) == 0 {
				continue
			}
			m.SetNRGBA(x, y, colors[(x+y)%(len(colors)+1)-1])
		}
	}

	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
}

func discard() *log.Logger {
	return log.New(ioutil.Discard, "", 0)
}

func TestSpriteName(t *testing.T) {
	assert.Equal(t, "hero", SpriteName(filepath.Join("a", "b", "hero.png")))
	assert.Equal(t, "hero.idle", SpriteName("hero.idle.gif"))
	assert.Equal(t, "noext", SpriteName("noext"))
}

func TestConvert(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	file := filepath.Join(dir, "hero.png")
	writePNG(t, file, 16, 8, red, green)

	p := New(nil, discard(), Options{})

	s, err := p.Convert(file)
	require.NoError(t, err)

	assert.Equal(t, "hero", s.Name)
	require.Len(t, s.Palettes, 1)
	assert.Equal(t, tile.Palette{{}, red, green, {}}, s.Palettes[0])
	assert.Len(t, s.Tiles, 2)

	// Pixel (1, 0) is the first opaque pixel
	assert.Equal(t, uint8(1), s.Tiles[0].Index(1, 0))
	assert.Equal(t, uint8(0), s.Tiles[0].Index(0, 0))
}

func TestConvertTooManyColors(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	file := filepath.Join(dir, "busy.png")
	writePNG(t, file, 8, 8, red, green, blue, color.NRGBA{1, 2, 3, 0xff})

	_, err := New(nil, discard(), Options{}).Convert(file)
	assert.True(t, errors.Is(err, tile.ErrTooManyColors))

	s, err := New(nil, discard(), Options{Reduce: true}).Convert(file)
	require.NoError(t, err)
	assert.Len(t, s.Tiles, 1)
}

func TestPack(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 8, 16, red)
	writePNG(t, b, 8, 8, blue, green)

	buf := new(bytes.Buffer)
	require.NoError(t, New(nil, discard(), Options{}).Pack(buf, []string{a, b}))

	sprites, err := asset.Read(buf)
	require.NoError(t, err)
	require.Len(t, sprites, 2)
	assert.Equal(t, "a", sprites[0].Name)
	assert.Len(t, sprites[0].Tiles, 2)
	assert.Equal(t, "b", sprites[1].Name)
	assert.Equal(t, tile.Palette{{}, blue, green, {}}, sprites[1].Palettes[0])
}

func TestPackMissingFile(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	buf := new(bytes.Buffer)
	err := New(nil, discard(), Options{}).Pack(buf, []string{filepath.Join(dir, "missing.png")})
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, buf.Len())
}

func TestSpriteDB(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	db, err := NewSpriteDB(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	_, _, ok, err := db.Lookup("ABCD", false)
	require.NoError(t, err)
	assert.False(t, ok)

	palette := tile.Palette{{}, red, {}, {}}
	tiles := []tile.Tile{{Bit0: [8]uint8{0xff}}, {}}
	require.NoError(t, db.Store("ABCD", false, palette, tiles))

	gotPalette, gotTiles, ok, err := db.Lookup("ABCD", false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, palette, gotPalette)
	assert.Equal(t, tiles, gotTiles)

	_, _, ok, err = db.Lookup("ABCD", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConvertCached(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()
	file := filepath.Join(dir, "hero.png")
	writePNG(t, file, 8, 8, red)

	db, err := NewSpriteDB(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	p := New(db, discard(), Options{})
	first, err := p.Convert(file)
	require.NoError(t, err)

	// Poison the cache to prove the second conversion comes from it
	var rows int
	require.NoError(t, db.db.QueryRow("SELECT COUNT(*) FROM sprite").Scan(&rows))
	assert.Equal(t, 1, rows)
	_, err = db.db.Exec("UPDATE sprite SET container = ?", mustContainer(t, tile.Palette{{}, blue, {}, {}}, first.Tiles))
	require.NoError(t, err)

	second, err := p.Convert(file)
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Tiles, second.Tiles)
	assert.Equal(t, tile.Palette{{}, blue, {}, {}}, second.Palettes[0])
}

func mustContainer(t *testing.T, palette tile.Palette, tiles []tile.Tile) []byte {
	b, err := asset.Set{{Palettes: []tile.Palette{palette}, Tiles: tiles}}.MarshalBinary()
	require.NoError(t, err)
	return b
}

func TestScan(t *testing.T) {
	base, cleanup := tempDir(t)
	defer cleanup()

	for _, dir := range []string{"one", filepath.Join("one", "two"), "empty", ".hidden"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, dir), 0755))
	}
	writePNG(t, filepath.Join(base, "one", "b.png"), 8, 8, red)
	writePNG(t, filepath.Join(base, "one", "a.png"), 8, 8, green)
	writePNG(t, filepath.Join(base, "one", "two", "c.png"), 16, 16, blue)
	writePNG(t, filepath.Join(base, ".hidden", "d.png"), 8, 8, blue)
	require.NoError(t, ioutil.WriteFile(filepath.Join(base, "empty", "notes.txt"), []byte("x"), 0644))

	require.NoError(t, New(nil, discard(), Options{Workers: 2}).Scan(base))

	read := func(dir string) []asset.Sprite {
		f, err := os.Open(filepath.Join(base, dir, Filename))
		require.NoError(t, err)
		defer f.Close()
		sprites, err := asset.Read(f)
		require.NoError(t, err)
		return sprites
	}

	one := read("one")
	require.Len(t, one, 2)
	assert.Equal(t, "a", one[0].Name)
	assert.Equal(t, "b", one[1].Name)

	two := read(filepath.Join("one", "two"))
	require.Len(t, two, 1)
	assert.Equal(t, "c", two[0].Name)
	assert.Len(t, two[0].Tiles, 4)

	for _, dir := range []string{"", "empty", ".hidden"} {
		_, err := os.Stat(filepath.Join(base, dir, Filename))
		assert.True(t, os.IsNotExist(err), dir)
	}
}

func TestScanError(t *testing.T) {
	base, cleanup := tempDir(t)
	defer cleanup()
	writePNG(t, filepath.Join(base, "busy.png"), 8, 8, red, green, blue, color.NRGBA{1, 2, 3, 0xff})

	err := New(nil, discard(), Options{}).Scan(base)
	assert.True(t, errors.Is(err, tile.ErrTooManyColors))

	_, err = os.Stat(filepath.Join(base, Filename))
	assert.True(t, os.IsNotExist(err))
}
