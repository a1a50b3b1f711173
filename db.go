package ppusprite

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bodgit/ppusprite/asset"
	"github.com/bodgit/ppusprite/tile"
	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver
)

var errBadCache = errors.New("cached sprite is invalid")

// SpriteDB caches converted images keyed by the SHA-1 of the source file.
type SpriteDB struct {
	db *sql.DB
}

// NewSpriteDB opens, creating if necessary, the cache database in file.
func NewSpriteDB(file string) (*SpriteDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS sprite (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, reduced INTEGER NOT NULL, container BLOB NOT NULL, UNIQUE(sha1, reduced))"); err != nil {
		db.Close()
		return nil, err
	}

	return &SpriteDB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *SpriteDB) Close() error {
	return db.db.Close()
}

// Lookup returns the cached palette and tiles for the given source
// checksum, if any.
func (db *SpriteDB) Lookup(sha string, reduced bool) (tile.Palette, []tile.Tile, bool, error) {
	var container []byte
	switch err := db.db.QueryRow("SELECT container FROM sprite WHERE sha1 = ? AND reduced = ?", sha, reduced).Scan(&container); err {
	case sql.ErrNoRows:
		return tile.Palette{}, nil, false, nil
	case nil:
		sprites, err := asset.Read(bytes.NewReader(container))
		if err != nil {
			return tile.Palette{}, nil, false, err
		}
		if len(sprites) != 1 || len(sprites[0].Palettes) != 1 {
			return tile.Palette{}, nil, false, errBadCache
		}
		return sprites[0].Palettes[0], sprites[0].Tiles, true, nil
	default:
		return tile.Palette{}, nil, false, err
	}
}

// Store caches the palette and tiles converted from the source with the
// given checksum.
func (db *SpriteDB) Store(sha string, reduced bool, palette tile.Palette, tiles []tile.Tile) error {
	b := new(bytes.Buffer)
	if err := asset.Write(b, []asset.Sprite{{
		Palettes: []tile.Palette{palette},
		Tiles:    tiles,
	}}); err != nil {
		return err
	}

	if _, err := db.db.Exec("INSERT OR REPLACE INTO sprite (sha1, reduced, container) VALUES (?, ?, ?)", sha, reduced, b.Bytes()); err != nil {
		return err
	}
	return nil
}
