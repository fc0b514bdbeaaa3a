package maif

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ljp-projects/maif/image"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when the catalog has no matching image
var ErrNotFound = errors.New("maif: no such image")

// Catalog is an SQLite index of decoded MAIF files
type Catalog struct {
	db *sql.DB
}

// Entry is a single catalog row, without the image data
type Entry struct {
	ID        string
	Path      string
	SHA1      string
	Header    image.Header
	Pixels    int
	Truncated bool
}

// Mismatched reports whether the pixel count disagrees with the dimensions
func (e Entry) Mismatched() bool {
	return e.Pixels != int(e.Header.Width)*int(e.Header.Height)
}

// NewCatalog opens, creating if necessary, the catalog stored in file
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// SQLite only allows one writer at a time
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, uuid TEXT NOT NULL UNIQUE, path TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, timestamp TEXT NOT NULL, pixels INTEGER NOT NULL, truncated INTEGER NOT NULL, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the underlying database
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Add decodes the MAIF file and stores it in the catalog, replacing any
// existing entry for the same path.
func (c *Catalog) Add(file string) (Entry, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return Entry{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()

	h := sha1.New()
	data := new(bytes.Buffer)
	m, err := image.Decode(io.TeeReader(f, io.MultiWriter(h, data)))
	if err != nil {
		return Entry{}, err
	}

	// Never store a NULL blob for an empty file
	blob := append([]byte{}, data.Bytes()...)

	e := Entry{
		Path:      path,
		SHA1:      fmt.Sprintf("%X", h.Sum(nil)),
		Header:    m.Header,
		Pixels:    len(m.Pixels),
		Truncated: m.Truncated(),
	}

	switch err := c.db.QueryRow("SELECT uuid FROM image WHERE path = ?", path).Scan(&e.ID); err {
	case sql.ErrNoRows:
		e.ID = uuid.NewString()
		if _, err := c.db.Exec("INSERT INTO image (uuid, path, sha1, width, height, timestamp, pixels, truncated, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", e.ID, e.Path, e.SHA1, e.Header.Width, e.Header.Height, e.Header.Timestamp, e.Pixels, e.Truncated, blob); err != nil {
			return Entry{}, err
		}
	case nil:
		if _, err := c.db.Exec("UPDATE image SET sha1 = ?, width = ?, height = ?, timestamp = ?, pixels = ?, truncated = ?, data = ? WHERE uuid = ?", e.SHA1, e.Header.Width, e.Header.Height, e.Header.Timestamp, e.Pixels, e.Truncated, blob, e.ID); err != nil {
			return Entry{}, err
		}
	default:
		return Entry{}, err
	}

	return e, nil
}

type scanner interface {
	Scan(...interface{}) error
}

const entryColumns = "uuid, path, sha1, width, height, timestamp, pixels, truncated"

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	if err := s.Scan(&e.ID, &e.Path, &e.SHA1, &e.Header.Width, &e.Header.Height, &e.Header.Timestamp, &e.Pixels, &e.Truncated); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Find returns the entry for the given file, or nil if it isn't cataloged
func (c *Catalog) Find(file string) (*Entry, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}

	e, err := scanEntry(c.db.QueryRow("SELECT "+entryColumns+" FROM image WHERE path = ?", path))
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &e, nil
	default:
		return nil, err
	}
}

// List returns every entry ordered by path
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query("SELECT " + entryColumns + " FROM image ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Image decodes the stored copy of the image with the given ID
func (c *Catalog) Image(id string) (*image.Image, error) {
	var data []byte
	switch err := c.db.QueryRow("SELECT data FROM image WHERE uuid = ?", id).Scan(&data); err {
	case sql.ErrNoRows:
		return nil, ErrNotFound
	case nil:
		return image.Decode(bytes.NewReader(data))
	default:
		return nil, err
	}
}

// Remove deletes the entry for the given file
func (c *Catalog) Remove(file string) error {
	path, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	result, err := c.db.Exec("DELETE FROM image WHERE path = ?", path)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
