/*
Package maif is a library for cataloging and converting MAIF images.

The image codec itself lives in the image subpackage; this package keeps an
SQLite catalog of decoded files and can export them as JSON, YAML or CBOR.
*/
package maif

import "log"

type MAIF struct {
	db     *Catalog
	logger *log.Logger
}

// New opens the catalog stored in file
func New(file string, logger *log.Logger) (*MAIF, error) {
	db, err := NewCatalog(file)
	if err != nil {
		return nil, err
	}

	return &MAIF{
		db:     db,
		logger: logger,
	}, nil
}

func (m *MAIF) Catalog() *Catalog {
	return m.db
}

func (m *MAIF) Close() error {
	return m.db.Close()
}

func (m *MAIF) check(e Entry) {
	switch {
	case e.Truncated:
		m.logger.Printf("Truncated header in \"%s\"\n", e.Path)
	case e.Mismatched():
		m.logger.Printf("\"%s\" has %d pixels, expected %dx%d\n", e.Path, e.Pixels, e.Header.Width, e.Header.Height)
	}
}

// Import adds each file to the catalog
func (m *MAIF) Import(files ...string) error {
	for _, file := range files {
		e, err := m.db.Add(file)
		if err != nil {
			return err
		}
		m.logger.Printf("Imported \"%s\" as %s\n", e.Path, e.ID)
		m.check(e)
	}
	return nil
}
