package paircorr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteOptions controls Write.
type WriteOptions struct {
	// Precision is the number of digits after the decimal point in text
	// output. 0 means 16.
	Precision int
	// Randoms are passed to CalculateXi for the statistic columns.
	Randoms []*Correlation
}

func isSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Write saves the correlation to path. Files ending in .db, .sqlite or
// .sqlite3 are written as SQLite databases, anything else as text.
func (c *Correlation) Write(path string, opts WriteOptions) error {
	t, err := c.Table(opts.Randoms...)
	if err != nil {
		return err
	}
	if isSQLitePath(path) {
		return WriteSQLite(path, t)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("paircorr: create %s: %w", path, err)
	}
	if err := WriteText(f, t, opts.Precision); err != nil {
		f.Close()
		return fmt.Errorf("paircorr: write %s: %w", path, err)
	}
	return f.Close()
}

// ReadTable loads a table from a file written by Write.
func ReadTable(path string) (*Table, error) {
	if isSQLitePath(path) {
		return ReadSQLite(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("paircorr: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadText(f)
}

// Read replaces the raw sums of c with those saved at path. The file must
// hold the same kind and binning.
func (c *Correlation) Read(path string) error {
	t, err := ReadTable(path)
	if err != nil {
		return err
	}
	return c.loadTable(t)
}

// ReadCorrelation builds a correlation from a file written by Write. See
// FromTable for how cfg is used.
func ReadCorrelation(path string, cfg Config) (*Correlation, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return FromTable(t, cfg)
}
