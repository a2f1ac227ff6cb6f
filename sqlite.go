package paircorr

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

const busyTimeout = "?_pragma=busy_timeout(5000)"

// WriteSQLite stores t in the SQLite database at path, replacing any table
// written there before. Bins go to a "bins" table with one column per
// table column; the metadata goes to "meta" as YAML. NaN is stored as NULL.
func WriteSQLite(path string, t *Table) error {
	db, err := sqlx.Open("sqlite", path+busyTimeout)
	if err != nil {
		return fmt.Errorf("paircorr: open db: %w", err)
	}
	defer db.Close()

	meta, err := yaml.Marshal(t.Meta)
	if err != nil {
		return fmt.Errorf("paircorr: encode table metadata: %w", err)
	}

	defs := []string{"bin INTEGER PRIMARY KEY"}
	names := []string{"bin"}
	marks := []string{"?"}
	for _, name := range t.Columns {
		typ := "REAL"
		if name == npairsColumn {
			typ = "INTEGER NOT NULL"
		}
		defs = append(defs, quoteIdent(name)+" "+typ)
		names = append(names, quoteIdent(name))
		marks = append(marks, "?")
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	schema := []string{
		`DROP TABLE IF EXISTS bins`,
		`CREATE TABLE bins (` + strings.Join(defs, ", ") + `)`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
	}
	for _, q := range schema {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("paircorr: create schema: %w", err)
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO bins (` + strings.Join(names, ", ") + `) VALUES (` + strings.Join(marks, ", ") + `)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	row := make([]any, len(names))
	for k := 0; k < t.NumRows(); k++ {
		row[0] = k
		for i, name := range t.Columns {
			if name == npairsColumn {
				row[i+1] = t.NPairs[k]
				continue
			}
			v := t.Float[name][k]
			if math.IsNaN(v) {
				row[i+1] = nil
			} else {
				row[i+1] = v
			}
		}
		if _, err := stmt.Exec(row...); err != nil {
			return fmt.Errorf("paircorr: insert bin %d: %w", k, err)
		}
	}

	for key, value := range map[string]string{
		"meta":    string(meta),
		"columns": strings.Join(t.Columns, ","),
	} {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("paircorr: save meta: %w", err)
		}
	}
	return tx.Commit()
}

// ReadSQLite loads a table written by WriteSQLite.
func ReadSQLite(path string) (*Table, error) {
	// Opening creates missing files, so check first.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("paircorr: open db: %w", err)
	}
	db, err := sqlx.Open("sqlite", path+busyTimeout)
	if err != nil {
		return nil, fmt.Errorf("paircorr: open db: %w", err)
	}
	defer db.Close()

	var meta, columns string
	if err := db.Get(&meta, `SELECT value FROM meta WHERE key = 'meta'`); err != nil {
		return nil, fmt.Errorf("%w: read table metadata: %v", ErrValue, err)
	}
	if err := db.Get(&columns, `SELECT value FROM meta WHERE key = 'columns'`); err != nil {
		return nil, fmt.Errorf("%w: read table columns: %v", ErrValue, err)
	}

	t := &Table{Columns: strings.Split(columns, ","), Float: make(map[string][]float64)}
	if err := yaml.Unmarshal([]byte(meta), &t.Meta); err != nil {
		return nil, fmt.Errorf("%w: table metadata: %v", ErrValue, err)
	}

	names := make([]string, len(t.Columns))
	for i, name := range t.Columns {
		names[i] = quoteIdent(name)
	}
	rows, err := db.Queryx(`SELECT ` + strings.Join(names, ", ") + ` FROM bins ORDER BY bin`)
	if err != nil {
		return nil, fmt.Errorf("paircorr: query bins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i, name := range t.Columns {
			if name == npairsColumn {
				n, ok := vals[i].(int64)
				if !ok {
					return nil, fmt.Errorf("%w: npairs holds %T", ErrValue, vals[i])
				}
				t.NPairs = append(t.NPairs, n)
				continue
			}
			v, err := sqlFloat(vals[i])
			if err != nil {
				return nil, fmt.Errorf("%w: column %s: %v", ErrValue, name, err)
			}
			t.Float[name] = append(t.Float[name], v)
		}
	}
	return t, rows.Err()
}

func sqlFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
