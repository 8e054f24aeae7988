package index

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/value"
)

// ErrInvalidAttribute is returned for attribute names that cannot be stored.
var ErrInvalidAttribute = errors.New("invalid attribute")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// columns splits a value into the typed storage columns.
func columns(v value.Value) (intVal, realVal, textVal any) {
	switch v.Type() {
	case value.TypeInt:
		i, _ := v.Int()
		return i, nil, nil
	case value.TypeReal:
		f, _ := v.Real()
		return nil, f, nil
	case value.TypeString:
		s, _ := v.Str()
		return nil, nil, s
	case value.TypeDateTime:
		t, _ := v.Time()
		return nil, nil, t.UTC().Format(time.RFC3339Nano)
	}
	return nil, nil, nil
}

func scanValue(typ int, intVal sql.NullInt64, realVal sql.NullFloat64, textVal sql.NullString) value.Value {
	switch value.Type(typ) {
	case value.TypeInt:
		if intVal.Valid {
			return value.Int(intVal.Int64)
		}
	case value.TypeReal:
		if realVal.Valid {
			return value.Real(realVal.Float64)
		}
	case value.TypeString:
		if textVal.Valid {
			return value.String(textVal.String)
		}
	case value.TypeDateTime:
		if textVal.Valid {
			if t, err := time.Parse(time.RFC3339Nano, textVal.String); err == nil {
				return value.DateTime(t)
			}
		}
	}
	return value.Missing
}

func setAttribute(e execer, path, name string, v value.Value, now int64) error {
	path = entity.CleanPath(path)
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidAttribute)
	}
	if name == "" {
		return fmt.Errorf("%w: empty name for %s", ErrInvalidAttribute, path)
	}
	if v.IsNull() {
		_, err := e.Exec(`DELETE FROM attributes WHERE path_key = ? AND name_key = ?`,
			entity.Key(path), entity.FoldName(name))
		return err
	}
	intVal, realVal, textVal := columns(v)
	_, err := e.Exec(`
		INSERT INTO attributes (path_key, path, name_key, name, type, int_value, real_value, text_value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (path_key, name_key) DO UPDATE SET
			path = excluded.path,
			name = excluded.name,
			type = excluded.type,
			int_value = excluded.int_value,
			real_value = excluded.real_value,
			text_value = excluded.text_value,
			updated_at = excluded.updated_at`,
		entity.Key(path), path, entity.FoldName(name), name, int(v.Type()), intVal, realVal, textVal, now)
	if err != nil {
		return fmt.Errorf("failed to set %s on %s: %w", name, path, err)
	}
	return nil
}

// Set stores an attribute. Setting a null value removes it.
func (d *Database) Set(path, name string, v value.Value) error {
	return setAttribute(d.db, path, name, v, time.Now().Unix())
}

// Unset removes an attribute and reports whether it existed.
func (d *Database) Unset(path, name string) (bool, error) {
	res, err := d.db.Exec(`DELETE FROM attributes WHERE path_key = ? AND name_key = ?`,
		entity.Key(path), entity.FoldName(name))
	if err != nil {
		return false, fmt.Errorf("failed to unset %s on %s: %w", name, path, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Remove deletes every attribute of path and of the paths below it, as left
// behind by a removed directory, and returns how many were removed.
func (d *Database) Remove(path string) (int, error) {
	key := entity.Key(path)
	if key == "" {
		return 0, fmt.Errorf("%w: empty path", ErrInvalidAttribute)
	}
	res, err := d.db.Exec(`DELETE FROM attributes WHERE path_key = ? OR path_key LIKE ? ESCAPE '\'`,
		key, likeEscaper.Replace(key)+"/%")
	if err != nil {
		return 0, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Attributes returns the attributes of path keyed by their stored spelling.
func (d *Database) Attributes(path string) (map[string]value.Value, error) {
	rows, err := d.db.Query(`
		SELECT name, type, int_value, real_value, text_value
		FROM attributes WHERE path_key = ?`, entity.Key(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read attributes of %s: %w", path, err)
	}
	defer rows.Close()

	attrs := make(map[string]value.Value)
	for rows.Next() {
		var name string
		var typ int
		var intVal sql.NullInt64
		var realVal sql.NullFloat64
		var textVal sql.NullString
		if err := rows.Scan(&name, &typ, &intVal, &realVal, &textVal); err != nil {
			return nil, err
		}
		if v := scanValue(typ, intVal, realVal, textVal); !v.IsNull() {
			attrs[name] = v
		}
	}
	return attrs, rows.Err()
}

// Load implements entity.Loader.
func (d *Database) Load(path string, info fs.FileInfo) (entity.Entity, error) {
	attrs, err := d.Attributes(path)
	if err != nil {
		return nil, err
	}
	return entity.New(path, attrs, info), nil
}

// Paths returns every path carrying at least one attribute, sorted.
func (d *Database) Paths() ([]string, error) {
	return d.queryPaths(`SELECT path FROM attributes GROUP BY path_key ORDER BY path_key`)
}

// MatchPaths returns the attributed paths matching a regular expression.
func (d *Database) MatchPaths(expr string) ([]string, error) {
	return d.queryPaths(`SELECT path FROM attributes WHERE path REGEXP ? GROUP BY path_key ORDER BY path_key`, expr)
}

// PathsWith returns the paths carrying the named attribute, sorted.
func (d *Database) PathsWith(name string) ([]string, error) {
	return d.queryPaths(`SELECT path FROM attributes WHERE name_key = ? ORDER BY path_key`, entity.FoldName(name))
}

func (d *Database) queryPaths(query string, args ...any) ([]string, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Names returns the distinct attribute names with their usage counts.
func (d *Database) Names() (map[string]int, error) {
	rows, err := d.db.Query(`SELECT MIN(name), COUNT(*) FROM attributes GROUP BY name_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list attribute names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		names[name] = n
	}
	return names, rows.Err()
}

// Prune removes the attributes of paths that no longer exist below root and
// returns the removed paths.
func (d *Database) Prune(root string) ([]string, error) {
	paths, err := d.Paths()
	if err != nil {
		return nil, err
	}
	var stale []string
	for _, p := range paths {
		if _, err := os.Lstat(filepath.Join(root, filepath.FromSlash(p))); errors.Is(err, fs.ErrNotExist) {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return nil, nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	for _, p := range stale {
		if _, err := tx.Exec(`DELETE FROM attributes WHERE path_key = ?`, entity.Key(p)); err != nil {
			return nil, fmt.Errorf("failed to prune %s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	sort.Strings(stale)
	return stale, nil
}
