// Package migrate applies the embedded workspace schema scripts.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// Migrate brings the workspace database up to the latest embedded schema.
// Scripts live at sql/NNN_name.sql and run in version order inside a single
// transaction; schema_version records the highest applied script.
func Migrate(db *sql.DB) error {
	scripts, err := fs.Glob(schemaFS, "sql/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(scripts)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	current, err := currentVersion(tx)
	if err != nil {
		return err
	}
	for _, script := range scripts {
		v, err := scriptVersion(script)
		if err != nil {
			return err
		}
		if v <= current {
			continue
		}
		stmts, err := schemaFS.ReadFile(script)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(stmts)); err != nil {
			return fmt.Errorf("apply %s: %w", path.Base(script), err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version=?`, v); err != nil {
			return fmt.Errorf("record %s: %w", path.Base(script), err)
		}
		current = v
	}
	return tx.Commit()
}

func currentVersion(tx *sql.Tx) (int, error) {
	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v int
	err := tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&v)
	if err == sql.ErrNoRows {
		_, err = tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`)
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return v, nil
}

// scriptVersion parses the numeric NNN prefix of sql/NNN_name.sql.
func scriptVersion(script string) (int, error) {
	base := path.Base(script)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, fmt.Errorf("schema script %s: missing version prefix", base)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("schema script %s: %w", base, err)
	}
	return v, nil
}
