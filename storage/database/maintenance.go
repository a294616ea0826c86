package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Maintenance exposes the admin-only introspection and destructive
// operations over the store.
type Maintenance struct {
	db *sqlx.DB
}

func NewMaintenance(db *sqlx.DB) *Maintenance {
	return &Maintenance{db: db}
}

// Schema returns the DDL of every application table, keyed by table name.
func (m *Maintenance) Schema() (map[string]string, error) {
	rows, err := m.db.Queryx(
		`SELECT name, sql FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, errors.Wrap(err, "reading sqlite_master")
	}
	defer func() { _ = rows.Close() }()

	schema := make(map[string]string)
	for rows.Next() {
		var name, ddl string
		if err = rows.Scan(&name, &ddl); err != nil {
			return nil, errors.Wrap(err, "scanning sqlite_master")
		}
		schema[name] = ddl
	}
	return schema, rows.Err()
}

// Reset drops the three application tables and does NOT recreate them.
// One-way destructive operation; a restart (or `darasa-admin migrate`)
// rebuilds the schema.
func (m *Maintenance) Reset() error {
	// children first, FK constraints
	for _, table := range []string{"submissions", "assignments", "users"} {
		if _, err := m.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return errors.Wrapf(err, "dropping %s", table)
		}
	}
	return nil
}
