package database

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT UNIQUE NOT NULL,
		password_hash BLOB NOT NULL,
		role          TEXT CHECK(role IN ('student', 'instructor', 'admin')) NOT NULL,
		course        TEXT,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL,
		last_login    TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT NOT NULL,
		course     TEXT NOT NULL,
		locked     BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		assignment_id INTEGER NOT NULL,
		user_id       INTEGER NOT NULL,
		code          TEXT NOT NULL,
		graded        BOOLEAN NOT NULL DEFAULT 0,
		grade         TEXT,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL,
		FOREIGN KEY(assignment_id) REFERENCES assignments(id),
		FOREIGN KEY(user_id) REFERENCES users(id)
	)`,
}

// Open connects to the SQLite database file. The engine serializes writes;
// no app-level locking is needed.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", conf.Database.Path+"?_fk=on")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, "migrating schema")
		}
	}
	return nil
}

// EnsureRootUser creates the default admin account from configuration if it
// does not exist. A blank root password disables the bootstrap.
func EnsureRootUser(repo user.Repository, conf *core.Config) error {
	if conf.RootPassword == "" {
		return nil
	}
	if _, err := repo.GetUserByUsername(conf.RootUsername); err == nil {
		return nil
	} else if errors.Cause(err) != user.ErrNotFound {
		return errors.Wrap(err, "checking root user")
	}

	now := time.Now().UTC()
	usr := user.User{
		Username:  conf.RootUsername,
		Role:      user.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(conf.RootPassword); err != nil {
		return errors.Wrap(err, "hashing root password")
	}
	if _, err := repo.CreateUser(usr); err != nil {
		return errors.Wrap(err, "creating root user")
	}
	return nil
}
