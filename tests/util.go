package testutil

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database"
)

// NewConfig returns a config suitable for tests: in-memory DB, short-lived
// tokens, no external services.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = true
	conf.TestMode = true
	conf.Env = "TEST"
	conf.Database.Path = ":memory:"
	conf.RootPassword = ""
	return conf
}

// PrepareDB opens a fresh in-memory database and applies the schema. The pool
// is capped at one connection so every query sees the same memory database.
func PrepareDB(t *testing.T, conf *core.Config) *sqlx.DB {
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ResetDB empties all tables while keeping the schema.
func ResetDB(t *testing.T, db *sqlx.DB) {
	for _, table := range []string{"submissions", "assignments", "users"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("ResetDB() failed: %v", err)
		}
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, pwd string,
	role user.Role,
	course string,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Role:      role,
		Course:    null.NewString(course, course != ""),
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	} else {
		usr.PasswordHash = []byte{} // unusable password; satisfies NOT NULL
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	title, course string,
	createdAt ...time.Time,
) assignment.Assignment {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	asg, err := repo.CreateAssignment(assignment.Assignment{
		Title:     title,
		Course:    course,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	asg assignment.Assignment,
	usr user.User,
	code string,
	createdAt ...time.Time,
) submission.Submission {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	sub, err := repo.CreateSubmission(submission.Submission{
		AssignmentID: asg.ID,
		UserID:       usr.ID,
		Code:         code,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}
