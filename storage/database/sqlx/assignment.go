package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

type dbAssignment struct {
	ID        int       `db:"id"`
	Title     string    `db:"title"`
	Course    string    `db:"course"`
	Locked    bool      `db:"locked"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (repo assignmentRepository) unpack(a dbAssignment) assignment.Assignment {
	return assignment.Assignment{
		ID:        a.ID,
		Title:     a.Title,
		Course:    a.Course,
		Locked:    a.Locked,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (repo assignmentRepository) unpackSlice(dbAsgs []dbAssignment) []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0, len(dbAsgs))
	for _, a := range dbAsgs {
		asgs = append(asgs, repo.unpack(a))
	}
	return asgs
}

func (repo assignmentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return assignment.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo assignmentRepository) CreateAssignment(asg assignment.Assignment) (assignment.Assignment, error) {
	res, err := repo.db.Exec(
		`INSERT INTO assignments (title, course, locked, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		asg.Title, asg.Course, asg.Locked, asg.CreatedAt, asg.UpdatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "getting new assignment ID")
	}
	asg.ID = int(id)
	return asg, nil
}

func (repo assignmentRepository) QueryAllAssignments() ([]assignment.Assignment, error) {
	var dbAsgs []dbAssignment
	if err := repo.db.Select(&dbAsgs, `SELECT * FROM assignments ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	return repo.unpackSlice(dbAsgs), nil
}

func (repo assignmentRepository) FilterAssignmentsByCourse(course string) ([]assignment.Assignment, error) {
	var dbAsgs []dbAssignment
	if err := repo.db.Select(&dbAsgs, `SELECT * FROM assignments WHERE course = ? ORDER BY id`, course); err != nil {
		return nil, errors.Wrap(err, "filtering assignments by course")
	}
	return repo.unpackSlice(dbAsgs), nil
}

func (repo assignmentRepository) GetAssignmentByID(id int) (assignment.Assignment, error) {
	var a dbAssignment
	if err := repo.db.Get(&a, `SELECT * FROM assignments WHERE id = ?`, id); err != nil {
		return assignment.Assignment{}, repo.trapNoRowsErr(err, "finding assignment by ID")
	}
	return repo.unpack(a), nil
}

func (repo assignmentRepository) UpdateAssignment(asg assignment.Assignment) (assignment.Assignment, error) {
	res, err := repo.db.Exec(
		`UPDATE assignments SET title = ?, course = ?, updated_at = ? WHERE id = ?`,
		asg.Title, asg.Course, asg.UpdatedAt, asg.ID,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	} else if n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return repo.GetAssignmentByID(asg.ID)
}

func (repo assignmentRepository) LockAssignment(id int) error {
	// one-way; re-locking a locked row still matches and stays a no-op
	res, err := repo.db.Exec(
		`UPDATE assignments SET locked = 1, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "locking assignment")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "locking assignment")
	} else if n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}

func (repo assignmentRepository) DeleteAssignmentsByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM assignments WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.Exec(query, args...)
	if err != nil {
		return errors.Wrap(err, "deleting assignments")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting assignments")
	} else if n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
