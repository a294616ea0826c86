package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/submission"
)

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

type dbSubmission struct {
	ID           int         `db:"id"`
	AssignmentID int         `db:"assignment_id"`
	UserID       int         `db:"user_id"`
	Code         string      `db:"code"`
	Graded       bool        `db:"graded"`
	Grade        null.String `db:"grade"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`

	// list annotations
	Username        null.String `db:"username"`
	AssignmentTitle null.String `db:"assignment_title"`
}

// annotatedQuery joins the submitter's username and the assignment title
// onto each row, matching what the admin/instructor listings render.
const annotatedQuery = `
	SELECT submissions.*, users.username AS username, assignments.title AS assignment_title
	FROM submissions
	JOIN users ON submissions.user_id = users.id
	JOIN assignments ON submissions.assignment_id = assignments.id`

func (repo submissionRepository) unpack(s dbSubmission) submission.Submission {
	return submission.Submission{
		ID:              s.ID,
		AssignmentID:    s.AssignmentID,
		UserID:          s.UserID,
		Code:            s.Code,
		Graded:          s.Graded,
		Grade:           s.Grade,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Username:        s.Username.String,
		AssignmentTitle: s.AssignmentTitle.String,
	}
}

func (repo submissionRepository) unpackSlice(dbSubs []dbSubmission) []submission.Submission {
	subs := make([]submission.Submission, 0, len(dbSubs))
	for _, s := range dbSubs {
		subs = append(subs, repo.unpack(s))
	}
	return subs
}

func (repo submissionRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return submission.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo submissionRepository) CreateSubmission(sub submission.Submission) (submission.Submission, error) {
	res, err := repo.db.Exec(
		`INSERT INTO submissions (assignment_id, user_id, code, graded, grade, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.AssignmentID, sub.UserID, sub.Code, sub.Graded, sub.Grade, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "creating submission")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "getting new submission ID")
	}
	sub.ID = int(id)
	return sub, nil
}

func (repo submissionRepository) QueryAllSubmissions() ([]submission.Submission, error) {
	var dbSubs []dbSubmission
	if err := repo.db.Select(&dbSubs, annotatedQuery+` ORDER BY submissions.id`); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return repo.unpackSlice(dbSubs), nil
}

func (repo submissionRepository) FilterSubmissions(filter submission.QueryFilter) ([]submission.Submission, error) {
	query := annotatedQuery + ` WHERE 1 = 1`
	args := make([]interface{}, 0, 3)
	if filter.Course != "" {
		query += ` AND assignments.course = ?`
		args = append(args, filter.Course)
	}
	if filter.AssignmentID != 0 {
		query += ` AND submissions.assignment_id = ?`
		args = append(args, filter.AssignmentID)
	}
	if filter.UserID != 0 {
		query += ` AND submissions.user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY submissions.id`

	var dbSubs []dbSubmission
	if err := repo.db.Select(&dbSubs, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering submissions")
	}
	return repo.unpackSlice(dbSubs), nil
}

func (repo submissionRepository) GetSubmissionByID(id int) (submission.Submission, error) {
	var s dbSubmission
	if err := repo.db.Get(&s, annotatedQuery+` WHERE submissions.id = ?`, id); err != nil {
		return submission.Submission{}, repo.trapNoRowsErr(err, "finding submission by ID")
	}
	return repo.unpack(s), nil
}

func (repo submissionRepository) GradeSubmission(id int, grade string) error {
	res, err := repo.db.Exec(
		`UPDATE submissions SET graded = 1, grade = ?, updated_at = ? WHERE id = ?`,
		grade, time.Now().UTC(), id,
	)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "grading submission")
	} else if n == 0 {
		return submission.ErrNotFound
	}
	return nil
}

func (repo submissionRepository) HasUserSubmitted(assignmentID, userID int) (bool, error) {
	var submitted bool
	err := repo.db.Get(&submitted,
		`SELECT EXISTS(SELECT 1 FROM submissions WHERE assignment_id = ? AND user_id = ?)`,
		assignmentID, userID,
	)
	if err != nil {
		return false, errors.Wrap(err, "checking submission status")
	}
	return submitted, nil
}

func (repo submissionRepository) AssignmentStatus(assignmentID int) ([]submission.StudentStatus, error) {
	type dbStatus struct {
		Username  string `db:"username"`
		Submitted bool   `db:"submitted"`
	}
	var dbStatuses []dbStatus
	err := repo.db.Select(&dbStatuses,
		`SELECT users.username AS username, COUNT(submissions.id) > 0 AS submitted
		 FROM users
		 LEFT JOIN submissions
			ON submissions.user_id = users.id AND submissions.assignment_id = ?
		 WHERE users.role = 'student'
		 GROUP BY users.id, users.username
		 ORDER BY users.username`,
		assignmentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignment status")
	}

	statuses := make([]submission.StudentStatus, 0, len(dbStatuses))
	for _, s := range dbStatuses {
		statuses = append(statuses, submission.StudentStatus{Username: s.Username, Submitted: s.Submitted})
	}
	return statuses, nil
}
