package submission

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
)

var (
	// errors
	ErrNotFound = errors.New("submission not found")
)

type Repository interface {
	CreateSubmission(sub Submission) (Submission, error)
	// QueryAllSubmissions returns all submissions annotated with the
	// submitter's username and the assignment title.
	QueryAllSubmissions() ([]Submission, error)
	// FilterSubmissions applies AND on the set QueryFilter fields;
	// results carry the same annotations as QueryAllSubmissions.
	FilterSubmissions(filter QueryFilter) ([]Submission, error)
	GetSubmissionByID(id int) (Submission, error)
	// GradeSubmission sets graded=true and the grade value. Idempotent by
	// primary key; last writer wins.
	GradeSubmission(id int, grade string) error
	HasUserSubmitted(assignmentID, userID int) (bool, error)
	// AssignmentStatus lists every student account with a flag telling
	// whether they have submitted for the given assignment.
	AssignmentStatus(assignmentID int) ([]StudentStatus, error)
}

type Service struct {
	repo    Repository
	asgRepo assignment.Repository
}

func NewService(repo Repository, asgRepo assignment.Repository) *Service {
	return &Service{repo: repo, asgRepo: asgRepo}
}

// Create records a student submission. The owning user comes from the
// caller's verified identity. Submitting against a locked assignment fails.
func (svc *Service) Create(ns NewSubmission, userID int) (Submission, error) {
	asg, err := svc.asgRepo.GetAssignmentByID(ns.AssignmentID)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return Submission{}, core.NewValidationError(err, core.FieldError{Field: "assignment_id", Error: err.Error()})
		}
		return Submission{}, errors.Wrap(err, "finding assignment")
	}
	if asg.Locked {
		return Submission{}, core.NewValidationError(assignment.ErrLocked)
	}

	now := time.Now().UTC()
	sub := Submission{
		AssignmentID: ns.AssignmentID,
		UserID:       userID,
		Code:         ns.Code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateSubmission(sub)
}

func (svc *Service) QueryAll() ([]Submission, error) {
	return svc.repo.QueryAllSubmissions()
}

func (svc *Service) Filter(filter QueryFilter) ([]Submission, error) {
	return svc.repo.FilterSubmissions(filter)
}

func (svc *Service) GetByID(id int) (Submission, error) {
	return svc.repo.GetSubmissionByID(id)
}

func (svc *Service) Grade(id int, gs GradeSubmission) error {
	return svc.repo.GradeSubmission(id, gs.Grade)
}

func (svc *Service) HasUserSubmitted(assignmentID, userID int) (bool, error) {
	return svc.repo.HasUserSubmitted(assignmentID, userID)
}

func (svc *Service) AssignmentStatus(assignmentID int) ([]StudentStatus, error) {
	return svc.repo.AssignmentStatus(assignmentID)
}
