package assignment

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")
	ErrLocked   = errors.New("assignment is locked")
)

type Repository interface {
	CreateAssignment(asg Assignment) (Assignment, error)
	QueryAllAssignments() ([]Assignment, error)
	FilterAssignmentsByCourse(course string) ([]Assignment, error)
	GetAssignmentByID(id int) (Assignment, error)
	UpdateAssignment(asg Assignment) (Assignment, error)
	// LockAssignment performs the one-way lock. Locking an already-locked
	// assignment is a no-op, not an error.
	LockAssignment(id int) error
	DeleteAssignmentsByID(ids ...int) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	asg := Assignment{
		Title:     na.Title,
		Course:    na.Course,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateAssignment(asg)
}

func (svc *Service) QueryAll() ([]Assignment, error) {
	return svc.repo.QueryAllAssignments()
}

// FilterByCourse returns the assignments visible to a member of the given course.
func (svc *Service) FilterByCourse(course string) ([]Assignment, error) {
	return svc.repo.FilterAssignmentsByCourse(course)
}

func (svc *Service) GetByID(id int) (Assignment, error) {
	return svc.repo.GetAssignmentByID(id)
}

// Update modifies an assignment. A locked assignment is immutable.
func (svc *Service) Update(orig Assignment, ua UpdateAssignment) (Assignment, error) {
	if orig.Locked {
		return Assignment{}, core.NewValidationError(ErrLocked)
	}
	asg := Assignment{
		ID:        orig.ID,
		Title:     ua.Title,
		Course:    ua.Course,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateAssignment(asg)
}

func (svc *Service) Lock(id int) error {
	return svc.repo.LockAssignment(id)
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteAssignmentsByID(ids...)
}
