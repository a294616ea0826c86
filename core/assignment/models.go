package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Assignment struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Course    string    `json:"course"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewAssignment contains information needed to create a new Assignment.
// Assignments start unlocked.
type NewAssignment struct {
	Title  string `json:"title" validate:"required"`
	Course string `json:"course" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Course = core.CleanString(na.Course)
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an
// existing Assignment. Empty fields keep their current value.
type UpdateAssignment struct {
	Title  string `json:"title"`
	Course string `json:"course"`
}

func (ua *UpdateAssignment) Validate(orig Assignment, validate *validator.Validate) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}

	course := core.CleanString(ua.Course)
	if course != "" {
		ua.Course = course
	} else {
		ua.Course = orig.Course
	}
	return validate.Struct(ua)
}
