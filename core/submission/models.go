package submission

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

type Submission struct {
	ID           int         `json:"id"`
	AssignmentID int         `json:"assignment_id"`
	UserID       int         `json:"user_id"`
	Code         string      `json:"code"`
	Graded       bool        `json:"graded"`
	Grade        null.String `json:"grade"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC

	// annotations populated by list queries
	Username        string `json:"username,omitempty"`
	AssignmentTitle string `json:"title,omitempty"`
}

// NewSubmission contains information needed to submit code for an assignment.
// The submitting user is always taken from the session token, never from the
// payload.
type NewSubmission struct {
	AssignmentID int    `json:"assignment_id" validate:"required"`
	Code         string `json:"code" validate:"required"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// GradeSubmission sets a grade on a submission; the graded flag is always
// raised alongside.
type GradeSubmission struct {
	Grade string `json:"grade" validate:"required"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Grade = core.CleanString(gs.Grade)
	return validate.Struct(gs)
}

// QueryFilter narrows submission listings. Zero-valued fields are ignored;
// set fields are ANDed.
type QueryFilter struct {
	Course       string
	AssignmentID int
	UserID       int
}

// StudentStatus reports whether a given student has submitted for an assignment.
type StudentStatus struct {
	Username  string `json:"username"`
	Submitted bool   `json:"submitted"`
}
