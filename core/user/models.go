package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

// Role is the closed set of account roles. It determines which routes an
// account may reach; there is no hierarchy beyond the explicit allow-list
// each route declares.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleInstructor, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// RequiresCourse reports whether accounts with this role must be scoped to a
// course. Admins are course-less.
func (r Role) RequiresCourse() bool {
	switch r {
	case RoleStudent, RoleInstructor:
		return true
	case RoleAdmin:
		return false
	}
	return false
}

type User struct {
	ID           int         `json:"id"`
	Username     string      `json:"username"`
	Role         Role        `json:"role"`
	Course       null.String `json:"course"`
	PasswordHash []byte      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
	LastLogin    time.Time   `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }
func (u *User) IsStudent() bool    { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,role"`
	Course          string `json:"course"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Course = core.CleanString(nu.Course)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	if err := checkRoleCourse(nu.Role, nu.Course); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Username)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep their current value.
type UpdateUser struct {
	Username        string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Role            Role   `json:"role" validate:"omitempty,role"`
	Course          string `json:"course"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	if uu.Role == "" {
		uu.Role = origUsr.Role
	}

	// an absent course keeps the current one, unless the (possibly updated)
	// role takes none; promoting to admin drops the course
	course := core.CleanString(uu.Course)
	if course == "" && uu.Role.RequiresCourse() {
		course = origUsr.Course.String
	}
	uu.Course = course

	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Username != origUsr.Username {
		if err := svc.checkUniqueness(uu.Username, origUsr); err != nil {
			return err
		}
	}
	return checkRoleCourse(uu.Role, uu.Course)
}

// ResetUserPassword redeems a one-time reset token issued by an admin
// (`admin resetpassword -username USERNAME -token`).
type ResetUserPassword struct {
	UID             string `json:"uid,omitempty" validate:"required"`
	Token           string `json:"token,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

// checkRoleCourse enforces the course requirement: students and instructors
// belong to a course, admins do not.
func checkRoleCourse(role Role, course string) error {
	if role.RequiresCourse() && course == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "course", Error: courseRequiredText})
	}
	if !role.RequiresCourse() && course != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "course", Error: courseForbiddenText})
	}
	return nil
}
