package user

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")

	// ErrInvalidCredentials is returned for both an unknown username and a
	// password mismatch so callers cannot enumerate usernames. The
	// distinction is logged server-side only.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type Repository interface {
	CheckUsernameUniqueness(username string, excludedUsers ...User) error
	CreateUser(usr User) (User, error)
	QueryAllUsers() ([]User, error)
	GetUserByID(id int) (User, error)
	GetUserByUsername(username string) (User, error)
	UpdateUser(usr User) (User, error)
	SetLastLogin(id int, t time.Time) error
	DeleteUsersByID(ids ...int) error
}

type Service struct {
	repo    Repository
	mailSvc core.EmailService
	logger  core.Logger
	conf    *core.Config
}

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
	}
}

func (svc *Service) checkUniqueness(uname string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, exclUsers...); err != nil {
		if err == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Authenticate verifies a username/password pair. Both an unknown username
// and a wrong password fail with ErrInvalidCredentials.
func (svc *Service) Authenticate(uname, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			svc.logger.Debug(fmt.Sprintf("login failed: unknown username %q", uname))
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		svc.logger.Debug(fmt.Sprintf("login failed: password mismatch for %q", usr.Username))
		return User{}, ErrInvalidCredentials
	}

	usr.LastLogin = time.Now().UTC()
	if err = svc.repo.SetLastLogin(usr.ID, usr.LastLogin); err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Username:  nu.Username,
		Role:      nu.Role,
		Course:    null.NewString(nu.Course, nu.Course != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id int) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
}

func (svc *Service) Update(id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Username:  uu.Username,
		Role:      uu.Role,
		Course:    null.NewString(uu.Course, uu.Course != ""),
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr)
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteUsersByID(ids...)
}

// ResetPassword sets a new password for the given account and notifies the
// operations mailbox.
func (svc *Service) ResetPassword(usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(usr); err != nil {
		return err
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{svc.conf.AdminEmail},
		Subject: "Password reset",
		Body:    fmt.Sprintf("The password for account %q has been reset.", usr.Username),
	})
	return nil
}

// ConfirmPasswordReset redeems a one-time reset token and sets the new
// password. Bad UIDs and tokens are reported as a plain "invalid value"
// so callers cannot enumerate accounts.
func (svc *Service) ConfirmPasswordReset(rp ResetUserPassword) error {
	uid, err := DecodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "uid", Error: invalidValueText})
	}
	usr, err := svc.repo.GetUserByID(uid)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "uid", Error: invalidValueText})
		}
		return errors.Wrap(err, "finding user by uid")
	}
	if err = VerifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "token", Error: invalidValueText})
	}
	return svc.ResetPassword(usr, rp.Password)
}
