package main

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, pwd string, role user.Role, course string) error {
	uname = core.CleanString(uname, true /* lower */)
	course = core.CleanString(course)

	if role.RequiresCourse() && course == "" {
		return fmt.Errorf("role %q requires a course", role)
	}
	if !role.RequiresCourse() {
		course = ""
	}

	now := time.Now().UTC()
	usr, err := cli.usrRepo.GetUserByUsername(uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Username:  uname,
			CreatedAt: now,
		}
	}
	usr.Role = role
	usr.Course = null.NewString(course, course != "")
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == 0 {
		_, err = cli.usrRepo.CreateUser(usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(usr)
	}
	return err
}
