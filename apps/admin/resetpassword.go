package main

import (
	"fmt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.usrRepo.GetUserByUsername(core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	return cli.usrSvc.ResetPassword(usr, pwd)
}

// issueResetToken prints a one-time token (bound to the account's current
// password hash and last login) that the account holder redeems on
// POST /password-reset.
func (cli *commandLine) issueResetToken(uname string) error {
	usr, err := cli.usrRepo.GetUserByUsername(core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	fmt.Printf("uid: %s\ntoken: %s\n", user.EncodeUID(usr), user.MakeToken(usr))
	return nil
}
