package main

import (
	"bytes"
	"testing"

	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
	testutil "github.com/trezcool/darasa/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	conf := testutil.NewConfig()
	db := testutil.PrepareDB(t, conf)
	usrRepo = sqlxrepos.NewUserRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	user.InitTokenGen(conf)

	// start CLI
	return &commandLine{
		db:      db,
		conf:    conf,
		usrRepo: usrRepo,
		usrSvc:  user.NewService(usrRepo, mailSvc, logsvc.NewNopLogger(), conf),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no role", args: []string{"adduser", "-username", "hero"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-username", "hero", "-role", "headmaster"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "hero", "-role", "student", "-course", "CS101"}, wantErr: errHelp},
		{
			name: "student needs a course", args: []string{"adduser", "-username", "hero", "-role", "student"},
			extra: extra{pwd: "lol"}, wantErrStr: `role "student" requires a course`,
		},
		{
			name: "create student", args: []string{"adduser", "-username", "hero", "-role", "student", "-course", "CS101"},
			extra: extra{pwd: "lol"},
		},
		{
			name: "create admin, no course", args: []string{"adduser", "-username", "boss", "-role", "admin"},
			extra: extra{pwd: "lol"},
		},
		{
			name: "update existing user", args: []string{"adduser", "-username", "hero", "-role", "instructor", "-course", "ML500"},
			extra: extra{pwd: "lmao"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}

	// the last run turned hero into an ML500 instructor
	usr, err := usrRepo.GetUserByUsername("hero")
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if usr.Role != user.RoleInstructor {
		t.Errorf("role = %v; want %v", usr.Role, user.RoleInstructor)
	}
	if usr.Course.String != "ML500" {
		t.Errorf("course = %q; want %q", usr.Course.String, "ML500")
	}
	if err := usr.CheckPassword("lmao"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	emailsvc.SentMessages = nil // reset

	usr := testutil.CreateUser(t, usrRepo, "awe", "mdr", user.RoleStudent, "CS101")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "token for unknown user", args: []string{"resetpassword", "-username", "lol", "-token"}, wantErr: user.ErrNotFound},
		{name: "issue one-time token", args: []string{"resetpassword", "-username", usr.Username, "-token"}},
		{name: "reset password", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if tt.name != "reset password" {
				return
			}

			refreshedUsr, err := usrRepo.GetUserByID(usr.ID)
			if err != nil {
				t.Fatalf("GetUserByID() failed, %v", err)
			}
			if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
				t.Error("failed to update new password")
			}

			// the operations mailbox gets notified
			if len(emailsvc.SentMessages) != 1 {
				t.Fatalf("len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
			}
			if to := emailsvc.SentMessages[0].To[0]; to != cli.conf.AdminEmail {
				t.Errorf("To = %v; want %v", to, cli.conf.AdminEmail)
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)
	cli.conf.RootPassword = "sup3rs3cret"

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	// re-running is a no-op
	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	// the root admin got bootstrapped
	root, err := usrRepo.GetUserByUsername(cli.conf.RootUsername)
	if err != nil {
		t.Fatalf("GetUserByUsername() failed: %v", err)
	}
	if root.Role != user.RoleAdmin {
		t.Errorf("role = %v; want %v", root.Role, user.RoleAdmin)
	}
	if err := root.CheckPassword("sup3rs3cret"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}
