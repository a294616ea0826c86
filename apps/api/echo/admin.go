package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

// adminApi covers the store-wide introspection and the destructive reset.
type adminApi struct {
	maint   MaintenanceService
	usrSvc  *user.Service
	asgSvc  *assignment.Service
	subSvc  *submission.Service
	mailSvc core.EmailService
	conf    *core.Config
}

func registerAdminAPI(admin *echo.Group, deps ServerDeps) {
	api := adminApi{
		maint:   deps.Maintenance,
		usrSvc:  deps.UserSvc,
		asgSvc:  deps.AssignmentSvc,
		subSvc:  deps.SubmissionSvc,
		mailSvc: deps.MailSvc,
		conf:    deps.Conf,
	}

	adminOnly := requireRoles(user.RoleAdmin)
	admin.GET("/schema", api.schema, adminOnly)
	admin.GET("/export", api.export, adminOnly)
	admin.DELETE("/reset", api.reset, adminOnly)
}

// Handlers

func (api *adminApi) schema(ctx echo.Context) error {
	schema, err := api.maint.Schema()
	if err != nil {
		return errors.Wrap(err, "introspecting schema")
	}
	return ctx.JSON(http.StatusOK, schema)
}

func (api *adminApi) export(ctx echo.Context) error {
	users, err := api.usrSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "exporting users")
	}
	asgs, err := api.asgSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "exporting assignments")
	}
	subs, err := api.subSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "exporting submissions")
	}
	return ctx.JSON(http.StatusOK, ExportResponse{
		Users:       users,
		Assignments: asgs,
		Submissions: subs,
	})
}

// reset drops the three tables and does not recreate them. One-way and
// unconfirmed; the allow-list is the only guard.
func (api *adminApi) reset(ctx echo.Context) error {
	if err := api.maint.Reset(); err != nil {
		return errors.Wrap(err, "resetting tables")
	}

	// audit trail to the operations mailbox
	claims, _ := getContextClaims(ctx)
	api.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{api.conf.AdminEmail},
		Subject: "Database reset",
		Body:    fmt.Sprintf("All tables were dropped by %q.", claims.Username),
	})

	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "all tables have been reset"})
}

type ExportResponse struct {
	Users       []user.User             `json:"users"`
	Assignments []assignment.Assignment `json:"assignments"`
	Submissions []submission.Submission `json:"submissions"`
}
