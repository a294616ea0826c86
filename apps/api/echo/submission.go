package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

type submissionApi struct {
	svc      *submission.Service
	asgSvc   *assignment.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerSubmissionAPI(admin, instructor, dashboard *echo.Group, deps ServerDeps) {
	api := submissionApi{
		svc:      deps.SubmissionSvc,
		asgSvc:   deps.AssignmentSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	adminOnly := requireRoles(user.RoleAdmin)
	instructorOnly := requireRoles(user.RoleInstructor)

	admin.GET("/submissions", api.query, adminOnly)
	admin.PATCH("/submissions/:id", api.grade, adminOnly)

	instructor.GET("/submissions", api.queryCourse, instructorOnly)
	instructor.PATCH("/grade/:id", api.gradeInCourse, instructorOnly)
	instructor.GET("/assignments/:id/status", api.assignmentStatus, instructorOnly)

	dashboard.POST("/submit", api.create)
	dashboard.GET("/submissions", api.queryOwn)
	dashboard.GET("/assignments/status", api.ownStatus)
}

// Handlers

func (api *submissionApi) query(ctx echo.Context) error {
	subs, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

// queryCourse lists the submissions made against the caller's course,
// optionally narrowed to one assignment via ?assignmentId=N.
func (api *submissionApi) queryCourse(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := submission.QueryFilter{Course: ctxUsr.Course.String}
	if raw := ctx.QueryParam("assignmentId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return errHttpNotFound
		}
		filter.AssignmentID = id
	}

	subs, err := api.svc.Filter(filter)
	if err != nil {
		return errors.Wrap(err, "filtering submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

// queryOwn lists the caller's own submissions, annotated with assignment titles.
func (api *submissionApi) queryOwn(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	subs, err := api.svc.Filter(submission.QueryFilter{UserID: claims.UserID()})
	if err != nil {
		return errors.Wrap(err, "filtering submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

// create records a submission for the caller. The owning user comes from the
// token, never from the payload; a student cannot submit as someone else.
func (api *submissionApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Create(data, claims.UserID())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) grade(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data submission.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Grade(id, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "submission graded"})
}

// gradeInCourse grades a submission, restricted to the instructor's own course.
func (api *submissionApi) gradeInCourse(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}
	asg, err := api.asgSvc.GetByID(sub.AssignmentID)
	if err != nil {
		return errors.Wrap(err, "finding submission's assignment")
	}
	if asg.Course != ctxUsr.Course.String {
		return errHttpForbidden
	}

	var data submission.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Grade(id, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "submission graded"})
}

// assignmentStatus lists every student with a submitted/not-submitted flag
// for the given assignment.
func (api *submissionApi) assignmentStatus(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	statuses, err := api.svc.AssignmentStatus(id)
	if err != nil {
		return errors.Wrap(err, "querying assignment status")
	}
	if statuses == nil {
		statuses = []submission.StudentStatus{}
	}
	return ctx.JSON(http.StatusOK, statuses)
}

// ownStatus tells the caller whether they have submitted for the assignment
// given via ?assignmentId=N.
func (api *submissionApi) ownStatus(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(ctx.QueryParam("assignmentId"))
	if err != nil {
		return errHttpNotFound
	}

	submitted, err := api.svc.HasUserSubmitted(id, claims.UserID())
	if err != nil {
		return errors.Wrap(err, "checking submission status")
	}
	return ctx.JSON(http.StatusOK, StatusResponse{Submitted: submitted})
}

type StatusResponse struct {
	Submitted bool `json:"submitted"`
}
