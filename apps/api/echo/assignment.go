package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

type assignmentApi struct {
	svc      *assignment.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerAssignmentAPI(admin, instructor, dashboard *echo.Group, deps ServerDeps) {
	api := assignmentApi{
		svc:      deps.AssignmentSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	adminOnly := requireRoles(user.RoleAdmin)
	instructorOnly := requireRoles(user.RoleInstructor)
	// locking is the one operation shared by both elevated roles
	lockRoles := requireRoles(user.RoleInstructor, user.RoleAdmin)

	admin.GET("/assignments", api.query, adminOnly)
	admin.POST("/assignments", api.create, adminOnly)
	admin.PATCH("/assignments/:id", api.update, adminOnly)
	admin.DELETE("/assignments/:id", api.destroy, adminOnly)
	admin.PATCH("/assignments/lock/:id", api.lock, lockRoles)

	instructor.GET("/assignments", api.queryCourse, instructorOnly)
	instructor.POST("/assignments", api.createInCourse, instructorOnly)
	instructor.PATCH("/assignments/lock/:id", api.lock, lockRoles)

	dashboard.GET("/assignments", api.queryCourse)
}

// Handlers

func (api *assignmentApi) query(ctx echo.Context) error {
	asgs, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

// queryCourse lists the assignments of the caller's own course.
func (api *assignmentApi) queryCourse(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asgs, err := api.svc.FilterByCourse(ctxUsr.Course.String)
	if err != nil {
		return errors.Wrap(err, "filtering assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

// createInCourse creates an assignment scoped to the instructor's own
// course, whatever the payload claims.
func (api *assignmentApi) createInCourse(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	data.Course = ctxUsr.Course.String
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.svc.GetByID(id)
	if err != nil {
		return err
	}

	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	asg, err := api.svc.Update(orig, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) lock(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Lock(id); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "assignment locked"})
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type SuccessResponse struct {
	Success string `json:"success"`
}
