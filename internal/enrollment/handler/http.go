package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/skolahq/skola/internal/enrollment/service"
	"github.com/skolahq/skola/pkg/auth"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

// EnrollmentAPI exposes enrollment operations over HTTP, nested under the
// course they belong to.
type EnrollmentAPI struct {
	svc *service.EnrollmentService
}

// RegisterEnrollmentAPI mounts the enrollment endpoints on the given group.
func RegisterEnrollmentAPI(g *echo.Group, authMW echo.MiddlewareFunc, svc *service.EnrollmentService) {
	api := EnrollmentAPI{svc: svc}

	eg := g.Group("/courses/:id/enrollments", authMW)
	eg.POST("", api.enroll)
	eg.GET("", api.roster)
	eg.GET("/me", api.retrieveOwn)
	eg.PUT("/me/progress", api.updateProgress)
	eg.DELETE("/:studentID", api.cancel)
}

func courseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, pkgerrors.Invalid("id is not a valid id")
	}
	return id, nil
}

func requestActor(c echo.Context) (auth.Actor, error) {
	return auth.ActorFromContext(c.Request().Context())
}

func (api *EnrollmentAPI) enroll(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := courseID(c)
	if err != nil {
		return err
	}

	enrollment, err := api.svc.Enroll(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, enrollment)
}

// cancel drops an enrollment. The path segment is either "me" or a student
// id; cancelling for someone else is reserved to the course owner and
// administrators, which the service enforces.
func (api *EnrollmentAPI) cancel(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := courseID(c)
	if err != nil {
		return err
	}

	studentID := uuid.Nil
	if raw := c.Param("studentID"); raw != "me" {
		studentID, err = uuid.Parse(raw)
		if err != nil {
			return pkgerrors.Invalid("studentID is not a valid id")
		}
	}

	if err := api.svc.Cancel(c.Request().Context(), actor, id, studentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (api *EnrollmentAPI) retrieveOwn(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := courseID(c)
	if err != nil {
		return err
	}

	enrollment, err := api.svc.GetOwn(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollment)
}

type progressRequest struct {
	Percent int `json:"percent"`
}

func (api *EnrollmentAPI) updateProgress(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := courseID(c)
	if err != nil {
		return err
	}

	data := new(progressRequest)
	if err := c.Bind(data); err != nil {
		return pkgerrors.Invalid("malformed request body")
	}

	enrollment, err := api.svc.UpdateProgress(c.Request().Context(), actor, id, data.Percent)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollment)
}

func (api *EnrollmentAPI) roster(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := courseID(c)
	if err != nil {
		return err
	}

	pageSize := 0
	if raw := c.QueryParam("page_size"); raw != "" {
		if err := echo.QueryParamsBinder(c).Int("page_size", &pageSize).BindError(); err != nil {
			return pkgerrors.Invalid("page_size is not a number")
		}
	}

	roster, err := api.svc.ListRoster(c.Request().Context(), actor, id, pageSize, c.QueryParam("page_token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roster)
}
