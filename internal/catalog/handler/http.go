package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/skolahq/skola/internal/catalog/domain"
	"github.com/skolahq/skola/internal/catalog/service"
	"github.com/skolahq/skola/pkg/auth"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
	"github.com/skolahq/skola/pkg/middleware"
)

// CourseAPI exposes the course catalog over HTTP. Authentication happens in
// middleware; authorization happens in the service, so the handlers only
// translate between JSON and the service types.
type CourseAPI struct {
	svc *service.CourseService
}

// RegisterCourseAPI mounts the course endpoints on the given group. The auth
// middleware applies to every route: there are no anonymous catalog reads,
// visibility is decided per-course by the policy.
func RegisterCourseAPI(g *echo.Group, authMW echo.MiddlewareFunc, svc *service.CourseService) {
	api := CourseAPI{svc: svc}

	cg := g.Group("/courses", authMW)
	cg.POST("", api.create)
	cg.GET("", api.list)
	cg.GET("/:id", api.retrieve)
	cg.PATCH("/:id", api.update)
	cg.DELETE("/:id", api.remove)

	cg.POST("/:id/videos", api.addVideo)
	cg.PATCH("/:id/videos/:videoID", api.updateVideo)
	cg.DELETE("/:id/videos/:videoID", api.removeVideo)
	cg.POST("/:id/videos/upload-url", api.videoUploadURL)

	cg.POST("/:id/activities", api.addActivity)
	cg.PATCH("/:id/activities/:activityID", api.updateActivity)
	cg.DELETE("/:id/activities/:activityID", api.removeActivity)

	// Moderation verbs are gated at the route as well; the policy engine
	// remains the authority and re-checks inside the service.
	adminOnly := middleware.RequireRole(auth.RoleAdministrator)
	cg.POST("/:id/submit", api.submit)
	cg.POST("/:id/approve", api.approve, adminOnly)
	cg.POST("/:id/reject", api.reject, adminOnly)
	cg.POST("/:id/publish", api.publish, adminOnly)

	cg.GET("/:id/analytics", api.analytics)
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, pkgerrors.Invalid(name + " is not a valid id")
	}
	return id, nil
}

func requestActor(c echo.Context) (auth.Actor, error) {
	return auth.ActorFromContext(c.Request().Context())
}

type createCourseRequest struct {
	Title        string    `json:"title"`
	InstructorID uuid.UUID `json:"instructor_id,omitempty"`
}

func (api *CourseAPI) create(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}

	data := new(createCourseRequest)
	if err := c.Bind(data); err != nil {
		return pkgerrors.Invalid("malformed request body")
	}

	course, err := api.svc.CreateCourse(c.Request().Context(), actor, service.CreateCourseInput{
		Title:        data.Title,
		InstructorID: data.InstructorID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}

func (api *CourseAPI) list(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}

	query := service.ListQuery{
		Category:  c.QueryParam("category"),
		State:     domain.State(c.QueryParam("state")),
		PageToken: c.QueryParam("page_token"),
	}
	if raw := c.QueryParam("instructor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return pkgerrors.Invalid("instructor_id is not a valid id")
		}
		query.InstructorID = id
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		if err := echo.QueryParamsBinder(c).Int("page_size", &query.PageSize).BindError(); err != nil {
			return pkgerrors.Invalid("page_size is not a number")
		}
	}

	list, err := api.svc.ListCourses(c.Request().Context(), actor, query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (api *CourseAPI) retrieve(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	course, err := api.svc.GetCourse(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

func (api *CourseAPI) update(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	patch := new(domain.CoursePatch)
	if err := c.Bind(patch); err != nil {
		return pkgerrors.Invalid("malformed request body")
	}

	course, err := api.svc.UpdateCourse(c.Request().Context(), actor, id, *patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

func (api *CourseAPI) remove(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := api.svc.DeleteCourse(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (api *CourseAPI) addVideo(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	draft := new(domain.VideoDraft)
	if err := c.Bind(draft); err != nil {
		return pkgerrors.Invalid("malformed request body")
	}

	video, err := api.svc.AddVideo(c.Request().Context(), actor, id, *draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, video)
}

func (api *CourseAPI) updateVideo(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	videoID, err := pathID(c, "videoID")
	if err != nil {
		return err
	}

	patch := new(domain.VideoPatch)
	if err := c.Bind(patch); err != nil {
		return pkgerrors.Invalid("malformed request body")
	}

	video, err := api.svc.UpdateVideo(c.Request().Context(), actor, id, videoID, *patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, video)
}

func (api *CourseAPI) removeVideo(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	videoID, err := pathID(c, "videoID")
	if err != nil {
		return err
	}

	if err := api.svc.RemoveVideo(c.Request().Context(), actor, id, videoID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type uploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type uploadURLResponse struct {
	URL string `json:"url"`
}

func (api *CourseAPI) videoUploadURL(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	data := new(uploadURLRequest)
	if err := c.Bind(data); err != nil {
		return pkgerrors.Invalid("malformed request body")
	}

	url, err := api.svc.VideoUploadURL(c.Request().Context(), actor, id, data.Filename, data.ContentType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, uploadURLResponse{URL: url})
}

func (api *CourseAPI) addActivity(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	draft := new(domain.ActivityDraft)
	if err := c.Bind(draft); err != nil {
		return pkgerrors.Invalid("malformed request body")
	}

	activity, err := api.svc.AddActivity(c.Request().Context(), actor, id, *draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, activity)
}

func (api *CourseAPI) updateActivity(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	activityID, err := pathID(c, "activityID")
	if err != nil {
		return err
	}

	patch := new(domain.ActivityPatch)
	if err := c.Bind(patch); err != nil {
		return pkgerrors.Invalid("malformed request body")
	}

	activity, err := api.svc.UpdateActivity(c.Request().Context(), actor, id, activityID, *patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activity)
}

func (api *CourseAPI) removeActivity(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	activityID, err := pathID(c, "activityID")
	if err != nil {
		return err
	}

	if err := api.svc.RemoveActivity(c.Request().Context(), actor, id, activityID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (api *CourseAPI) submit(c echo.Context) error {
	return api.moderate(c, func(ctx echo.Context, actor auth.Actor, id uuid.UUID) (*domain.Course, error) {
		return api.svc.SubmitForApproval(ctx.Request().Context(), actor, id)
	})
}

func (api *CourseAPI) approve(c echo.Context) error {
	return api.moderate(c, func(ctx echo.Context, actor auth.Actor, id uuid.UUID) (*domain.Course, error) {
		return api.svc.ApproveCourse(ctx.Request().Context(), actor, id)
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (api *CourseAPI) reject(c echo.Context) error {
	return api.moderate(c, func(ctx echo.Context, actor auth.Actor, id uuid.UUID) (*domain.Course, error) {
		data := new(rejectRequest)
		if err := ctx.Bind(data); err != nil {
			return nil, pkgerrors.Invalid("malformed request body")
		}
		return api.svc.RejectCourse(ctx.Request().Context(), actor, id, data.Reason)
	})
}

func (api *CourseAPI) publish(c echo.Context) error {
	return api.moderate(c, func(ctx echo.Context, actor auth.Actor, id uuid.UUID) (*domain.Course, error) {
		return api.svc.PublishCourse(ctx.Request().Context(), actor, id)
	})
}

func (api *CourseAPI) moderate(c echo.Context, fn func(echo.Context, auth.Actor, uuid.UUID) (*domain.Course, error)) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	course, err := fn(c, actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

func (api *CourseAPI) analytics(c echo.Context) error {
	actor, err := requestActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	analytics, err := api.svc.GetAnalytics(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analytics)
}
