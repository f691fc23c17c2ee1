// Package apiv1 is the JSON API adapter over the session engine. It owns no
// session logic: every handler validates input, calls one engine or reconciler
// operation and maps the structured error code to an HTTP status.
package apiv1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	engineerrors "github.com/mazvydas/kasdien/internal/errors"
	"github.com/mazvydas/kasdien/internal/profile"
	"github.com/mazvydas/kasdien/server/dayclock"
	"github.com/mazvydas/kasdien/server/middleware"
	"github.com/mazvydas/kasdien/server/service/session"
	"github.com/mazvydas/kasdien/server/service/stats"
	"github.com/mazvydas/kasdien/store"
)

// APIV1Service wires the engine, reconciler and clock into echo routes.
type APIV1Service struct {
	Profile    *profile.Profile
	Store      *store.Store
	Session    session.Service
	Reconciler *stats.Reconciler
	Clock      *dayclock.Clock
}

// NewAPIV1Service creates the API adapter.
func NewAPIV1Service(p *profile.Profile, st *store.Store, sessionService session.Service, reconciler *stats.Reconciler, clock *dayclock.Clock) *APIV1Service {
	return &APIV1Service{
		Profile:    p,
		Store:      st,
		Session:    sessionService,
		Reconciler: reconciler,
		Clock:      clock,
	}
}

// Register mounts the API routes onto the echo instance.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	limiter := middleware.NewRateLimiter(time.Second/10, 20)

	group := echoServer.Group("/api/v1", middleware.PerUserRateLimit(limiter))
	group.GET("/clock", s.GetClock)

	users := group.Group("/users/:user")
	users.GET("/session", s.GetSession)
	users.POST("/session/answers", s.SubmitAnswer)
	users.GET("/stats", s.GetStats)
	users.GET("/practice", s.GetPractice)

	// Developer affordances; the routes do not exist outside dev mode.
	if s.Profile.IsDev() {
		users.POST("/session/reset", s.ResetSession)
		users.GET("/sessions", s.ListSessions)
	}
}

// GetSession resumes or creates today's session for the user.
func (s *APIV1Service) GetSession(c echo.Context) error {
	record, err := s.Session.Current(c.Request().Context(), c.Param("user"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, record)
}

type submitAnswerRequest struct {
	Answer string `json:"answer"`
}

// SubmitAnswer grades the answer to the user's current question.
func (s *APIV1Service) SubmitAnswer(c echo.Context) error {
	request := &submitAnswerRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	result, err := s.Session.SubmitAnswer(c.Request().Context(), c.Param("user"), request.Answer)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// ResetSession discards today's session so the next fetch starts fresh.
func (s *APIV1Service) ResetSession(c echo.Context) error {
	if err := s.Session.Reset(c.Request().Context(), c.Param("user")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSessions lists the UTC dates that have a stored session record for the
// user, for inspecting day-scoped state during development.
func (s *APIV1Service) ListSessions(c echo.Context) error {
	dates, err := s.Store.ListSessionDates(c.Request().Context(), c.Param("user"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dates)
}

// GetStats returns reconciled progress stats, falling back to the optimistic
// local copy when the backend is unreachable.
func (s *APIV1Service) GetStats(c echo.Context) error {
	userStats, err := s.Reconciler.Reconcile(c.Request().Context(), c.Param("user"))
	if err != nil {
		// The optimistic copy is still correct to display; reconciliation
		// retries at the next natural point.
		if userStats != nil {
			return c.JSON(http.StatusOK, userStats)
		}
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, userStats)
}

type clockResponse struct {
	Date      string             `json:"date"`
	Countdown dayclock.Countdown `json:"countdown"`
}

// GetClock returns the current learning day date and the countdown to the
// next UTC-midnight unlock.
func (s *APIV1Service) GetClock(c echo.Context) error {
	return c.JSON(http.StatusOK, &clockResponse{
		Date:      s.Clock.Now().Format(time.DateOnly),
		Countdown: s.Clock.TimeUntilNextDay(),
	})
}

// GetPractice returns a stateless practice question set for one category.
func (s *APIV1Service) GetPractice(c echo.Context) error {
	count := 5
	if raw := c.QueryParam("count"); raw != "" {
		if err := echo.QueryParamsBinder(c).Int("count", &count).BindError(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "count must be an integer").SetInternal(err)
		}
	}

	questions, err := s.Session.Practice(
		c.Request().Context(),
		c.Param("user"),
		c.QueryParam("category"),
		count,
		c.QueryParam("difficulty"),
	)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, questions)
}

// toHTTPError maps structured engine error codes to HTTP statuses.
func toHTTPError(err error) error {
	status := http.StatusInternalServerError
	switch engineerrors.GetCodeFromError(err, "") {
	case engineerrors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case engineerrors.ErrCodeAlreadyCompleted, engineerrors.ErrCodeSessionNotStarted, engineerrors.ErrCodeStaleKeyDiscard:
		status = http.StatusConflict
	case engineerrors.ErrCodeResetForbidden:
		status = http.StatusForbidden
	case engineerrors.ErrCodeFetchFailure:
		status = http.StatusBadGateway
	}
	return echo.NewHTTPError(status, err.Error()).SetInternal(err)
}
