package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	domrepo "ShopIntent/internal/domain/repository"
	"ShopIntent/internal/usecase"
	"ShopIntent/pkg/cache"
	xhttp "ShopIntent/pkg/http"
	xlogger "ShopIntent/pkg/logger"
	"ShopIntent/pkg/queue"
	"ShopIntent/pkg/util"
)

// Handler serves the model-lifecycle API: registry inspection, manual
// rollback, score lookup, and asynchronous pipeline runs.
type Handler struct {
	logger    *xlogger.Logger
	admin     *usecase.ModelAdmin
	store     domrepo.DatasetStore
	scores    cache.Service
	jobs      queue.Queue
	scoresTTL time.Duration
}

func NewHandler(
	logger *xlogger.Logger,
	admin *usecase.ModelAdmin,
	store domrepo.DatasetStore,
	scores cache.Service,
	jobs queue.Queue,
	scoresTTL time.Duration,
) *Handler {
	if scoresTTL <= 0 {
		scoresTTL = 5 * time.Minute
	}
	return &Handler{
		logger:    logger,
		admin:     admin,
		store:     store,
		scores:    scores,
		jobs:      jobs,
		scoresTTL: scoresTTL,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/models/:name/versions", h.ListVersions)
	g.GET("/models/:name/default", h.DefaultVersion)
	g.GET("/models/:name/latest", h.LatestVersion)
	g.POST("/models/:name/rollback", h.Rollback)
	g.GET("/scores", h.Scores)
	g.POST("/jobs", h.SubmitJob)
	g.GET("/health", h.Health)
}

func (h *Handler) ListVersions(c echo.Context) error {
	name := c.Param("name")
	versions, err := h.admin.ListVersions(c.Request().Context(), name)
	if err != nil {
		h.logger.Error("list versions error", xlogger.String("model", name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.FromDomainError(err))
	}
	return xhttp.ListResponse(c, versions, int64(len(versions)))
}

func (h *Handler) DefaultVersion(c echo.Context) error {
	name := c.Param("name")
	v, err := h.admin.Default(c.Request().Context(), name)
	if err != nil {
		h.logger.Error("default version error", xlogger.String("model", name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.FromDomainError(err))
	}
	return xhttp.SuccessResponse(c, usecase.VersionInfo{
		Name:      v.Name,
		VersionID: v.VersionID,
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
		Metrics:   v.Metrics,
		IsDefault: true,
	})
}

func (h *Handler) LatestVersion(c echo.Context) error {
	name := c.Param("name")
	v, err := h.admin.Latest(c.Request().Context(), name)
	if err != nil {
		h.logger.Error("latest version error", xlogger.String("model", name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.FromDomainError(err))
	}
	return xhttp.SuccessResponse(c, usecase.VersionInfo{
		Name:      v.Name,
		VersionID: v.VersionID,
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
		Metrics:   v.Metrics,
	})
}

// RollbackRequest selects the version the default pointer moves to.
type RollbackRequest struct {
	VersionID string `json:"version_id" validate:"required"`
}

func (h *Handler) Rollback(c echo.Context) error {
	name := c.Param("name")
	req := &RollbackRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.admin.Rollback(c.Request().Context(), name, req.VersionID); err != nil {
		h.logger.Error("rollback error",
			xlogger.String("model", name),
			xlogger.String("version", req.VersionID),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.FromDomainError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{
		"model":   name,
		"default": req.VersionID,
	})
}

// ScoresRequest selects one session date of persisted scores.
type ScoresRequest struct {
	Date string `query:"date" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) Scores(c echo.Context) error {
	req := &ScoresRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	cacheKey := "scores:" + req.Date
	if cached, err := h.scores.Get(ctx, cacheKey); err == nil {
		var rows json.RawMessage = cached
		return xhttp.ListResponse(c, rows, -1)
	}

	day, err := util.ParseDay(req.Date)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	records, err := h.store.FetchScores(ctx, day)
	if err != nil {
		h.logger.Error("fetch scores error", xlogger.String("date", req.Date), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.FromDomainError(err))
	}

	if body, err := json.Marshal(records); err == nil {
		if err := h.scores.Set(ctx, cacheKey, body, h.scoresTTL); err != nil {
			h.logger.Warn("score cache set failed", xlogger.Error(err))
		}
	}
	return xhttp.ListResponse(c, records, int64(len(records)))
}

// JobRequest submits an asynchronous pipeline run. Date applies to the
// predict and append job types and defaults to today.
type JobRequest struct {
	Type string `json:"type" validate:"required,oneof=ingest rebuild append train predict compare"`
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) SubmitJob(c echo.Context) error {
	req := &JobRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	payload, _ := json.Marshal(map[string]string{"date": req.Date})
	msg := queue.Message{
		ID:      uuid.NewString(),
		Type:    req.Type,
		Payload: payload,
	}
	if err := h.jobs.Enqueue(c.Request().Context(), msg); err != nil {
		h.logger.Error("enqueue job error", xlogger.String("type", req.Type), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return xhttp.AcceptedResponse(c, map[string]string{
		"job_id": msg.ID,
		"type":   msg.Type,
	})
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_UNHEALTHY", "warehouse unreachable", http.StatusServiceUnavailable).WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
