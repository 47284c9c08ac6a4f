// Package api exposes the supervisor over HTTP.
//
// Routes:
//
//	GET  /health                       liveness
//	GET  /runs?status=running          progress rows with the stop affordance
//	GET  /runs/:platform               one progress row
//	POST /runs                         start a run from a RunConfig body
//	POST /runs/:platform/stop          hard stop; ?graceful=true flips status only
//	GET  /sources                      the catalog
//	POST /sources/:name/run            start a catalog entry
//	GET  /jobs?limit=50                most recently stored records
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jobmate/harvester-service/internal/config"
	"jobmate/harvester-service/internal/lifecycle"
	"jobmate/harvester-service/internal/logger"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/store"
	"jobmate/harvester-service/internal/supervisor"
)

const version = "1.0.0"

// Service is what the handler needs from supervisor.Service.
type Service interface {
	ListRuns(ctx context.Context, status string) ([]supervisor.Run, error)
	GetRun(ctx context.Context, platform string) (supervisor.Run, error)
	StartRun(ctx context.Context, cfg model.RunConfig) (supervisor.Started, error)
	StartSource(ctx context.Context, key string) (supervisor.Started, error)
	Sources() []config.Source
	StopRun(ctx context.Context, platform string, graceful bool) (lifecycle.StopOutcome, error)
	Jobs(ctx context.Context, limit int) ([]model.JobRecord, error)
}

type Handler struct {
	svc Service
	log *logger.Logger
}

func NewHandler(svc Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, log: log.With("component", "API")}
}

// NewRouter returns a gin engine with every route mounted.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.health)
	r.GET("/runs", h.listRuns)
	r.GET("/runs/:platform", h.getRun)
	r.POST("/runs", h.startRun)
	r.POST("/runs/:platform/stop", h.stopRun)
	r.GET("/sources", h.listSources)
	r.POST("/sources/:name/run", h.startSource)
	r.GET("/jobs", h.listJobs)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "harvester-service", "version": version})
}

func (h *Handler) listRuns(c *gin.Context) {
	runs, err := h.svc.ListRuns(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.svc.GetRun(c.Request.Context(), c.Param("platform"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) startRun(c *gin.Context) {
	var cfg model.RunConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	h.respondStarted(c, cfg.SourceURL, func(ctx context.Context) (supervisor.Started, error) {
		return h.svc.StartRun(ctx, cfg)
	})
}

func (h *Handler) startSource(c *gin.Context) {
	name := c.Param("name")
	h.respondStarted(c, name, func(ctx context.Context) (supervisor.Started, error) {
		return h.svc.StartSource(ctx, name)
	})
}

func (h *Handler) respondStarted(c *gin.Context, what string, start func(context.Context) (supervisor.Started, error)) {
	started, err := start(c.Request.Context())
	if err != nil {
		h.log.Warn("start run failed", "source", what, "error", err)
		h.respondError(c, err)
		return
	}
	h.log.Info("run started", "platform", started.Platform, "pid", started.PID)
	c.JSON(http.StatusAccepted, started)
}

func (h *Handler) stopRun(c *gin.Context) {
	platform := c.Param("platform")
	graceful, _ := strconv.ParseBool(c.DefaultQuery("graceful", "false"))
	outcome, err := h.svc.StopRun(c.Request.Context(), platform, graceful)
	if err != nil {
		h.respondError(c, err)
		return
	}
	body := gin.H{"platform": platform, "outcome": outcome.String(), "graceful": graceful}
	switch outcome {
	case lifecycle.StopStopped:
		c.JSON(http.StatusOK, body)
	case lifecycle.StopNotFound:
		c.JSON(http.StatusNotFound, body)
	case lifecycle.StopDenied:
		c.JSON(http.StatusForbidden, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}

func (h *Handler) listSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": h.svc.Sources()})
}

func (h *Handler) listJobs(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}
	jobs, err := h.svc.Jobs(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// respondError maps domain errors to HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *supervisor.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, supervisor.ErrAlreadyRunning),
		errors.Is(err, supervisor.ErrNotStoppable),
		errors.Is(err, lifecycle.ErrNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
