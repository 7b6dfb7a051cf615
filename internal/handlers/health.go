package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
	UptimeSec   int64  `json:"uptimeSec"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := healthResponse{
		Status:      "ok",
		Database:    "ok",
		Cache:       "ok",
		Environment: h.cfg.Environment,
		UptimeSec:   int64(time.Since(startedAt).Seconds()),
	}

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "error"
		status = http.StatusServiceUnavailable
		h.log.Error().Err(err).Msg("database ping failed")
	}

	if err := h.cache.Ping(ctx).Err(); err != nil {
		resp.Status = "degraded"
		resp.Cache = "error"
		h.log.Error().Err(err).Msg("redis ping failed")
	}

	c.JSON(status, resp)
}
