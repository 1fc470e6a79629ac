package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/multiplex/utils"
)

// HealthController reports liveness and database reachability.
type HealthController struct {
	db *gorm.DB
}

// NewHealthController creates a new HealthController instance.
func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

// Health answers 200 when the database responds to a ping.
func (h *HealthController) Health(ctx *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		utils.Sugar.Warnw("health check failed", "err", err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	utils.Success(ctx, gin.H{"status": "ok"})
}
