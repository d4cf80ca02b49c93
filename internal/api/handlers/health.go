package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HealthHandler reports service liveness and dependency health.
type HealthHandler struct {
	db        *gorm.DB
	startedAt time.Time
	log       *logrus.Entry
}

func NewHealthHandler(db *gorm.DB, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startedAt: time.Now(),
		log:       log.WithField("component", "health"),
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	checks := map[string]string{}
	status := http.StatusOK

	dbStatus := "healthy"
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			h.log.WithError(err).Error("Database health check failed")
			dbStatus = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}
	checks["database"] = dbStatus

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":    overall,
		"service":   "match-forecast",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startedAt).String(),
		"checks":    checks,
	})
}
