package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crowsnest/internal/alerts"
	"crowsnest/internal/monitor"
	"crowsnest/internal/threat"
	"crowsnest/pkg/logging"
)

const (
	defaultAlertsLimit = 100
	defaultRecentHours = 24
)

// AlertHandler serves the dashboard API: alert retrieval, monitoring
// control, and the mock-alert smoke test.
type AlertHandler struct {
	store      alerts.Store
	controller *monitor.Controller
	vipName    string
	logger     logging.Logger
}

func NewAlertHandler(store alerts.Store, controller *monitor.Controller, vipName string, logger logging.Logger) *AlertHandler {
	return &AlertHandler{
		store:      store,
		controller: controller,
		vipName:    vipName,
		logger:     logger,
	}
}

// RegisterRoutes mounts all dashboard endpoints under the given group.
func (h *AlertHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/alerts", h.ListAlerts)
	api.GET("/alerts/recent", h.ListRecentAlerts)
	api.DELETE("/alerts", h.ClearAlerts)
	api.GET("/status", h.GetStatus)
	api.POST("/monitoring/start", h.StartMonitoring)
	api.POST("/monitoring/stop", h.StopMonitoring)
	api.GET("/test/generate-mock-alert", h.GenerateMockAlert)
}

// ListAlerts returns the most recent alerts, newest first.
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	limit := defaultAlertsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	list, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load alerts"})
		return
	}
	if list == nil {
		list = []threat.Alert{}
	}
	c.JSON(http.StatusOK, list)
}

// ListRecentAlerts returns alerts detected within the last N hours
// (default 24).
func (h *AlertHandler) ListRecentAlerts(c *gin.Context) {
	hours := defaultRecentHours
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
		hours = parsed
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	list, err := h.store.ListSince(c.Request.Context(), since)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list recent alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load alerts"})
		return
	}
	if list == nil {
		list = []threat.Alert{}
	}
	c.JSON(http.StatusOK, list)
}

// ClearAlerts deletes all stored alerts.
func (h *AlertHandler) ClearAlerts(c *gin.Context) {
	deleted, err := h.store.Clear(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to clear alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear alerts"})
		return
	}

	h.logger.WithField("deleted", deleted).Info("Alerts cleared")
	c.JSON(http.StatusOK, gin.H{
		"message":       "All alerts cleared",
		"deleted_count": deleted,
	})
}

// GetStatus reports the monitoring loop state.
func (h *AlertHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Status(c.Request.Context()))
}

// StartMonitoring launches the scan loop if it is not already running.
func (h *AlertHandler) StartMonitoring(c *gin.Context) {
	if h.controller.Start() {
		c.JSON(http.StatusOK, gin.H{"message": "Monitoring started"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Monitoring already running"})
}

// StopMonitoring halts the scan loop if it is running.
func (h *AlertHandler) StopMonitoring(c *gin.Context) {
	if h.controller.Stop() {
		c.JSON(http.StatusOK, gin.H{"message": "Monitoring stopped"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Monitoring not running"})
}

// GenerateMockAlert runs a fabricated threat through the pipeline and
// returns the persisted alert.
func (h *AlertHandler) GenerateMockAlert(c *gin.Context) {
	alert, err := h.controller.GenerateMockAlert(c.Request.Context(), h.vipName)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate mock alert")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate mock alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Mock alert generated",
		"alert":   alert,
	})
}
