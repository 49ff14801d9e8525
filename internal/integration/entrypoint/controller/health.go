package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthController handles health check endpoints.
type HealthController struct {
	dbHealthChecker     func() bool
	signalHealthChecker func() bool
	openSessions        func() int
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	ChangeSignal string `json:"change_signal"`
	OpenSessions int    `json:"open_sessions"`
	Timestamp    string `json:"timestamp"`
}

// NewHealthController creates a new health controller instance. A nil signal
// checker reports the change signal as disabled.
func NewHealthController(dbHealthChecker, signalHealthChecker func() bool, openSessions func() int) *HealthController {
	return &HealthController{
		dbHealthChecker:     dbHealthChecker,
		signalHealthChecker: signalHealthChecker,
		openSessions:        openSessions,
	}
}

// Check handles GET /health requests.
// It returns the current health status of the API and its dependencies.
func (h *HealthController) Check(c *gin.Context) {
	dbStatus := "disconnected"
	if h.dbHealthChecker != nil && h.dbHealthChecker() {
		dbStatus = "connected"
	}

	signalStatus := "disabled"
	if h.signalHealthChecker != nil {
		signalStatus = "disconnected"
		if h.signalHealthChecker() {
			signalStatus = "connected"
		}
	}

	sessions := 0
	if h.openSessions != nil {
		sessions = h.openSessions()
	}

	response := HealthResponse{
		Status:       "ok",
		Database:     dbStatus,
		ChangeSignal: signalStatus,
		OpenSessions: sessions,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, response)
}
