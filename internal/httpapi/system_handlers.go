package httpapi

import (
	"net/http"
	"time"

	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Overview serves the dashboard rollup.
func (api *API) Overview(c *gin.Context) {
	c.JSON(http.StatusOK, api.Reporting.Overview())
}

// Health is the liveness and wiring probe. It never fails the process over
// optional backends; degraded pieces are reported, not fatal.
func (api *API) Health(c *gin.Context) {
	status := gin.H{
		"status":            "ok",
		"telephony":         api.Router.Gateway.Configured(),
		"archive":           api.Archive != nil,
		"event_subscribers": api.Bus.SubscriberCount(),
	}

	if api.DB != nil {
		if err := utils.HealthCheck(c.Request.Context(), api.DB, 2*time.Second); err != nil {
			status["database"] = "unreachable"
		} else {
			status["database"] = "ok"
		}
	}

	c.JSON(http.StatusOK, status)
}
