package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/calllog"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/groups"
	"callcenter-platform/internal/notify"
	"callcenter-platform/internal/rbac"
	"callcenter-platform/internal/reporting"
	"callcenter-platform/internal/routing"
	"callcenter-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

// API bundles the handler dependencies. Handlers stay thin: bind, call into
// a directory or the router, map the error, encode.
type API struct {
	Agents    *agents.Directory
	Groups    *groups.Directory
	Calls     *calls.Store
	Router    *routing.Router
	Auth      *auth.Manager
	Bus       *notify.Bus
	Reporting *reporting.Service
	Archive   *calllog.Service // nil when no archive backend is configured
	DB        *sql.DB          // nil when no database is configured
}

// writeError maps domain sentinels onto HTTP statuses. Anything unmapped is
// a 500 so bugs surface loudly instead of as client errors.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, agents.ErrNotFound),
		errors.Is(err, groups.ErrNotFound),
		errors.Is(err, calls.ErrNotFound),
		errors.Is(err, routing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})

	case errors.Is(err, routing.ErrNoRoute):
		c.JSON(http.StatusNotFound, gin.H{"error": "no group mapped to that number"})

	case errors.Is(err, agents.ErrInvalidState),
		errors.Is(err, routing.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, groups.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "phone number already mapped to a group"})

	case errors.Is(err, routing.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not assigned to this call"})

	case errors.Is(err, telephony.ErrTransferFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "call answered but handoff to agent failed"})

	case errors.Is(err, agents.ErrInvalidInput),
		errors.Is(err, groups.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func callerAgentID(c *gin.Context) string {
	return c.GetString("agent_id")
}

func isSupervisor(c *gin.Context) bool {
	role := c.GetString("role")
	return role == rbac.RoleSupervisor || rbac.IsAdmin(role)
}
