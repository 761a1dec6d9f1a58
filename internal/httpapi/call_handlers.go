package httpapi

import (
	"net/http"
	"strconv"

	"callcenter-platform/internal/calls"

	"github.com/gin-gonic/gin"
)

func (api *API) GetCall(c *gin.Context) {
	call, ok := api.Router.GetCall(c.Param("id"))
	if !ok {
		writeError(c, calls.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, call)
}

func (api *API) ListCalls(c *gin.Context) {
	switch {
	case c.Query("agent_id") != "":
		c.JSON(http.StatusOK, api.Router.ListByAgent(c.Query("agent_id")))
	case c.Query("group_id") != "":
		c.JSON(http.StatusOK, api.Router.ListByGroup(c.Query("group_id")))
	case c.Query("all") == "true":
		c.JSON(http.StatusOK, api.Calls.List())
	default:
		c.JSON(http.StatusOK, api.Router.ListActive())
	}
}

// AnswerCall connects the authenticated agent to a call ringing at them.
func (api *API) AnswerCall(c *gin.Context) {
	call, err := api.Router.AnswerCall(c.Request.Context(), c.Param("id"), callerAgentID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// EndCall terminates a call. Supervisors may end any call; agents only
// their own, which the router enforces through the assignment check.
func (api *API) EndCall(c *gin.Context) {
	agentID := callerAgentID(c)
	if isSupervisor(c) {
		agentID = ""
	}
	call, err := api.Router.EndCall(c.Request.Context(), c.Param("id"), agentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

type transferRequest struct {
	TargetAgentID string `json:"target_agent_id" binding:"required"`
}

func (api *API) TransferCall(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_agent_id is required"})
		return
	}
	call, err := api.Router.TransferCall(c.Request.Context(), c.Param("id"), callerAgentID(c), req.TargetAgentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// CallHistory serves the archived call log.
func (api *API) CallHistory(c *gin.Context) {
	if api.Archive == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "call archive not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	ctx := c.Request.Context()
	var (
		recs any
		err  error
	)
	switch {
	case c.Query("agent_id") != "":
		recs, err = api.Archive.ByAgent(ctx, c.Query("agent_id"), limit)
	case c.Query("group_id") != "":
		recs, err = api.Archive.ByGroup(ctx, c.Query("group_id"), limit)
	default:
		recs, err = api.Archive.Recent(ctx, limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive query failed"})
		return
	}
	c.JSON(http.StatusOK, recs)
}
