package httpapi

import (
	"net/http"

	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/notify"

	"github.com/gin-gonic/gin"
)

func (api *API) CreateAgent(c *gin.Context) {
	var req agents.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	agent, err := api.Agents.Create(req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

func (api *API) GetAgent(c *gin.Context) {
	agent, ok := api.Agents.Get(c.Param("id"))
	if !ok {
		writeError(c, agents.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (api *API) ListAgents(c *gin.Context) {
	if groupID := c.Query("group_id"); groupID != "" {
		c.JSON(http.StatusOK, api.Agents.ListByGroup(groupID))
		return
	}
	c.JSON(http.StatusOK, api.Agents.List())
}

func (api *API) UpdateAgent(c *gin.Context) {
	var req agents.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	agent, err := api.Agents.Update(c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

type statusRequest struct {
	Status agents.Status `json:"status" binding:"required"`
}

// UpdateAgentStatus handles the console status toggle. Agents may only
// change their own status; supervisors and admins may change anyone's.
func (api *API) UpdateAgentStatus(c *gin.Context) {
	id := c.Param("id")
	if callerAgentID(c) != id && !isSupervisor(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot change another agent's status"})
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	agent, err := api.Agents.UpdateStatus(id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	for _, gid := range agent.GroupIDs {
		api.Groups.RecomputeStatistics(gid)
	}
	api.Bus.NotifySupervisors(notify.AgentEvent(agent))
	c.JSON(http.StatusOK, agent)
}

type bindIdentityRequest struct {
	TelephonyIdentity string `json:"telephony_identity" binding:"required"`
}

// BindTelephonyIdentity records the agent's external calling identity,
// reported by the agent's own console once its telephony session is up.
func (api *API) BindTelephonyIdentity(c *gin.Context) {
	id := c.Param("id")
	if callerAgentID(c) != id && !isSupervisor(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot bind another agent's identity"})
		return
	}

	var req bindIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "telephony_identity is required"})
		return
	}
	if err := api.Agents.BindTelephonyIdentity(id, req.TelephonyIdentity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bound": true})
}

func (api *API) DeleteAgent(c *gin.Context) {
	id := c.Param("id")
	if agent, ok := api.Agents.Get(id); ok && agent.Status == agents.StatusInCall {
		c.JSON(http.StatusConflict, gin.H{"error": "agent is in a call"})
		return
	}
	if !api.Agents.Delete(id) {
		writeError(c, agents.ErrNotFound)
		return
	}
	api.Groups.EvictAgent(id)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
