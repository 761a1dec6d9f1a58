package httpapi

import (
	"net/http"

	"callcenter-platform/internal/groups"
	"callcenter-platform/internal/notify"

	"github.com/gin-gonic/gin"
)

func (api *API) CreateGroup(c *gin.Context) {
	var req groups.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	group, err := api.Groups.Create(req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (api *API) GetGroup(c *gin.Context) {
	group, ok := api.Groups.Get(c.Param("id"))
	if !ok {
		writeError(c, groups.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (api *API) ListGroups(c *gin.Context) {
	c.JSON(http.StatusOK, api.Groups.List())
}

func (api *API) UpdateGroup(c *gin.Context) {
	var req groups.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	group, err := api.Groups.Update(c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	api.Bus.NotifySupervisors(notify.GroupEvent(group))
	c.JSON(http.StatusOK, group)
}

func (api *API) DeleteGroup(c *gin.Context) {
	if !api.Groups.Delete(c.Param("id")) {
		writeError(c, groups.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type membershipRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

func (api *API) AddGroupAgent(c *gin.Context) {
	var req membershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent_id is required"})
		return
	}
	if err := api.Groups.AddAgent(c.Param("id"), req.AgentID); err != nil {
		writeError(c, err)
		return
	}
	api.notifyGroupChanged(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"added": true})
}

func (api *API) RemoveGroupAgent(c *gin.Context) {
	if err := api.Groups.RemoveAgent(c.Param("id"), c.Param("agentId")); err != nil {
		writeError(c, err)
		return
	}
	api.notifyGroupChanged(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

type overflowRequest struct {
	Enabled          *bool    `json:"enabled,omitempty"`
	OverflowGroupIDs []string `json:"overflow_group_ids,omitempty"`
}

// SetOverflow configures a group's overflow chain and toggle in one call.
func (api *API) SetOverflow(c *gin.Context) {
	var req overflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	id := c.Param("id")

	if req.OverflowGroupIDs != nil {
		if err := api.Groups.SetOverflowGroupIDs(id, req.OverflowGroupIDs); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.Enabled != nil {
		if err := api.Groups.SetOverflowEnabled(id, *req.Enabled); err != nil {
			writeError(c, err)
			return
		}
	}

	api.notifyGroupChanged(id)
	group, _ := api.Groups.Get(id)
	c.JSON(http.StatusOK, group)
}

func (api *API) notifyGroupChanged(groupID string) {
	if group, ok := api.Groups.Get(groupID); ok {
		api.Bus.NotifySupervisors(notify.GroupEvent(group))
	}
}
