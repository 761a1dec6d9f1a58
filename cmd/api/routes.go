package main

import (
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/notify"
	"callcenter-platform/internal/rbac"
	"callcenter-platform/internal/routing"
	"callcenter-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, api *httpapi.API, router *routing.Router, dedupe telephony.Deduper, authManager *auth.Manager) {
	// public
	r.GET("/healthz", api.Health)

	// Control-plane webhooks (public). The subscription validation handshake
	// arrives on this endpoint before any call events do.
	webhook := telephony.WebhookHandler{Sink: router, Dedupe: dedupe}
	r.POST("/webhooks/telephony/events", webhook.HandleEvents)

	// Realtime console channel; authentication happens in-protocol.
	ws := notify.WSHandler{Auth: authManager, Bus: api.Bus}
	r.GET("/ws", ws.Serve)

	// auth
	r.POST("/auth/login", api.Login)
	r.POST("/auth/refresh", api.Refresh)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(authManager))
	{
		// AGENT routes
		agentRoutes := v1.Group("/agents")
		{
			agentRoutes.GET("", api.ListAgents)
			agentRoutes.GET("/:id", api.GetAgent)
			agentRoutes.PATCH("/:id/status", api.UpdateAgentStatus)
			agentRoutes.POST("/:id/telephony-identity", api.BindTelephonyIdentity)

			admin := agentRoutes.Group("")
			admin.Use(rbac.RequireAnyRole(rbac.RoleSupervisor))
			{
				admin.POST("", api.CreateAgent)
				admin.PATCH("/:id", api.UpdateAgent)
				admin.DELETE("/:id", api.DeleteAgent)
			}
		}

		// GROUP routes
		groupRoutes := v1.Group("/groups")
		{
			groupRoutes.GET("", api.ListGroups)
			groupRoutes.GET("/:id", api.GetGroup)

			admin := groupRoutes.Group("")
			admin.Use(rbac.RequireAnyRole(rbac.RoleSupervisor))
			{
				admin.POST("", api.CreateGroup)
				admin.PATCH("/:id", api.UpdateGroup)
				admin.DELETE("/:id", api.DeleteGroup)
				admin.POST("/:id/agents", api.AddGroupAgent)
				admin.DELETE("/:id/agents/:agentId", api.RemoveGroupAgent)
				admin.PUT("/:id/overflow", api.SetOverflow)
			}
		}

		// CALL routes
		callRoutes := v1.Group("/calls")
		{
			callRoutes.GET("", api.ListCalls)
			callRoutes.GET("/:id", api.GetCall)
			callRoutes.POST("/:id/answer", api.AnswerCall)
			callRoutes.POST("/:id/end", api.EndCall)
			callRoutes.POST("/:id/transfer", api.TransferCall)
			callRoutes.GET("/history", api.CallHistory)
		}

		// REPORTING routes
		v1.GET("/reporting/overview",
			rbac.RequireAnyRole(rbac.RoleSupervisor), api.Overview)
	}
}
