package main

import (
	"voice-platform/internal/httpapi"
	"voice-platform/internal/rbac"
	"voice-platform/internal/voice"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, authMW gin.HandlerFunc, h httpapi.Handlers, webhooks *voice.Handler) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Telephony provider webhooks (public; authenticated per request by the
	// workspace's webhook key, not by JWT).
	webhooks.Register(r)

	// AUTH routes (token issuance). Login is reachable without a bearer
	// token; identity is asserted by the upstream identity provider.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", h.Me)

		// CALLS routes
		calls := v1.Group("/calls")
		calls.Use(rbac.RequireWorkspace())
		calls.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleSuperAdmin))
		{
			calls.GET("", h.ListCalls)
			calls.POST("", h.CreateCall)
			calls.GET("/:call_id", h.GetCall)
			calls.POST("/:call_id/end", h.EndCall)
		}

		// CONVERSATION route (dashboard voice assistant)
		conv := v1.Group("/voice")
		conv.Use(rbac.RequireWorkspace())
		conv.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleSuperAdmin))
		{
			conv.POST("/conversation", h.Converse)
		}

		// KNOWLEDGE routes
		knowledge := v1.Group("/knowledge")
		knowledge.Use(rbac.RequireWorkspace())
		knowledge.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleSuperAdmin))
		{
			knowledge.POST("/upload", h.UploadDocument)
			knowledge.GET("/documents", h.ListDocuments)
			knowledge.DELETE("/documents/:document_id", h.DeleteDocument)
			knowledge.POST("/search", h.SearchKnowledge)
		}

		// SOP routes
		sops := v1.Group("/sop")
		sops.Use(rbac.RequireWorkspace())
		sops.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleSuperAdmin))
		{
			sops.POST("/generate", h.GenerateSOP)
			sops.GET("", h.ListSOPs)
			sops.GET("/:sop_id", h.GetSOP)
		}

		// CAMPAIGNS routes
		campaigns := v1.Group("/campaigns")
		campaigns.Use(rbac.RequireWorkspace())
		campaigns.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
		{
			campaigns.GET("", h.ListCampaigns)
			campaigns.POST("", h.CreateCampaign)
			campaigns.PATCH("/:campaign_id/status", h.SetCampaignStatus)
		}

		// ANALYTICS routes
		analytics := v1.Group("/analytics")
		analytics.Use(rbac.RequireWorkspace())
		analytics.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
		{
			analytics.GET("/summary", h.CallsSummary)
			analytics.GET("/volume", h.CallVolume)
			analytics.GET("/dashboard", h.DashboardStats)
		}

		// ADMIN routes
		// Only owner/super_admin can access admin endpoints.
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireWorkspace())
		admin.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleSuperAdmin))
		{
			admin.GET("/telephony", h.GetTelephonyConfig)
			admin.PUT("/telephony", h.UpsertTelephonyConfig)
			admin.POST("/telephony/rotate-key", h.RotateTelephonyKey)

			admin.GET("/integrations", h.ListIntegrations)
			admin.POST("/integrations", h.UpsertIntegration)
			admin.POST("/integrations/test", h.TestIntegration)
		}
	}
}
