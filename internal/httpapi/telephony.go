package httpapi

import (
	"net/http"

	"voice-platform/internal/integrations"
	"voice-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// GetTelephonyConfig returns the workspace's telephony settings with the
// webhook key masked. The full key is only ever shown once, on rotation.
func (h Handlers) GetTelephonyConfig(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	view, err := h.Integrations.TelephonyConfig(c.Request.Context(), workspaceID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "config lookup failed"})
		return
	}
	c.JSON(http.StatusOK, view)
}

type upsertTelephonyRequest struct {
	VirtualNumber *string `json:"virtual_number"`
	Enabled       *bool   `json:"enabled"`
}

// UpsertTelephonyConfig updates the virtual number or enabled flag. The API
// key cannot be set through this endpoint.
// RBAC: owner or super_admin.
func (h Handlers) UpsertTelephonyConfig(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req upsertTelephonyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	rec, err := h.Integrations.UpsertTelephonyConfig(c.Request.Context(), integrations.UpsertTelephonyRequest{
		WorkspaceID:   workspaceID,
		VirtualNumber: req.VirtualNumber,
		Enabled:       req.Enabled,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Audit != nil {
		if err := h.Audit.LogIntegrationUpdated(c.Request.Context(), workspaceID, h.actor(c), rec.ID, ""); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":             rec.ID,
		"status":         rec.Status,
		"virtual_number": rec.Config[integrations.ConfigKeyVirtualNumber],
	})
}

// RotateTelephonyKey mints a fresh webhook key, invalidating the old one
// immediately. The response is the only place the plaintext key appears.
// RBAC: owner or super_admin.
func (h Handlers) RotateTelephonyKey(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	key, err := h.Integrations.RotateKey(c.Request.Context(), workspaceID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "key rotation failed"})
		return
	}
	if h.Audit != nil {
		if err := h.Audit.LogKeyRotated(c.Request.Context(), workspaceID, h.actor(c), ""); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"api_key": key,
		"preview": integrations.MaskKey(key),
	})
}

// --- Generic integrations ---

func (h Handlers) ListIntegrations(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	rows, err := h.Integrations.List(c.Request.Context(), workspaceID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing integrations failed"})
		return
	}
	// Never expose raw credentials on list.
	out := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		out = append(out, gin.H{
			"id":         r.ID,
			"name":       r.Name,
			"type":       r.Type,
			"provider":   r.Provider,
			"status":     r.Status,
			"updated_at": r.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"integrations": out})
}

type upsertIntegrationRequest struct {
	Name     string              `json:"name"`
	Type     string              `json:"type"`
	Provider string              `json:"provider"`
	Status   integrations.Status `json:"status"`
	Config   map[string]string   `json:"config"`
}

// UpsertIntegration creates or replaces a non-telephony integration record.
// RBAC: owner or super_admin.
func (h Handlers) UpsertIntegration(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req upsertIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Provider == integrations.TelephonyProvider {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "telephony settings are managed via /admin/telephony"})
		return
	}
	rec, err := h.Integrations.Upsert(c.Request.Context(), integrations.UpsertRequest{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Type:        req.Type,
		Provider:    req.Provider,
		Status:      req.Status,
		Config:      req.Config,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Audit != nil {
		if err := h.Audit.LogIntegrationUpdated(c.Request.Context(), workspaceID, h.actor(c), rec.ID, ""); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "provider": rec.Provider, "status": rec.Status})
}

type testIntegrationRequest struct {
	Config map[string]string `json:"config"`
}

// TestIntegration checks reachability of a candidate configuration without
// persisting it.
func (h Handlers) TestIntegration(c *gin.Context) {
	if _, ok := h.workspace(c); !ok {
		return
	}
	var req testIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	c.JSON(http.StatusOK, h.Integrations.TestConnection(c.Request.Context(), req.Config))
}
