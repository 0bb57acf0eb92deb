package httpapi

import (
	"errors"
	"net/http"

	"voice-platform/internal/auth"
	"voice-platform/internal/campaigns"
	"voice-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

func (h Handlers) ListCampaigns(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	rows, err := h.Campaigns.List(c.Request.Context(), workspaceID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing campaigns failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": rows})
}

type createCampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TargetCount int    `json:"target_count"`
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	userID, _ := auth.UserID(c.Request.Context())
	camp, err := h.Campaigns.Create(c.Request.Context(), campaigns.CreateRequest{
		WorkspaceID: workspaceID,
		Name:        req.Name,
		Description: req.Description,
		TargetCount: req.TargetCount,
		CreatedBy:   userID,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, camp)
}

type campaignStatusRequest struct {
	Status campaigns.Status `json:"status"`
}

// SetCampaignStatus moves a campaign through its lifecycle.
// RBAC: owner or analyst.
func (h Handlers) SetCampaignStatus(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req campaignStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	camp, err := h.Campaigns.SetStatus(c.Request.Context(), workspaceID, c.Param("campaign_id"), req.Status)
	if err != nil {
		if errors.Is(err, campaigns.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Audit != nil {
		if err := h.Audit.LogCampaignUpdated(c.Request.Context(), workspaceID, h.actor(c), camp.ID, string(camp.Status)); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, camp)
}
