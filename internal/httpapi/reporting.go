package httpapi

import (
	"net/http"
	"time"

	"voice-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// parseRange reads ?from and ?to (RFC 3339). Missing values default to the
// trailing seven days.
func parseRange(c *gin.Context) (reporting.TimeRange, bool) {
	now := time.Now().UTC()
	r := reporting.TimeRange{From: now.AddDate(0, 0, -7), To: now}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return reporting.TimeRange{}, false
		}
		r.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return reporting.TimeRange{}, false
		}
		r.To = t
	}
	return r, true
}

// CallsSummary aggregates call metrics for a time range.
func (h Handlers) CallsSummary(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	rng, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		WorkspaceID: workspaceID,
		Range:       rng,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// CallVolume returns the per-day volume series for charts.
func (h Handlers) CallVolume(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	rng, ok := parseRange(c)
	if !ok {
		return
	}
	points, err := h.Reports.CallVolume(c.Request.Context(), reporting.CallsSummaryRequest{
		WorkspaceID: workspaceID,
		Range:       rng,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_volume": points})
}

// DashboardStats backs the operator landing page.
func (h Handlers) DashboardStats(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	out, err := h.Reports.Dashboard(c.Request.Context(), workspaceID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats lookup failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}
