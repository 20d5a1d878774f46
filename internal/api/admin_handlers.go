package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gioe/aiq-assessment/internal/apperr"
	"github.com/gioe/aiq-assessment/internal/model"
)

const defaultReliabilityHistoryLimit = 20

// handleAdminReliability returns the latest value for every tracked
// reliability metric kind.
func (s *Server) handleAdminReliability(c *gin.Context) {
	ctx := c.Request.Context()
	kinds := []model.MetricKind{model.MetricCronbachAlpha, model.MetricTestRetest, model.MetricSplitHalf}

	out := make([]reliabilityReportDTO, 0, len(kinds))
	for _, kind := range kinds {
		history, err := s.reliability.History(ctx, kind, 1)
		if err != nil {
			respondError(c, apperr.Server("reliability_lookup_failed", err))
			return
		}
		if len(history) == 0 {
			continue
		}
		latest := history[0]
		out = append(out, reliabilityReportDTO{Kind: string(latest.Kind), Value: latest.Value, SampleSize: latest.SampleSize})
	}
	c.JSON(http.StatusOK, gin.H{"metrics": out})
}

// handleAdminReliabilityHistory returns the historized series for one
// metric kind, newest first.
func (s *Server) handleAdminReliabilityHistory(c *gin.Context) {
	kind := model.MetricKind(c.Query("kind"))
	if kind == "" {
		respondError(c, apperr.Validation("missing_kind", "kind query parameter is required"))
		return
	}
	limit := defaultReliabilityHistoryLimit
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := s.reliability.History(c.Request.Context(), kind, limit)
	if err != nil {
		respondError(c, apperr.Server("reliability_history_failed", err))
		return
	}
	out := make([]reliabilityHistoryEntryDTO, 0, len(history))
	for _, m := range history {
		out = append(out, reliabilityHistoryEntryDTO{
			Kind: string(m.Kind), Value: m.Value, SampleSize: m.SampleSize,
			CalculatedAt: m.CalculatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": out})
}

type anchorItemDTO struct {
	ID                 int64   `json:"id"`
	Domain             string  `json:"domain"`
	Anchor             bool    `json:"anchor"`
	AnchorDesignatedAt *string `json:"anchor_designated_at,omitempty"`
}

func toAnchorItemDTO(it *model.Item) anchorItemDTO {
	dto := anchorItemDTO{ID: it.ID, Domain: string(it.Domain), Anchor: it.Anchor}
	if it.AnchorDesignatedAt != nil {
		ts := it.AnchorDesignatedAt.Format(time.RFC3339)
		dto.AnchorDesignatedAt = &ts
	}
	return dto
}

// handleAdminListAnchorItems lists the stable equating subset preserved
// across calibrations (spec.md §4.A, admin anchor-item endpoints).
func (s *Server) handleAdminListAnchorItems(c *gin.Context) {
	items, err := s.items.ListAnchors(c.Request.Context())
	if err != nil {
		respondError(c, apperr.Server("anchor_list_failed", err))
		return
	}
	out := make([]anchorItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toAnchorItemDTO(it))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

type toggleAnchorRequest struct {
	ItemID int64 `json:"item_id" binding:"required"`
	Anchor bool  `json:"anchor"`
}

// handleAdminToggleAnchorItem designates or releases an item's anchor
// status. Anchors are only ever set by hand through this endpoint; there
// is no automatic anchor selection here or in the calibration pipeline.
func (s *Server) handleAdminToggleAnchorItem(c *gin.Context) {
	var req toggleAnchorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("invalid_request", err.Error()))
		return
	}
	if err := s.items.SetAnchor(c.Request.Context(), req.ItemID, req.Anchor, time.Now()); err != nil {
		respondError(c, apperr.Server("anchor_toggle_failed", err))
		return
	}
	c.Status(http.StatusNoContent)
}

type correlatedEventDTO struct {
	UserID          int64  `json:"user_id"`
	LogoutAllAt     string `json:"logout_all_at"`
	PasswordResetAt string `json:"password_reset_at"`
}

// handleAdminLogoutAllEvents reports the forensic correlation between
// logout-all and password-reset events within a 24-hour window — a
// best-effort in-process view backed by internal/audit.Timeline rather
// than a persisted schema (see DESIGN.md).
func (s *Server) handleAdminLogoutAllEvents(c *gin.Context) {
	if s.forensics == nil {
		c.JSON(http.StatusOK, gin.H{"events": []correlatedEventDTO{}})
		return
	}
	pairs := s.forensics.Correlate(24 * time.Hour)
	out := make([]correlatedEventDTO, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, correlatedEventDTO{
			UserID:          p.UserID,
			LogoutAllAt:     p.LogoutAllAt.Format(time.RFC3339),
			PasswordResetAt: p.PasswordResetAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}
