package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/domain/models"
	"github.com/mamadbah2/milktrack/internal/service/dashboard"
	"github.com/mamadbah2/milktrack/internal/service/export"
)

// ConfirmHeader must carry the configured phrase before a clear-all runs.
const ConfirmHeader = "X-Confirm"

// Dashboard is the coordinator surface the HTTP layer needs.
type Dashboard interface {
	View() models.DashboardView
	Records() []models.CollectionRecord
	Submit(ctx context.Context, input models.CollectionInput) (dashboard.SubmitResult, error)
	ClearAll(ctx context.Context) error
}

// DashboardHandler serves the dashboard read model and its two mutations.
type DashboardHandler struct {
	dash         Dashboard
	confirmToken string
	logger       *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter.
func NewDashboardHandler(dash Dashboard, confirmToken string, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{dash: dash, confirmToken: confirmToken, logger: logger}
}

// View returns the full dashboard state.
func (h *DashboardHandler) View(c *gin.Context) {
	c.JSON(http.StatusOK, h.dash.View())
}

// Collections returns the live feed.
func (h *DashboardHandler) Collections(c *gin.Context) {
	view := h.dash.View()
	c.JSON(http.StatusOK, gin.H{"collections": view.Feed, "total": view.TotalRecords})
}

// Farmers returns the farmer ranking.
func (h *DashboardHandler) Farmers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"farmers": h.dash.View().Farmers})
}

// Devices returns today's per-device activity and the stored device status.
func (h *DashboardHandler) Devices(c *gin.Context) {
	view := h.dash.View()
	c.JSON(http.StatusOK, gin.H{"devices": view.Devices, "status": view.DeviceStatus})
}

// Submit stores a manually entered collection.
func (h *DashboardHandler) Submit(c *gin.Context) {
	var input models.CollectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid collection payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	res, err := h.dash.Submit(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if !res.Applied {
		c.JSON(http.StatusAccepted, gin.H{
			"success":      true,
			"message":      "Collection submitted, dashboard updates when the store confirms it",
			"collectionId": res.CollectionID,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"message":      "Collection recorded successfully",
		"collectionId": res.CollectionID,
		"collection":   res.Record,
	})
}

// Clear wipes every record once the caller has echoed the confirmation phrase.
func (h *DashboardHandler) Clear(c *gin.Context) {
	if c.GetHeader(ConfirmHeader) != h.confirmToken {
		c.JSON(http.StatusPreconditionRequired, gin.H{
			"success": false,
			"error":   "confirmation required",
			"message": "repeat the request with the " + ConfirmHeader + " header set to the confirmation phrase",
		})
		return
	}

	if err := h.dash.ClearAll(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Warn("all collection data cleared", zap.String("client_ip", c.ClientIP()))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All data cleared"})
}

// Export downloads the working set as CSV.
func (h *DashboardHandler) Export(c *gin.Context) {
	records := h.dash.Records()
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No data to export"})
		return
	}

	view := h.dash.View()
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(view.GeneratedAt)+`"`)
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, records); err != nil {
		h.logger.Error("csv export failed", zap.Error(err))
	}
}
