package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// Ingestion is the device-facing service.
type Ingestion interface {
	AddCollection(ctx context.Context, req models.AddCollectionRequest) (models.AddCollectionResponse, error)
	RegisterFarmer(ctx context.Context, req models.RegisterFarmerRequest) (models.RegisterFarmerResponse, error)
	VerifyFingerprint(ctx context.Context, fingerprintID string) (models.FarmerProfile, error)
	GetFarmer(ctx context.Context, farmerID string) (models.FarmerProfile, error)
	Heartbeat(ctx context.Context, req models.HeartbeatRequest) error
}

// IngestionHandler exposes the endpoints called by field devices.
type IngestionHandler struct {
	svc    Ingestion
	logger *zap.Logger
}

// NewIngestionHandler constructs the HTTP handler adapter.
func NewIngestionHandler(svc Ingestion, logger *zap.Logger) *IngestionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionHandler{svc: svc, logger: logger}
}

func (h *IngestionHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid device payload", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return false
	}
	return true
}

// AddCollection records a deposit sent by a device.
func (h *IngestionHandler) AddCollection(c *gin.Context) {
	var req models.AddCollectionRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.svc.AddCollection(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RegisterFarmer enrols a new fingerprint.
func (h *IngestionHandler) RegisterFarmer(c *gin.Context) {
	var req models.RegisterFarmerRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.svc.RegisterFarmer(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// VerifyFingerprint resolves a fingerprint to its farmer.
func (h *IngestionHandler) VerifyFingerprint(c *gin.Context) {
	var req models.VerifyFingerprintRequest
	if !h.bind(c, &req) {
		return
	}
	profile, err := h.svc.VerifyFingerprint(c.Request.Context(), req.FingerprintID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"registered": true,
		"message":    "Fingerprint verified",
		"farmer":     profile,
	})
}

// Heartbeat records device liveness.
func (h *IngestionHandler) Heartbeat(c *gin.Context) {
	var req models.HeartbeatRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.svc.Heartbeat(c.Request.Context(), req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Heartbeat received",
		"timestamp": time.Now().UTC(),
	})
}

// GetFarmer returns one farmer profile by query parameter.
func (h *IngestionHandler) GetFarmer(c *gin.Context) {
	profile, err := h.svc.GetFarmer(c.Request.Context(), c.Query("farmerId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "farmer": profile})
}
