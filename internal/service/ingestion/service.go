// Package ingestion implements the device-facing operations of the remote
// backend: deposits, fingerprint enrolment and heartbeats.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// DefaultDeviceStatus is stored when a heartbeat carries no status.
const DefaultDeviceStatus = "online"

// Store is the persistence the ingestion service writes through.
type Store interface {
	AddCollection(ctx context.Context, input models.CollectionInput) (string, error)
	GetFarmer(ctx context.Context, farmerID string) (models.FarmerAggregate, error)
	FindActiveFingerprint(ctx context.Context, fingerprintID string) (models.Fingerprint, error)
	RegisterFarmer(ctx context.Context, fingerprint models.Fingerprint, farmer models.FarmerAggregate) error
	Heartbeat(ctx context.Context, deviceID, status string) error
}

// Service validates device requests and forwards them to the store.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
	suffix func() int
}

// NewService builds the ingestion service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		suffix: func() int { return rand.IntN(1000) },
	}
}

// AddCollection records a deposit. A fingerprint takes precedence over the
// farmer id sent by the device.
func (s *Service) AddCollection(ctx context.Context, req models.AddCollectionRequest) (models.AddCollectionResponse, error) {
	var missing []string
	if req.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		missing = append(missing, "deviceId")
	}
	if req.FingerprintID == "" && req.FarmerID == "" {
		missing = append(missing, "farmerId or fingerprintId")
	}
	if len(missing) > 0 {
		return models.AddCollectionResponse{}, &models.ValidationError{Fields: missing}
	}

	farmerID, farmerName := req.FarmerID, req.FarmerName
	if req.FingerprintID != "" {
		fp, err := s.store.FindActiveFingerprint(ctx, req.FingerprintID)
		if err != nil {
			return models.AddCollectionResponse{}, fmt.Errorf("resolve fingerprint %s: %w", req.FingerprintID, err)
		}
		farmerID = fp.FarmerID

		farmer, err := s.store.GetFarmer(ctx, farmerID)
		switch {
		case err == nil:
			farmerName = farmer.Name
		case errors.Is(err, models.ErrNotFound):
		default:
			return models.AddCollectionResponse{}, err
		}
	}
	if farmerName == "" {
		farmerName = "Farmer " + farmerID
	}

	input := models.CollectionInput{
		FarmerID:      farmerID,
		FingerprintID: req.FingerprintID,
		FarmerName:    farmerName,
		Quantity:      req.Quantity,
		FatContent:    req.FatContent,
		PHValue:       req.PHValue,
		Temperature:   req.Temperature,
		DeviceID:      req.DeviceID,
		Status:        models.StatusVerified,
	}
	id, err := s.store.AddCollection(ctx, input)
	if err != nil {
		return models.AddCollectionResponse{}, err
	}

	s.logger.Info("collection ingested",
		zap.String("collection_id", id),
		zap.String("farmer_id", farmerID),
		zap.String("device_id", req.DeviceID),
		zap.Float64("quantity", req.Quantity))

	return models.AddCollectionResponse{
		Success:      true,
		Message:      "Collection added successfully",
		CollectionID: id,
		FarmerID:     farmerID,
		FarmerName:   farmerName,
		Quantity:     req.Quantity,
		FatContent:   req.FatContent,
		Timestamp:    s.now().UTC(),
	}, nil
}

// RegisterFarmer enrols a fingerprint under a freshly generated farmer id.
func (s *Service) RegisterFarmer(ctx context.Context, req models.RegisterFarmerRequest) (models.RegisterFarmerResponse, error) {
	var missing []string
	if req.FingerprintID == "" {
		missing = append(missing, "fingerprintId")
	}
	if strings.TrimSpace(req.FarmerName) == "" {
		missing = append(missing, "farmerName")
	}
	if len(missing) > 0 {
		return models.RegisterFarmerResponse{}, &models.ValidationError{Fields: missing}
	}

	now := s.now().UTC()
	farmerID := fmt.Sprintf("F%d%d", now.UnixMilli(), s.suffix())
	device := req.DeviceID
	if device == "" {
		device = "unknown"
	}

	fingerprint := models.Fingerprint{
		FingerprintID: req.FingerprintID,
		FarmerID:      farmerID,
		RegisteredAt:  now,
		RegisteredOn:  device,
		Status:        models.FingerprintActive,
	}
	farmer := models.FarmerAggregate{
		FarmerID:          farmerID,
		Name:              req.FarmerName,
		FingerprintID:     req.FingerprintID,
		FingerprintStatus: models.FingerprintRegistered,
		PhoneNumber:       req.PhoneNumber,
		RegisteredAt:      now,
		RegisteredOn:      device,
	}
	if err := s.store.RegisterFarmer(ctx, fingerprint, farmer); err != nil {
		return models.RegisterFarmerResponse{}, err
	}

	s.logger.Info("farmer registered", zap.String("farmer_id", farmerID), zap.String("device_id", device))
	return models.RegisterFarmerResponse{
		Success:    true,
		Message:    "Farmer registered successfully",
		FarmerID:   farmerID,
		FarmerName: req.FarmerName,
	}, nil
}

// VerifyFingerprint returns the profile bound to an active fingerprint.
func (s *Service) VerifyFingerprint(ctx context.Context, fingerprintID string) (models.FarmerProfile, error) {
	if fingerprintID == "" {
		return models.FarmerProfile{}, &models.ValidationError{Fields: []string{"fingerprintId"}}
	}
	fp, err := s.store.FindActiveFingerprint(ctx, fingerprintID)
	if err != nil {
		return models.FarmerProfile{}, err
	}
	return s.GetFarmer(ctx, fp.FarmerID)
}

// GetFarmer loads a farmer profile.
func (s *Service) GetFarmer(ctx context.Context, farmerID string) (models.FarmerProfile, error) {
	if farmerID == "" {
		return models.FarmerProfile{}, &models.ValidationError{Fields: []string{"farmerId"}}
	}
	farmer, err := s.store.GetFarmer(ctx, farmerID)
	if err != nil {
		return models.FarmerProfile{}, err
	}
	return models.FarmerProfile{
		FarmerID:      farmer.FarmerID,
		FarmerName:    farmer.Name,
		PhoneNumber:   farmer.PhoneNumber,
		TotalDeposits: farmer.TotalDeposits,
		TotalQuantity: farmer.TotalQuantity,
	}, nil
}

// Heartbeat marks a device as alive.
func (s *Service) Heartbeat(ctx context.Context, req models.HeartbeatRequest) error {
	if req.DeviceID == "" {
		return &models.ValidationError{Fields: []string{"deviceId"}}
	}
	status := req.Status
	if status == "" {
		status = DefaultDeviceStatus
	}
	if err := s.store.Heartbeat(ctx, req.DeviceID, status); err != nil {
		return err
	}
	s.logger.Debug("heartbeat", zap.String("device_id", req.DeviceID), zap.String("status", status))
	return nil
}
