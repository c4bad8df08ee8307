// Package ingest is the HTTP client field devices use to talk to the
// ingestion API.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

// Client calls the device endpoints.
type Client struct {
	http *resty.Client
}

// NewClient builds a client against baseURL (for example http://localhost:8080).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

// APIError is a non-2xx answer from the ingestion API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ingest api status %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	failure := new(errorBody)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(failure).
		Post(path)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		msg := failure.Message
		if msg == "" {
			msg = failure.Error
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

// AddCollection posts a deposit.
func (c *Client) AddCollection(ctx context.Context, req models.AddCollectionRequest) (models.AddCollectionResponse, error) {
	var out models.AddCollectionResponse
	err := c.post(ctx, "/device/collections", req, &out)
	return out, err
}

// RegisterFarmer enrols a fingerprint.
func (c *Client) RegisterFarmer(ctx context.Context, req models.RegisterFarmerRequest) (models.RegisterFarmerResponse, error) {
	var out models.RegisterFarmerResponse
	err := c.post(ctx, "/device/farmers", req, &out)
	return out, err
}

// VerifyFingerprint resolves a fingerprint to its farmer.
func (c *Client) VerifyFingerprint(ctx context.Context, fingerprintID string) (models.FarmerProfile, error) {
	var out struct {
		Farmer models.FarmerProfile `json:"farmer"`
	}
	err := c.post(ctx, "/device/fingerprints/verify", models.VerifyFingerprintRequest{FingerprintID: fingerprintID}, &out)
	return out.Farmer, err
}

// Heartbeat reports the device as alive.
func (c *Client) Heartbeat(ctx context.Context, deviceID, status string) error {
	return c.post(ctx, "/device/heartbeat", models.HeartbeatRequest{DeviceID: deviceID, Status: status}, nil)
}
