package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/milktrack/internal/domain/models"
)

func TestAddCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/device/collections", r.URL.Path)
		var req models.AddCollectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.AddCollectionResponse{
			Success: true, CollectionID: "c1", FarmerID: req.FarmerID, Quantity: req.Quantity,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	res, err := client.AddCollection(context.Background(), models.AddCollectionRequest{FarmerID: "F1", Quantity: 4.5, DeviceID: "DEV001"})
	require.NoError(t, err)
	assert.Equal(t, "c1", res.CollectionID)
	assert.Equal(t, 4.5, res.Quantity)
}

func TestVerifyFingerprintNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"not found","message":"fingerprint FP1: not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).VerifyFingerprint(context.Background(), "FP1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Message, "not found")
}

func TestHeartbeat(t *testing.T) {
	var got models.HeartbeatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL+"/", time.Second).Heartbeat(context.Background(), "DEV001", "online"))
	assert.Equal(t, models.HeartbeatRequest{DeviceID: "DEV001", Status: "online"}, got)
}
