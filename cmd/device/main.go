// Command device simulates a field collection unit: it sends heartbeats and
// random deposits to the ingestion API.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/domain/models"
	"github.com/mamadbah2/milktrack/pkg/clients/ingest"
	"github.com/mamadbah2/milktrack/pkg/logger"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "ingestion API base url")
	deviceID := flag.String("device", "DEV001", "device identifier")
	farmerCount := flag.Int("farmers", 5, "number of simulated farmers")
	interval := flag.Duration("interval", 10*time.Second, "delay between deposits")
	heartbeat := flag.Duration("heartbeat", 30*time.Second, "delay between heartbeats")
	count := flag.Int("count", 0, "stop after this many deposits (0 runs until interrupted)")
	flag.Parse()

	log := logger.Must(logger.New()).Named("device").With(zap.String("device_id", *deviceID))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ingest.NewClient(*baseURL, 10*time.Second)
	sim := &simulator{client: client, deviceID: *deviceID, farmers: max(*farmerCount, 1), log: log}

	sim.sendHeartbeat(ctx)

	deposits := time.NewTicker(*interval)
	defer deposits.Stop()
	beats := time.NewTicker(*heartbeat)
	defer beats.Stop()

	sent := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("simulator stopped", zap.Int("deposits", sent))
			return
		case <-beats.C:
			sim.sendHeartbeat(ctx)
		case <-deposits.C:
			if sim.sendDeposit(ctx) {
				sent++
			}
			if *count > 0 && sent >= *count {
				log.Info("deposit quota reached", zap.Int("deposits", sent))
				return
			}
		}
	}
}

type simulator struct {
	client   *ingest.Client
	deviceID string
	farmers  int
	log      *zap.Logger
}

func (s *simulator) sendHeartbeat(ctx context.Context) {
	if err := s.client.Heartbeat(ctx, s.deviceID, "online"); err != nil {
		s.log.Warn("heartbeat failed", zap.Error(err))
	}
}

func (s *simulator) sendDeposit(ctx context.Context) bool {
	farmer := rand.IntN(s.farmers) + 1
	req := models.AddCollectionRequest{
		FarmerID:   fmt.Sprintf("F%03d", farmer),
		Quantity:   round1(5 + rand.Float64()*25),
		FatContent: round1(3.5 + rand.Float64()*2),
		DeviceID:   s.deviceID,
	}

	res, err := s.client.AddCollection(ctx, req)
	if err != nil {
		s.log.Warn("deposit rejected", zap.String("farmer_id", req.FarmerID), zap.Error(err))
		return false
	}
	s.log.Info("deposit sent",
		zap.String("collection_id", res.CollectionID),
		zap.String("farmer_id", res.FarmerID),
		zap.Float64("quantity", req.Quantity),
		zap.Float64("fat", req.FatContent))
	return true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
