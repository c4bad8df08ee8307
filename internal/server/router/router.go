package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milktrack/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. The device
// endpoints are only mounted when ingest is non-nil (remote backend).
func New(dash *handlers.DashboardHandler, ingest *handlers.IngestionHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	api.GET("/dashboard", dash.View)
	api.GET("/collections", dash.Collections)
	api.POST("/collections", dash.Submit)
	api.DELETE("/collections", dash.Clear)
	api.GET("/farmers", dash.Farmers)
	api.GET("/devices", dash.Devices)
	api.GET("/export.csv", dash.Export)

	endpoints := gin.H{
		"dashboard": "GET /api/dashboard",
		"export":    "GET /api/export.csv",
	}
	if ingest != nil {
		device := r.Group("/device")
		device.POST("/collections", ingest.AddCollection)
		device.POST("/farmers", ingest.RegisterFarmer)
		device.POST("/fingerprints/verify", ingest.VerifyFingerprint)
		device.POST("/heartbeat", ingest.Heartbeat)
		device.GET("/farmer", ingest.GetFarmer)

		endpoints["addMilkCollection"] = "POST /device/collections"
		endpoints["registerFarmer"] = "POST /device/farmers"
		endpoints["verifyFingerprint"] = "POST /device/fingerprints/verify"
		endpoints["deviceHeartbeat"] = "POST /device/heartbeat"
		endpoints["getFarmer"] = "GET /device/farmer?farmerId=XXX"
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"message":   "API is running",
			"timestamp": time.Now().UTC(),
			"endpoints": endpoints,
		})
	})

	if logger != nil {
		logger.Info("router initialized", zap.Bool("device_api", ingest != nil))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
