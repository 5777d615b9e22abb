package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gymtrack/internal/aiclient"
	"gymtrack/internal/attendance"
	"gymtrack/internal/cloudinary"
	"gymtrack/internal/config"
	"gymtrack/internal/httpmiddleware"
	"gymtrack/internal/kiosk"
	"gymtrack/internal/logger"
	"gymtrack/internal/member"
	"gymtrack/internal/metrics"
	"gymtrack/internal/notify"
	"gymtrack/internal/queue"
	"gymtrack/internal/store"
	"gymtrack/internal/waha"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("api server failed", "error", err)
	}
}

type app struct {
	cfg      config.App
	log      logger.Logger
	registry *member.Registry
	att      *attendance.Service
	hub      *notify.Hub
	kiosk    *kiosk.Session
	ai       *aiclient.Gemini
	cdn      *cloudinary.Client
	redis    *store.Redis
}

func run(cfg config.App, log logger.Logger) error {
	ctx := context.Background()
	mets := metrics.New("gymtrack")

	registry := member.NewRegistry()
	registry.Seed(member.SeedMembers())

	ai, err := aiclient.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AISkip || cfg.GeminiAPIKey == "")
	if err != nil {
		return err
	}
	defer ai.Close()
	if cfg.AISkip {
		log.Warn("AI calls disabled (AI_SKIP); identification always reports no match")
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "gymtrack:notifications")
	}

	wa := waha.New(cfg.WahaURL, cfg.WahaAPIKey, cfg.WahaSession)

	ledger := attendance.NewLedger()
	att := attendance.NewService(ledger, registry, log, mets, cfg.Capacity, cfg.BannerTTL)
	hub := notify.NewHub(registry, ai, wa, q, log, mets)

	camera := kiosk.NewSnapshotCamera(cfg.CameraSnapshotURL)
	ks := kiosk.NewSession(camera, ai, att, registry, log, mets, kiosk.Config{
		ScanInterval: cfg.ScanInterval,
		RetryDelay:   cfg.RetryDelay,
		ResetDelay:   cfg.ResetDelay,
	})
	defer ks.Stop()

	var cdn *cloudinary.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdn = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Info("cloudinary configured", "cloud", cfg.CloudinaryCloudName)
	} else {
		log.Info("cloudinary not configured, member photo upload disabled")
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		att:      att,
		hub:      hub,
		kiosk:    ks,
		ai:       ai,
		cdn:      cdn,
		redis:    redisClient,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", a.handleHealthz)

	a.registerRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", "error", err)
	}
	log.Info("server exited")
	return nil
}

// CORS middleware for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
