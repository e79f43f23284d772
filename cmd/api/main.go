package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"teacherattend/internal/attendance"
	"teacherattend/internal/auth"
	"teacherattend/internal/biometric"
	"teacherattend/internal/config"
	"teacherattend/internal/handler"
	"teacherattend/internal/httpmiddleware"
	"teacherattend/internal/logger"
	"teacherattend/internal/metrics"
	"teacherattend/internal/store"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()
	health := map[string]handler.Checker{}

	ledger, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLedger()
	health["ledger"] = func(ctx context.Context) bool { return ledger.Ping(ctx) == nil }

	var guard attendance.Guard = attendance.NewMemoryGuard()
	if cfg.GuardBackend == "redis" {
		redisClient := store.NewRedis(cfg.RedisAddr)
		defer func() { _ = redisClient.Close() }()
		guard = attendance.NewRedisGuard(redisClient.Client, "", cfg.GuardTTL).WithLogger(logger.Component("guard"))
		health["redis"] = redisClient.Healthy
	}

	var device biometric.Device
	if cfg.BiometricSkip {
		log.Warn().Msg("BIOMETRIC_SKIP set, using simulated biometric device")
		device = biometric.SimulatedDevice()
	} else {
		bridge := biometric.New(cfg.BridgeURL)
		device = bridge
		health["biometric"] = func(ctx context.Context) bool { return bridge.Health(ctx) == nil }
	}

	svc := attendance.NewService(attendance.Deps{
		Checker:       biometric.NewChecker(device),
		Authenticator: biometric.NewAuthenticator(device),
		Ledger:        ledger,
		Identity:      auth.ContextProvider{},
		Guard:         guard,
	},
		attendance.WithClock(time.Now, cfg.Location()),
		attendance.WithLogger(logger.Component("attendance")),
		attendance.WithRecorder(metrics.New(prometheus.DefaultRegisterer)),
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	handler.New(svc, health, logger.Component("http")).
		Register(r, auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer), limiter.GinMiddleware())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // a mark waits on the person at the sensor
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("ledger", cfg.LedgerBackend).Str("guard", cfg.GuardBackend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}

// openLedger picks the attendance store from LEDGER_BACKEND.
func openLedger(ctx context.Context, cfg config.App) (attendance.Ledger, func(), error) {
	var (
		db  *store.DB
		err error
	)
	switch cfg.LedgerBackend {
	case "memory":
		log.Warn().Msg("memory ledger in use, records are lost on restart")
		return attendance.NewMemoryLedger(time.Now), func() {}, nil
	case "sqlite":
		db, err = store.NewSQLite(ctx, cfg.SQLitePath)
	case "postgres", "":
		db, err = store.NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s ledger: %w", cfg.LedgerBackend, err)
	}
	return attendance.NewSQLLedger(db.Client, attendance.DialectFor(db.Driver)), func() { _ = db.Close() }, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        24 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

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
