package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/venomio5/VPFM7/internal/api/handlers"
	"github.com/venomio5/VPFM7/internal/cache"
	"github.com/venomio5/VPFM7/internal/config"
	"github.com/venomio5/VPFM7/internal/contextmodel"
	"github.com/venomio5/VPFM7/internal/ingest"
	"github.com/venomio5/VPFM7/internal/prematch"
	"github.com/venomio5/VPFM7/internal/providers"
	"github.com/venomio5/VPFM7/internal/scheduler"
	"github.com/venomio5/VPFM7/internal/sim"
	"github.com/venomio5/VPFM7/internal/store"
	"github.com/venomio5/VPFM7/internal/training"
	"github.com/venomio5/VPFM7/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	log.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
	}).Info("Starting match forecast service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.Open(cfg.DatabaseURL, cfg.IsDevelopment(), log)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	summaryCache, err := cache.New(cfg.RedisURL, log)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer summaryCache.Close()

	providerOpts := providers.Options{
		Timeout:          cfg.ExternalAPITimeout,
		RequestsPerSec:   cfg.ExternalAPIRate,
		BreakerThreshold: cfg.BreakerThreshold,
	}
	weather := providers.NewWeatherClient(cfg.WeatherURL, cfg.WeatherArchiveURL, providerOpts, log)
	geocoder := providers.NewGeocoder(cfg.GeocoderURL, providerOpts, log)
	elevation := providers.NewElevationProvider(cfg.ElevationURL, providerOpts, log)

	prematchBuilder := prematch.NewBuilder(st, weather, log)
	onboarder := prematch.NewOnboarder(st, geocoder, elevation, log)

	seed := cfg.SimulationSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	trainer := contextmodel.NewTrainer(seed, log)

	// Scrapers plug in behind ingest.MatchIngestor; the default build ships
	// with the canned source only.
	ingestor := ingest.NewFakeIngestor()
	pipeline := training.NewPipeline(st, ingestor, prematchBuilder, trainer, log)

	driver := sim.NewDriver(st, cfg.SimulationWorkers, seed, log)

	forecastHandler := handlers.NewForecastHandler(st, pipeline, driver, prematchBuilder, onboarder, summaryCache, log)
	healthHandler := handlers.NewHealthHandler(st.DB(), log)

	sched := scheduler.New(pipeline, st, cfg.TrainingCronSpec, cfg.RetentionDays,
		forecastHandler.SetModels, log)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", healthHandler.Health)
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/train", forecastHandler.Train)
		apiV1.POST("/teams", forecastHandler.CreateTeam)
		apiV1.GET("/teams/:id/players", forecastHandler.TeamPlayers)
		apiV1.POST("/schedules", forecastHandler.CreateSchedule)
		apiV1.GET("/schedules/:id", forecastHandler.GetSchedule)
		apiV1.POST("/schedules/:id/simulate", forecastHandler.Simulate)
		apiV1.GET("/schedules/:id/summary", forecastHandler.GetSummary)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // simulation runs answer inline
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Info("Server exited")
}
