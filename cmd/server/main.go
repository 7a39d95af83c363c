// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artcurio/curio-backend/internal/config"
	"github.com/artcurio/curio-backend/internal/database"
	"github.com/artcurio/curio-backend/internal/registry"
	"github.com/artcurio/curio-backend/internal/router"
	"github.com/artcurio/curio-backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Seed the platform admin account
	if err := database.SeedInitialData(db, cfg); err != nil {
		log.Fatal("Failed to seed initial data:", err)
	}

	paymentService := services.NewPaymentService(db, cfg)
	projectionService := services.NewProjectionService(db)
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	// Rebuild the registry from the event journal, then attach the
	// projection so new events flow back into it.
	admin := registry.Identity(cfg.Registry.AdminAccountID)
	events, err := projectionService.LoadEvents()
	if err != nil {
		log.Fatal("Failed to load event journal:", err)
	}

	reg := registry.Replay(admin, paymentService, events)
	log.Printf("Registry rebuilt from %d journaled events", len(events))

	// A fresh journal starts at the built-in fee rate; apply the
	// configured one so the change is itself journaled.
	if len(events) == 0 && uint32(cfg.Registry.DefaultFeeRate) != reg.FeeRate() {
		if err := reg.UpdateFee(uint32(cfg.Registry.DefaultFeeRate), admin); err != nil {
			log.Fatal("Failed to apply configured fee rate:", err)
		}
	}

	reg.Subscribe(projectionService.HandleEvent)
	projectionService.Start()
	defer projectionService.Stop()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(router.Dependencies{
		DB:         db,
		Config:     cfg,
		Registry:   reg,
		Payments:   paymentService,
		Projection: projectionService,
		Storage:    storageService,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
