package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/client"
	"github.com/pesio-ai/be-dealer-workflow/internal/config"
	"github.com/pesio-ai/be-dealer-workflow/internal/database"
	"github.com/pesio-ai/be-dealer-workflow/internal/handler"
	"github.com/pesio-ai/be-dealer-workflow/internal/logger"
	"github.com/pesio-ai/be-dealer-workflow/internal/realtime"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
	"github.com/pesio-ai/be-dealer-workflow/internal/service"
)

const healthInterval = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("environment", cfg.Service.Environment).
		Msg("Starting dealer workflow service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
		HealthCheck: cfg.Database.HealthCheck,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	applied, err := db.Migrate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	log.Info().Strs("applied", applied).Msg("Migrations up to date")

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	bookingRepo := repository.NewServiceBookingRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Realtime push and credentials
	hub := realtime.NewHub(log.Component("realtime").Logger)
	publisher := client.NewNotificationPublisher(hub, log.Component("publisher").Logger)
	authenticator := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize services
	lifecycle := service.NewLifecycle(customerRepo, log.Component("lifecycle"))
	adminService := service.NewAdminService(employeeRepo, branchRepo, customerRepo, analyticsRepo, log.Component("admin"))
	services := handler.Services{
		Customers:     service.NewCustomerService(lifecycle, cfg.Service.PublicBaseURL),
		Accounts:      service.NewAccountsService(lifecycle),
		RTO:           service.NewRTOService(lifecycle),
		Bookings:      service.NewServiceBookingService(bookingRepo, employeeRepo, log.Component("bookings")),
		Admin:         adminService,
		Notifications: service.NewNotificationService(notificationRepo, publisher, log.Component("notifications")),
		Auth:          service.NewAuthService(employeeRepo, authenticator, log.Component("auth")),
	}

	if cfg.Admin.Email != "" {
		created, err := adminService.EnsureAdmin(ctx, &service.CreateEmployeeRequest{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Phone:    cfg.Admin.Phone,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed admin account")
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("Admin account created")
		}
	}

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(services, authenticator, hub, db, log)
	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpHandler.Routes(handler.RouterConfig{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Setup gRPC health server
	grpcHandler := handler.NewGRPCHandler(db, log.Logger)
	grpcServer := grpcHandler.NewServer()
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gRPC listener")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Int("port", cfg.Server.GRPCPort).Msg("Starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return grpcHandler.WatchHealth(gctx, healthInterval)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		grpcHandler.Shutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}
