package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"trustpeer/internal/auth"
	"trustpeer/internal/config"
	"trustpeer/internal/handlers"
	"trustpeer/internal/services"
	"trustpeer/internal/wallets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Initialize engines
	walletService := services.NewWalletService(wallets.DefaultProviders()...)
	escrowService := services.NewEscrowService(walletService, cfg.Escrow.SimLatency)
	ratingService := services.NewRatingService(cfg.Escrow.SimLatency)

	// Trade completion workflow: feeds trade counters and rating
	// eligibility into the reputation engine.
	workflow := services.NewWorkflowService(escrowService, ratingService)
	stopWorkflow := workflow.Start()
	defer stopWorkflow()

	if cfg.App.SeedDemoData {
		services.SeedDemoData(escrowService, ratingService)
		logrus.Info("Demo data loaded")
	}

	// Initialize handlers
	walletHandler := handlers.NewWalletHandler(walletService)
	escrowHandler := handlers.NewEscrowHandler(escrowService)
	ratingHandler := handlers.NewRatingHandler(ratingService)

	hub := handlers.NewHub()
	hub.Watch(walletService, escrowService, ratingService)
	defer hub.Stop()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		wallet := api.Group("/wallet")
		{
			wallet.POST("/connect", walletHandler.Connect)
			wallet.POST("/disconnect", walletHandler.Disconnect)
			wallet.POST("/disconnect-all", walletHandler.DisconnectAll)
			wallet.GET("/state", walletHandler.State)
			wallet.GET("/available", walletHandler.Available)
		}

		trades := api.Group("/trades")
		{
			trades.GET("/:id", escrowHandler.GetTrade)

			protected := trades.Group("", auth.AuthMiddleware())
			{
				protected.POST("", escrowHandler.CreateTrade)
				protected.GET("", escrowHandler.GetTradeHistory)
				protected.POST("/:id/deposit", escrowHandler.DepositFunds)
				protected.POST("/:id/confirm", escrowHandler.ConfirmTrade)
				protected.POST("/:id/release", escrowHandler.ReleaseFunds)
				protected.POST("/:id/cancel", escrowHandler.CancelTrade)
				protected.POST("/:id/dispute", escrowHandler.DisputeTrade)
			}
		}

		ratings := api.Group("/ratings")
		{
			ratings.POST("", auth.AuthMiddleware(), ratingHandler.SubmitRating)
			ratings.POST("/:id/helpful", ratingHandler.MarkHelpful)
		}

		traders := api.Group("/traders")
		{
			traders.GET("", ratingHandler.ListTraders)
			traders.GET("/:address", ratingHandler.GetTraderProfile)
			traders.GET("/:address/ratings", ratingHandler.GetTraderRatings)
		}
	}

	router.GET("/ws", hub.Serve)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Forced shutdown: %v", err)
	}
}
