package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/pokerledger/backend/src/config"
	"github.com/username/pokerledger/backend/src/database"
	"github.com/username/pokerledger/backend/src/handlers"
	"github.com/username/pokerledger/backend/src/logger"
	"github.com/username/pokerledger/backend/src/services"
	"github.com/username/pokerledger/backend/src/store"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(config.Cfg.AllowedOrigins))
	for _, origin := range config.Cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Poker ledger backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	db, err := database.InitDB(config.Cfg.DatabasePath)
	if err != nil {
		logger.L.Error("Database initialization failed", "error", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(db, config.Cfg.DatabasePath, config.Cfg.MigrationsPath); err != nil {
		logger.L.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	transactionStore := store.NewTransactionStore(db)
	ledgerService := services.NewLedgerService(transactionStore)
	transcriptionService := services.NewTranscriptionService(
		config.Cfg.OpenAIAPIKey,
		config.Cfg.TranscriptionURL,
		config.Cfg.TranscriptionModel,
		config.Cfg.TranscriptionTimeout,
	)
	annotationManager := services.NewAnnotationManager(
		transcriptionService,
		ledgerService,
		config.Cfg.AudioSpoolDir,
		config.Cfg.AnnotationSessionTTL,
	)

	txHandler := handlers.NewTransactionHandler(ledgerService)
	annotationHandler := handlers.NewAnnotationHandler(ledgerService, annotationManager, config.Cfg.MaxUploadSizeBytes)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Poker ledger backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", txHandler.HandleListTransactions)
		r.Post("/transactions", txHandler.HandleAddTransaction)
		r.Delete("/transactions", txHandler.HandleDeleteTransactions)
		r.Get("/transactions/{id}", txHandler.HandleGetTransaction)
		r.Delete("/transactions/{id}", txHandler.HandleDeleteTransaction)
		r.Put("/transactions/{id}/notes", txHandler.HandleUpdateNotes)
		r.Post("/transactions/{id}/transcriptions", annotationHandler.HandleTranscribeAudio)
		r.Get("/transactions/{id}/annotation", annotationHandler.HandleGetAnnotationStatus)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Write timeout must cover an in-flight transcription round trip
		WriteTimeout: config.Cfg.TranscriptionTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
