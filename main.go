package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/felo/eml-parser/internal/config"
	"github.com/felo/eml-parser/internal/db"
	"github.com/felo/eml-parser/internal/handlers"
	"github.com/felo/eml-parser/internal/indexer"
	"github.com/felo/eml-parser/internal/parser"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := setupLogging(cfg)

	// Ensure database directory exists
	if cfg.DB.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0755); err != nil {
			logger.WithError(err).Fatal("Failed to create database directory")
		}
	}

	// Open database
	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	defer database.Close()

	logger.WithFields(logrus.Fields{
		"db":     cfg.DB.Path,
		"emails": cfg.Emails.Path,
	}).Info("Database opened")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := parser.New().WithMaxDepth(cfg.Parser.MaxDepth)

	// Check if emails directory exists
	if _, err := os.Stat(cfg.Emails.Path); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.Emails.Path, 0755); err != nil {
			logger.WithError(err).Fatal("Failed to create emails directory")
		}
		logger.WithField("path", cfg.Emails.Path).
			Info("Created emails directory, place .eml files there and POST /scan")
	} else {
		// Index emails on startup
		idx := indexer.NewIndexer(database, p, cfg.Emails.Path, logger).
			WithConcurrency(cfg.Indexer.Workers).
			WithExtensions(cfg.Emails.Extensions...)
		result, err := idx.IndexAll(ctx)
		if err != nil {
			logger.WithError(err).Warn("Indexing failed")
		} else {
			logger.WithFields(logrus.Fields{
				"new":     result.NewIndexed,
				"skipped": result.Skipped,
				"failed":  result.Failed,
			}).Info("Indexing complete")
		}
	}

	h := handlers.New(database, cfg, p, logger)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // POST /scan answers once indexing finishes
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.WithField("url", cfg.URL()).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown error")
	}

	logger.Info("Server stopped")
}

// setupLogging configures logrus from the logging section. Development
// always logs text at debug level.
func setupLogging(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.IsDevelopment() {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" && !cfg.IsDevelopment() {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}
	return logger
}
