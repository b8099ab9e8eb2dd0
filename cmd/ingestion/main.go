package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tripledger/config"
	core "tripledger/ingestion/service/core"
	httphandler "tripledger/ingestion/service/http"
	"tripledger/ingestion/source"
	"tripledger/internal/messaging/producer"
)

// Trip feeder configuration file path
const ingestionConfigPath = "./config/" + config.IngestionFile

func main() {
	logger := log.New(os.Stdout, "[FEEDER] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Trip Feeder...")

	// 1. Load configuration
	cfg, err := config.LoadIngestionConfig(ingestionConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load trip feeder configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Kafka producer behind the batch publisher
	logger.Println("Initializing Kafka producer...")
	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaProducer, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize Kafka producer: %v", err)
	}
	defer kafkaProducer.Close()

	publisher := producer.NewBatchPublisher(cfg.BatchProcessor, kafkaProducer, logger)
	svc := core.NewService(publisher, logger)

	// 3. Publish the supplier telemetry file, if present
	if _, err := os.Stat(cfg.DataFilePath); err == nil {
		doc, err := source.ReadSupplierFile(cfg.DataFilePath)
		if err != nil {
			logger.Fatalf("Failed to read supplier data: %v", err)
		}
		n, err := svc.SubmitFile(ctx, doc)
		if err != nil {
			logger.Printf("Stopped after %d trips from %s: %v", n, filepath.Base(cfg.DataFilePath), err)
		}
	} else {
		logger.Printf("Data file %s not found, skipping file publish.", cfg.DataFilePath)
	}

	if cfg.HttpListenAddr == "" {
		publisher.Close()
		published, dropped := publisher.Stats()
		logger.Printf("Trip Feeder done: %d published, %d dropped.", published, dropped)
		return
	}

	// 4. Keep accepting trips over HTTP
	httpServer := &http.Server{
		Addr:           cfg.HttpListenAddr,
		Handler:        httphandler.NewTripHandler(svc, logger).Routes(),
		ReadTimeout:    cfg.HttpServer.ReadTimeout,
		WriteTimeout:   cfg.HttpServer.WriteTimeout,
		IdleTimeout:    cfg.HttpServer.IdleTimeout,
		MaxHeaderBytes: cfg.HttpServer.MaxHeaderBytes,
	}
	go func() {
		logger.Printf("HTTP server listening on %s", cfg.HttpListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server startup failed: %v", err)
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, starting graceful shutdown of Trip Feeder...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server shutdown failed: %v", err)
	}

	// Flush what is still buffered before the producer closes
	publisher.Close()
	published, dropped := publisher.Stats()
	logger.Printf("Trip Feeder shut down: %d published, %d dropped.", published, dropped)
}
