package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	blockchain "tripledger/blockchain/client"
	"tripledger/config"
	"tripledger/ingestion/source"
	grpchandler "tripledger/ingestion/service/grpc"
	httphandler "tripledger/ingestion/service/http"
	"tripledger/internal/messaging/producer"
	"tripledger/internal/models"
	"tripledger/ledger/store"
	"tripledger/processing"
)

const defaultConfigDir = "./config"

func main() {
	logger := log.New(os.Stdout, "[ENGINE] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting Audit Engine...")

	configDir := os.Getenv("TRIPLEDGER_CONFIG_DIR")
	if configDir == "" {
		configDir = defaultConfigDir
	}

	// 1. Load configuration
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if cfg.Engine == nil {
		logger.Fatalf("FATAL: %s not found in %s", config.EngineFile, configDir)
	}
	engineCfg := cfg.Engine

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Ledger and record builder
	builder := processing.NewBuilder(store.NewMemoryStore(), cfg.EmissionFactors, processing.Options{
		RootScheme:                 engineCfg.Ledger.RootScheme,
		Concurrency:                engineCfg.Worker.Concurrency,
		SimulationEnabled:          engineCfg.Simulation.Enabled,
		ResetViolationsOnReprocess: engineCfg.Ledger.ResetViolationsOnReprocess,
	}, logger)

	logger.Printf("Initializing %s trip source...", engineCfg.Source.Type)
	src, err := source.New(ctx, engineCfg, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize trip source: %v", err)
	}
	defer src.Close()
	builder.SetSource(src)

	// 3. Optional on-chain anchoring of sealed roots
	if cfg.Blockchain != nil {
		logger.Println("Initializing blockchain client using configuration files...")
		bcClient, err := blockchain.NewAnchorClient(cfg.Blockchain, logger)
		if err != nil {
			logger.Fatalf("FATAL: Failed to initialize blockchain client: %v", err)
		}
		defer bcClient.Close()
		builder.SetAnchorer(processing.NewAnchorer(bcClient, engineCfg.Anchor, logger))
	} else {
		logger.Println("blockchain_client_config_path not configured, anchoring disabled.")
	}

	// 4. Optional violation forwarding to Kafka
	if engineCfg.ViolationProducer.Enabled() {
		logger.Println("Initializing violation forwarder...")
		kafkaProducer, err := producer.NewKafkaProducer(engineCfg.ViolationProducer, logger)
		if err != nil {
			logger.Fatalf("FATAL: Failed to initialize Kafka producer: %v", err)
		}
		defer kafkaProducer.Close()
		forwarder := producer.NewBatchPublisher(engineCfg.ViolationForwarder, kafkaProducer, logger)
		defer forwarder.Close() // runs before the producer closes
		builder.SetViolationHandler(func(v models.ViolationRecord) {
			if !forwarder.Submit(producer.Message{Key: v.AuditID, Value: v}) {
				logger.Printf("Warning: violation for audit %s field %s was not forwarded", v.AuditID, v.Field)
			}
		})
	}

	var wg sync.WaitGroup

	// 5. [Conditional startup] gRPC health server
	var grpcServer *grpchandler.Server
	if engineCfg.GrpcListenAddr != "" {
		lis, err := net.Listen("tcp", engineCfg.GrpcListenAddr)
		if err != nil {
			logger.Fatalf("Unable to listen on gRPC port %s: %v", engineCfg.GrpcListenAddr, err)
		}
		grpcServer = grpchandler.NewServer(logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := grpcServer.Serve(lis); err != nil {
				logger.Fatalf("gRPC server startup failed: %v", err)
			}
			logger.Println("gRPC server stopped listening.")
		}()
	} else {
		logger.Println("grpc_listen_addr not configured, skipping gRPC server startup.")
	}
	markServing := func(*processing.ProcessResult) {
		if grpcServer != nil {
			grpcServer.SetServing(true)
		}
	}

	// 6. Initial run so the ledger is populated at startup
	if res, err := builder.Run(ctx); err != nil {
		logger.Printf("Initial processing run failed, waiting for POST /automation/process-all-data: %v", err)
	} else {
		logger.Printf("Initial processing run sealed %d records", len(res.AuditRecords))
		markServing(res)
	}

	// 7. [Conditional startup] HTTP server
	var httpServer *http.Server
	if engineCfg.HttpListenAddr != "" {
		handler := httphandler.NewAuditHandler(builder, engineCfg.Monitoring.HealthCheckPath, logger)
		handler.SetAfterRun(markServing)
		httpServer = &http.Server{
			Addr:           engineCfg.HttpListenAddr,
			Handler:        handler.Routes(),
			ReadTimeout:    engineCfg.HttpServer.ReadTimeout,
			WriteTimeout:   engineCfg.HttpServer.WriteTimeout,
			IdleTimeout:    engineCfg.HttpServer.IdleTimeout,
			MaxHeaderBytes: engineCfg.HttpServer.MaxHeaderBytes,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Printf("HTTP server listening on %s", engineCfg.HttpListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("HTTP server startup failed: %v", err)
			}
			logger.Println("HTTP server stopped listening.")
		}()
	} else {
		logger.Println("http_listen_addr not configured, skipping HTTP server startup.")
	}

	logger.Println("Audit Engine started. Press Ctrl+C to stop.")

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, initiating graceful shutdown...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		logger.Println("Shutting down HTTP server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP server shutdown failed: %v", err)
		}
	}
	if grpcServer != nil {
		logger.Println("Shutting down gRPC server...")
		grpcServer.GracefulStop()
	}

	wg.Wait()
	logger.Println("Audit Engine shut down gracefully.")
}
