// filename: cmd/dataserver/main.go
// Attack Map Data Server - Entry Point

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attackmap/dataserver/internal/common/config"
	"github.com/attackmap/dataserver/internal/common/es"
	"github.com/attackmap/dataserver/internal/common/logging"
	"github.com/attackmap/dataserver/internal/common/nats"
	"github.com/attackmap/dataserver/internal/common/redis"
	"github.com/attackmap/dataserver/internal/dataserver"
	"github.com/attackmap/dataserver/internal/status"
)

const version = "2.2.6"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		panic(err)
	}
	logger.WithField("version", version).Info("Starting Attack Map Data Server")

	// Initialize search backend client
	esClient, err := es.NewClient(es.Config{
		Addresses:  cfg.Search.Addresses,
		Index:      cfg.Search.Index,
		Username:   cfg.Search.Username,
		Password:   cfg.Search.Password,
		Timeout:    cfg.Search.Timeout,
		EventTypes: cfg.Search.EventTypes,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize search client")
	}

	// Initialize publish sink
	sink, err := buildSink(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize publish sink")
	}
	defer sink.Close()
	logger.WithChannel(sink.Channel()).WithField("kind", cfg.Sink.Kind).Info("Publish sink connected")

	// Build port classifier
	classifier, err := buildClassifier(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build port classifier")
	}

	sanitizer, err := dataserver.NewSanitizer(cfg.Sanitizer)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build sanitizer")
	}

	// Assemble the pipeline
	state := dataserver.NewAggregateState()
	poller := dataserver.NewPoller(esClient, dataserver.NewNormalizer(classifier), cfg.Poller, logger)
	publisher := dataserver.NewPublisher(state, sanitizer, sink, cfg.Console.Enabled, logger)
	service := dataserver.NewService(cfg, poller, publisher, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional status server
	var statusServer *status.Server
	if cfg.Status.Enabled {
		statusServer = status.NewServer(cfg.Status, state, esClient, sink, logger)
		go func() {
			if err := statusServer.Start(); err != nil {
				logger.WithError(err).Error("Status server error")
			}
		}()
	}

	go func() {
		if err := service.Start(ctx); err != nil {
			logger.WithError(err).Error("Data server error")
			cancel()
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down Data Server")
	cancel()
	service.Stop()

	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := statusServer.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to stop status server")
		}
	}
}

// buildSink создает publish-клиент по виду канала из конфигурации
func buildSink(cfg *config.Config) (dataserver.Sink, error) {
	switch cfg.Sink.Kind {
	case "redis":
		return redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		}, cfg.Sink.Channel), nil
	case "nats":
		return nats.NewClient(nats.Config{
			URLs:     cfg.NATS.URLs,
			ClientID: cfg.NATS.ClientID,
			Timeout:  cfg.NATS.Timeout,
		}, cfg.Sink.Channel)
	default:
		return nil, fmt.Errorf("unsupported sink kind: %s", cfg.Sink.Kind)
	}
}

// buildClassifier загружает таблицу портов из файла, если он задан
func buildClassifier(cfg *config.Config) (*dataserver.Classifier, error) {
	if cfg.Classifier.TableFile != "" {
		return dataserver.NewClassifierFromFile(cfg.Classifier.TableFile)
	}
	return dataserver.NewClassifier(), nil
}
