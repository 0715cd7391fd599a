// Command entrystream is an AWS Lambda function that reports DynamoDB Stream
// records for catalog tables to the catalog's models.
//
// Environment:
//
//	MODELS_FILE     path to the catalog file (default models.yaml)
//	EVENT_BUS_NAME  EventBridge bus to publish to; overrides the catalog's eventBus
//	LOG_LEVEL       zap level (default info)
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jacentio/entrymodel/internal/catalog"
	"github.com/jacentio/entrymodel/model"
	"github.com/jacentio/entrymodel/notify"
	"github.com/jacentio/entrymodel/stream"
)

func main() {
	logger, err := newLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "entrystream: init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	handler, err := newHandler(context.Background(), logger)
	if err != nil {
		logger.Fatal("failed to initialize handler", zap.Error(err))
	}

	lambda.Start(handler.HandleEvent)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

func newHandler(ctx context.Context, logger *zap.Logger) (*stream.Handler, error) {
	path := os.Getenv("MODELS_FILE")
	if path == "" {
		path = "models.yaml"
	}
	file, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	bus := os.Getenv("EVENT_BUS_NAME")
	if bus == "" {
		bus = file.EventBus
	}

	callback := notify.Logger(logger)
	if bus != "" {
		publisher := notify.NewEventBridge(eventbridge.NewFromConfig(awsCfg), bus, logger)
		callback = model.Chain(callback, publisher.Callback())
	}

	registry, err := file.Build(dynamodb.NewFromConfig(awsCfg), callback)
	if err != nil {
		return nil, err
	}

	logger.Info("stream handler ready",
		zap.Int("models", len(registry.Models())),
		zap.String("eventBus", bus),
	)
	return stream.NewHandler(registry, logger), nil
}
