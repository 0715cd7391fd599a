// Command entryctl drives the models of a catalog file against DynamoDB.
//
// Usage:
//
//	entryctl -models models.yaml -model user get <id>
//	entryctl -models models.yaml -model user -data '{"name":"Ada"}' create [id]
//	entryctl -models models.yaml -model user -data '{"name":"Grace"}' update <id>
//	entryctl -models models.yaml -model user delete <id>
//	entryctl -models models.yaml -model user -index email-index -where '{"email":"ada@example.com"}' list
//
// A .env file in the working directory is loaded when present. With -endpoint,
// DynamoDB requests go to that endpoint (for example DynamoDB Local) using
// static credentials. EventBridge always uses the default credential chain.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jacentio/entrymodel/model"
	"github.com/jacentio/entrymodel/notify"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "entryctl: load .env: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Getenv("ENTRYCTL_DEBUG") != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "entryctl: init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	env := &environment{
		stdout:    os.Stdout,
		logger:    logger,
		newClient: newDynamoClient,
		newPublisher: func(ctx context.Context, opts options) (notify.EventBridgeAPI, error) {
			cfg, err := loadAWSConfig(ctx, publisherLoadOptions(opts)...)
			if err != nil {
				return nil, err
			}
			return eventbridge.NewFromConfig(cfg), nil
		},
	}

	if err := run(context.Background(), os.Args[1:], env); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// publisherLoadOptions returns the AWS config options for the EventBridge client.
func publisherLoadOptions(opts options) []func(*config.LoadOptions) error {
	var loadOpts []func(*config.LoadOptions) error
	if opts.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.region))
	}
	return loadOpts
}

// dynamoLoadOptions returns the AWS config options for the DynamoDB client.
// A local endpoint gets static credentials.
func dynamoLoadOptions(opts options) []func(*config.LoadOptions) error {
	loadOpts := publisherLoadOptions(opts)
	if opts.endpoint != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}
	return loadOpts
}

func loadAWSConfig(ctx context.Context, loadOpts ...func(*config.LoadOptions) error) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

func newDynamoClient(ctx context.Context, opts options) (model.Client, error) {
	cfg, err := loadAWSConfig(ctx, dynamoLoadOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.endpoint != "" {
			o.BaseEndpoint = aws.String(opts.endpoint)
		}
	}), nil
}
