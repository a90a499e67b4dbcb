/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// BatchWriteClient is the part of the DynamoDB API the BatchWriter needs.
type BatchWriteClient interface {
	BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error)
}

// Client mirrors the methods of *dynamodb.Client used by the datastores, so that tests
// can substitute an in-memory implementation.
type Client interface {
	BatchWriteClient
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
}

var _ Client = (*sdk.Client)(nil)

// Offline defaults match a DynamoDB Local instance started next to the API.
const (
	OfflineEndpoint  = "http://localhost:8000"
	OfflineRegion    = "localhost"
	offlineAccessKey = "MOCK_ACCESS_KEY_ID"
	offlineSecretKey = "MOCK_SECRET_ACCESS_KEY"
)

// ClientOptions selects where the DynamoDB client connects.
type ClientOptions struct {
	Region string
	// Endpoint overrides the service endpoint (DynamoDB Local). Empty uses AWS.
	Endpoint string
	// Offline targets DynamoDB Local with static mock credentials.
	Offline bool
	// AccessKey and SecretKey, when both set, replace the default credential chain.
	AccessKey string
	SecretKey string
}

// NewDynamoDBClient initializes a DynamoDB client.
func NewDynamoDBClient(ctx context.Context, opts ClientOptions, logger *zap.Logger) (*sdk.Client, error) {
	if opts.Offline {
		if opts.Endpoint == "" {
			opts.Endpoint = OfflineEndpoint
		}
		if opts.Region == "" {
			opts.Region = OfflineRegion
		}
		if opts.AccessKey == "" || opts.SecretKey == "" {
			opts.AccessKey, opts.SecretKey = offlineAccessKey, offlineSecretKey
		}
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	logger.Info("DynamoDB client initialized",
		zap.String("region", opts.Region),
		zap.String("endpoint", opts.Endpoint),
		zap.Bool("offline", opts.Offline))
	return client, nil
}
