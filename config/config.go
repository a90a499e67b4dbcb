/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads earn-up configuration from defaults, an optional YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/im-danwu/earn-up/datastore/ddb"
	"github.com/im-danwu/earn-up/storagemodels"
)

// Config holds all application configuration
type Config struct {
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	// Offline targets DynamoDB Local and trusts unverified bearer tokens.
	Offline bool        `yaml:"offline"`
	AWS     AWSConfig   `yaml:"aws"`
	Tables  Tables      `yaml:"tables"`
	Batch   BatchConfig `yaml:"batch"`
	Query   QueryConfig `yaml:"query"`
	HTTP    HTTPConfig  `yaml:"http"`
}

// AWSConfig selects the DynamoDB endpoint and credentials.
type AWSConfig struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// TableConfig names a table and its user index.
type TableConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Index string `yaml:"index"`
}

// Tables holds the table of every entity.
type Tables struct {
	Todos     TableConfig `yaml:"todos"`
	TaskLists TableConfig `yaml:"taskLists"`
	Rewards   TableConfig `yaml:"rewards"`
	Accounts  TableConfig `yaml:"accounts"`
}

// BatchConfig tunes bulk writes.
type BatchConfig struct {
	ChunkSize      int           `yaml:"chunkSize" validate:"gte=1,lte=25"`
	MaxAttempts    int           `yaml:"maxAttempts"`
	BaseDelay      time.Duration `yaml:"baseDelay" validate:"gte=0"`
	MaxDelay       time.Duration `yaml:"maxDelay" validate:"gtefield=BaseDelay"`
	MaxConcurrency int           `yaml:"maxConcurrency" validate:"gte=0"`
}

// QueryConfig tunes list reads.
type QueryConfig struct {
	PageSize     int           `yaml:"pageSize" validate:"gte=0,lte=1000"`
	MaxRetries   int           `yaml:"maxRetries" validate:"gte=0"`
	RetryBackoff time.Duration `yaml:"retryBackoff" validate:"gte=0"`
}

// HTTPConfig configures the local server.
type HTTPConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	defaults := storagemodels.DefaultBatchOptions()
	stream := storagemodels.DefaultStreamOptions()
	return Config{
		LogLevel: "info",
		AWS:      AWSConfig{Region: "us-east-1"},
		Tables: Tables{
			Todos:     TableConfig{Name: "Todos", Index: "TodosByUserIndex"},
			TaskLists: TableConfig{Name: "TaskLists", Index: "TaskListsByUserIndex"},
			Rewards:   TableConfig{Name: "Rewards", Index: "RewardsByUserIndex"},
			Accounts:  TableConfig{Name: "Accounts"},
		},
		Batch: BatchConfig{
			ChunkSize:      defaults.ChunkSize,
			MaxAttempts:    defaults.MaxAttempts,
			BaseDelay:      defaults.BaseDelay,
			MaxDelay:       defaults.MaxDelay,
			MaxConcurrency: defaults.MaxConcurrency,
		},
		Query: QueryConfig{
			PageSize:     int(stream.PageSize),
			MaxRetries:   stream.MaxRetries,
			RetryBackoff: stream.RetryBackoff,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load builds the configuration. path names an optional YAML file; envFiles default to
// ".env". Missing env files are ignored. Variables already set in the environment win
// over env files.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.AWS.Region, "AWS_REGION")
	setString(&c.AWS.Endpoint, "DYNAMODB_ENDPOINT")
	setString(&c.AWS.AccessKey, "AWS_ACCESS_KEY")
	setString(&c.AWS.SecretKey, "AWS_SECRET_KEY")
	setString(&c.Tables.Todos.Name, "TODOS_TABLE")
	setString(&c.Tables.Todos.Index, "TODOS_INDEX")
	setString(&c.Tables.TaskLists.Name, "TASK_LISTS_TABLE")
	setString(&c.Tables.TaskLists.Index, "TASK_LISTS_INDEX")
	setString(&c.Tables.Rewards.Name, "REWARDS_TABLE")
	setString(&c.Tables.Rewards.Index, "REWARDS_INDEX")
	setString(&c.Tables.Accounts.Name, "ACCOUNTS_TABLE")
	setString(&c.HTTP.Addr, "HTTP_ADDR")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.HTTP.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.HTTP.AllowedOrigins = append(c.HTTP.AllowedOrigins, origin)
			}
		}
	}

	if err := setBool(&c.Offline, "IS_OFFLINE"); err != nil {
		return err
	}
	for _, f := range []struct {
		dst *int
		key string
	}{
		{&c.Batch.ChunkSize, "BATCH_CHUNK_SIZE"},
		{&c.Batch.MaxAttempts, "BATCH_MAX_ATTEMPTS"},
		{&c.Batch.MaxConcurrency, "BATCH_MAX_CONCURRENCY"},
		{&c.Query.PageSize, "QUERY_PAGE_SIZE"},
		{&c.Query.MaxRetries, "QUERY_MAX_RETRIES"},
	} {
		if err := setInt(f.dst, f.key); err != nil {
			return err
		}
	}
	if err := setDuration(&c.Batch.BaseDelay, "BATCH_BASE_DELAY"); err != nil {
		return err
	}
	if err := setDuration(&c.Query.RetryBackoff, "QUERY_RETRY_BACKOFF"); err != nil {
		return err
	}
	return setDuration(&c.Batch.MaxDelay, "BATCH_MAX_DELAY")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !c.Offline && c.AWS.Region == "" {
		return errors.New("invalid configuration: AWS region is required unless offline")
	}
	return nil
}

// ClientOptions returns the DynamoDB client settings.
func (c *Config) ClientOptions() ddb.ClientOptions {
	return ddb.ClientOptions{
		Region:    c.AWS.Region,
		Endpoint:  c.AWS.Endpoint,
		Offline:   c.Offline,
		AccessKey: c.AWS.AccessKey,
		SecretKey: c.AWS.SecretKey,
	}
}

// BatchOptions returns the bulk write settings.
func (c *Config) BatchOptions() []storagemodels.BatchOption {
	return []storagemodels.BatchOption{
		storagemodels.WithChunkSize(c.Batch.ChunkSize),
		storagemodels.WithMaxAttempts(c.Batch.MaxAttempts),
		storagemodels.WithBaseDelay(c.Batch.BaseDelay),
		storagemodels.WithMaxDelay(c.Batch.MaxDelay),
		storagemodels.WithMaxConcurrency(c.Batch.MaxConcurrency),
	}
}

// StreamOptions returns the paging and retry settings of list reads.
func (c *Config) StreamOptions() []storagemodels.StreamOption {
	return []storagemodels.StreamOption{
		storagemodels.WithPageSize(int32(c.Query.PageSize)),
		storagemodels.WithMaxRetries(c.Query.MaxRetries),
		storagemodels.WithRetryBackoff(c.Query.RetryBackoff),
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
