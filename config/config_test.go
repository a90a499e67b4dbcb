/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/im-danwu/earn-up/storagemodels"
)

var envKeys = []string{
	"LOG_LEVEL", "AWS_REGION", "DYNAMODB_ENDPOINT", "AWS_ACCESS_KEY", "AWS_SECRET_KEY",
	"TODOS_TABLE", "TODOS_INDEX", "TASK_LISTS_TABLE", "TASK_LISTS_INDEX",
	"REWARDS_TABLE", "REWARDS_INDEX", "ACCOUNTS_TABLE", "HTTP_ADDR", "CORS_ALLOWED_ORIGINS",
	"IS_OFFLINE", "BATCH_CHUNK_SIZE", "BATCH_MAX_ATTEMPTS", "BATCH_MAX_CONCURRENCY",
	"BATCH_BASE_DELAY", "BATCH_MAX_DELAY", "QUERY_PAGE_SIZE", "QUERY_MAX_RETRIES",
	"QUERY_RETRY_BACKOFF",
}

// clearEnv blanks every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, "Todos", cfg.Tables.Todos.Name)
	assert.Equal(t, 25, cfg.Batch.ChunkSize)
	assert.False(t, cfg.Offline)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "earnup.yaml", `
logLevel: debug
offline: true
tables:
  todos:
    name: todos-dev
    index: todos-dev-by-user
batch:
  chunkSize: 10
  maxAttempts: 3
  baseDelay: 20ms
  maxDelay: 1s
query:
  pageSize: 50
  retryBackoff: 1s
http:
  addr: ":9090"
  allowedOrigins: ["http://localhost:3000"]
`)

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Offline)
	assert.Equal(t, TableConfig{Name: "todos-dev", Index: "todos-dev-by-user"}, cfg.Tables.Todos)
	assert.Equal(t, "TaskLists", cfg.Tables.TaskLists.Name)
	assert.Equal(t, BatchConfig{ChunkSize: 10, MaxAttempts: 3, BaseDelay: 20 * time.Millisecond, MaxDelay: time.Second}, cfg.Batch)
	assert.Equal(t, QueryConfig{PageSize: 50, MaxRetries: 3, RetryBackoff: time.Second}, cfg.Query)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "earnup.yaml", "tables:\n  todos:\n    name: from-yaml\n")
	t.Setenv("TODOS_TABLE", "from-env")
	t.Setenv("TODOS_INDEX", "by-user")
	t.Setenv("IS_OFFLINE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("BATCH_MAX_ATTEMPTS", "0")
	t.Setenv("BATCH_BASE_DELAY", "5ms")
	t.Setenv("QUERY_PAGE_SIZE", "25")
	t.Setenv("QUERY_MAX_RETRIES", "0")
	t.Setenv("QUERY_RETRY_BACKOFF", "50ms")

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Tables.Todos.Name)
	assert.Equal(t, "by-user", cfg.Tables.Todos.Index)
	assert.True(t, cfg.Offline)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 0, cfg.Batch.MaxAttempts)
	assert.Equal(t, 5*time.Millisecond, cfg.Batch.BaseDelay)
	assert.Equal(t, QueryConfig{PageSize: 25, RetryBackoff: 50 * time.Millisecond}, cfg.Query)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	// Env files never replace a variable that is set, even to "".
	require.NoError(t, os.Unsetenv("REWARDS_TABLE"))
	envFile := writeFile(t, ".env", "REWARDS_TABLE=rewards-from-file\nACCOUNTS_TABLE=accounts-from-file\n")
	t.Setenv("ACCOUNTS_TABLE", "accounts-from-env")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "rewards-from-file", cfg.Tables.Rewards.Name)
	assert.Equal(t, "accounts-from-env", cfg.Tables.Accounts.Name)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{name: "BadBool", env: map[string]string{"IS_OFFLINE": "maybe"}},
		{name: "BadInt", env: map[string]string{"BATCH_CHUNK_SIZE": "many"}},
		{name: "BadDuration", env: map[string]string{"BATCH_MAX_DELAY": "soon"}},
		{name: "ChunkTooLarge", env: map[string]string{"BATCH_CHUNK_SIZE": "26"}},
		{name: "MaxBelowBase", env: map[string]string{"BATCH_BASE_DELAY": "2s", "BATCH_MAX_DELAY": "1s"}},
		{name: "PageTooLarge", env: map[string]string{"QUERY_PAGE_SIZE": "1001"}},
		{name: "NegativeRetries", env: map[string]string{"QUERY_MAX_RETRIES": "-1"}},
		{name: "BadBackoff", env: map[string]string{"QUERY_RETRY_BACKOFF": "later"}},
		{name: "UnknownLogLevel", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "BadEndpoint", env: map[string]string{"DYNAMODB_ENDPOINT": "not a url"}},
		{name: "BadYAML", yaml: "tables: [\n"},
		{name: "EmptyTableName", yaml: "tables:\n  rewards:\n    name: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, "earnup.yaml", tt.yaml)
			}
			_, err := Load(path, noEnvFile(t))
			assert.Error(t, err)
		})
	}

	t.Run("MissingFile", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnvFile(t))
		assert.Error(t, err)
	})
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Offline = true
	cfg.AWS.Endpoint = "http://localhost:8001"
	cfg.Batch.MaxConcurrency = 4

	client := cfg.ClientOptions()
	assert.True(t, client.Offline)
	assert.Equal(t, "http://localhost:8001", client.Endpoint)
	assert.Equal(t, "us-east-1", client.Region)

	opts := storagemodels.DefaultBatchOptions()
	for _, opt := range cfg.BatchOptions() {
		opt(&opts)
	}
	assert.Equal(t, 4, opts.MaxConcurrency)
	assert.Equal(t, 25, opts.ChunkSize)
	assert.Equal(t, 8, opts.MaxAttempts)

	cfg.Query.PageSize = 40
	stream := storagemodels.DefaultStreamOptions()
	for _, opt := range cfg.StreamOptions() {
		opt(&stream)
	}
	assert.Equal(t, int32(40), stream.PageSize)
	assert.Equal(t, 3, stream.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, stream.RetryBackoff)
}
