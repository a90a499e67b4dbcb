/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command earnup runs the earn-up backend as a local server or AWS Lambda function and
// bulk-loads todos.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	earnup "github.com/im-danwu/earn-up"
	"github.com/im-danwu/earn-up/config"
	"github.com/im-danwu/earn-up/logging"
)

// backendFactory assembles the backend once configuration and logging are ready.
type backendFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*earnup.Backend, error)

// app carries the state the subcommands share.
type app struct {
	configPath string
	envFiles   []string
	cfg        *config.Config
	logger     *zap.Logger
	newBackend backendFactory
}

func main() {
	if err := newRootCmd(func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*earnup.Backend, error) {
		return earnup.New(ctx, cfg, logger)
	}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(newBackend backendFactory) *cobra.Command {
	a := &app{newBackend: newBackend}

	cmd := &cobra.Command{
		Use:           "earnup",
		Short:         "earn-up todo and rewards backend",
		Long:          "earn-up: todos that earn points, rewards that spend them, stored in DynamoDB",
		Version:       earnup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "env files to load (default .env)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(a), newLambdaCmd(a), newImportCmd(a), newVersionCmd())
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFiles...)
	if err != nil {
		return err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}

	build := logging.New
	if cmd.Name() == "import" {
		build = logging.NewDevelopment
	}
	logger, err := build(cfg.LogLevel)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger.With(zap.String("command", cmd.Name()))
	return nil
}
