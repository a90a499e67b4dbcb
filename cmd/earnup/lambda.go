/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLambdaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run as an API Gateway HTTP API Lambda function",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			backend, err := a.newBackend(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			adapter := chiadapter.NewV2(backend.Router())
			a.logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(start)))

			lambda.Start(adapter.ProxyWithContextV2)
			return nil
		},
	}
}
