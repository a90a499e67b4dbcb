/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/im-danwu/earn-up/models"
)

func newImportCmd(a *app) *cobra.Command {
	var userID, file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-create todos for a user from a YAML file",
		Example: `  # todos.yaml:
  # items:
  #   - name: water plants
  #     dueDate: 2024-06-02
  #     points: 5
  earnup import --user 6f1c --file todos.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			var req models.CreateTodosRequest
			if err := yaml.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("failed to parse %s: %w", file, err)
			}

			backend, err := a.newBackend(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			items, err := backend.Services.Todos.CreateMany(cmd.Context(), userID, req)
			if err != nil {
				return err
			}

			a.logger.Info("Imported todos", zap.String("userId", userID), zap.Int("items", len(items)))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d todos for %s\n", len(items), userID)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner of the imported todos")
	cmd.Flags().StringVar(&file, "file", "", "YAML file with an items list")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
