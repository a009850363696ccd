// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newInitIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-index",
		Short: "Initialize the item index",
		Long:  "Connect to storage and create the index marker if it does not already exist. Safe to run repeatedly.",
		RunE:  runInitIndex,
	}
}

func runInitIndex(cmd *cobra.Command, _ []string) error {
	app, err := buildApp(configPath(cmd), viper.GetBool("verbose"), "")
	if err != nil {
		return err
	}
	defer app.close()

	created, err := app.index.Ensure(cmd.Context())
	if err != nil {
		return fmt.Errorf("ensuring index: %w", err)
	}

	out := cmd.OutOrStdout()
	if created {
		_, _ = fmt.Fprintln(out, "Index created.")
	} else {
		_, _ = fmt.Fprintln(out, "Index already exists.")
	}
	return nil
}
