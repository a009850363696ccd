// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the tessera server",
		Long:  "Load configuration, connect to storage, ensure the index, and serve the HTTP API until interrupted.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	var listen string
	if cmd.Flags().Changed("listen") {
		listen, _ = cmd.Flags().GetString("listen")
	}

	app, err := buildApp(configPath(cmd), viper.GetBool("verbose"), listen)
	if err != nil {
		return err
	}
	defer app.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	created, err := app.index.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("ensuring index: %w", err)
	}
	if created {
		app.logger.Info("index created on startup")
	}

	app.logger.Info("starting tessera",
		"listen", app.cfg.Server.Listen,
		"backend", app.cfg.Storage.Backend,
	)

	return app.srv.Start(ctx)
}
