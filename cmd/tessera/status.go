// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long:  "Check the running server's status endpoint and display storage and index state.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", "127.0.0.1:8790", "server address to check")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	sc := newServerClient(addr)
	var body struct {
		Status      string `json:"status"`
		Store       string `json:"store"`
		IndexExists bool   `json:"index_exists"`
	}
	if err := sc.getJSON("/api/v1/status", &body); err != nil {
		if tesserr.HasCode(err, tesserr.CodeCLIServerNotRunning) {
			_, _ = fmt.Fprintf(out, "Server at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Server at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Server at %s: %s (store: %s, index: %t)\n",
		addr, body.Status, body.Store, body.IndexExists)
	return nil
}
