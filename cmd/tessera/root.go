// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tessera-dev/tessera/internal/config"
	tesserr "github.com/tessera-dev/tessera/pkg/errors"
)

// NewRootCmd creates the root tessera command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tessera",
		Short:         "Tessera, a semantic knowledge item store",
		Long:          "Tessera stores short-lived knowledge items in Redis and retrieves them by key, substring, or embedding similarity.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags, mapped to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newStartCmd(),
		newInitIndexCmd(),
		newStatusCmd(),
		newSecretCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return tesserr.Errorf(tesserr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// Auto-discover tessera.yaml from standard locations.
		// Note: SetConfigType is intentionally omitted. When set, Viper
		// falls back to trying the bare config name without extension,
		// which collides with the ./tessera binary in the project root.
		v.SetConfigName("tessera")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tessera")
		v.AddConfigPath("/etc/tessera")
		// No config file is fine, defaults and env vars still apply.
		// Parse or permission errors must surface.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return tesserr.Errorf(tesserr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			// No config found anywhere. Bootstrap a default to ~/.config/tessera/.
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return tesserr.Errorf(tesserr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return tesserr.Errorf(tesserr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	return nil
}

// configPath returns the config file the global viper ended up using,
// or the explicit --config value.
func configPath(cmd *cobra.Command) string {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		return cfgFile
	}
	return viper.ConfigFileUsed()
}
