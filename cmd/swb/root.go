// root.go: Command tree of the swb binary
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/agilira/swb"
)

// screenFactory creates the terminal screen; tests replace it with a
// simulation screen.
var screenFactory = tcell.NewScreen

func newRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "swb",
		Short: "swb - a minimal tabbed browser shell driven by plugins",
		Long: `swb is a minimal tabbed browser shell. The shell only provides tabs and
an empty navigation bar; buttons, address entry and content filters come from
plugins listed in plugins.txt.

Plugins are looked up in $XDG_CONFIG_HOME/swb/plugins (or ~/.config/swb/plugins)
and then in the current directory.`,
		Version:       fmt.Sprintf("%s (plugin contract v%d)", version, swb.HostMajorVersion),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: runBrowser,
	}

	rootCmd.AddCommand(newPluginsCommand())
	rootCmd.AddCommand(newAllowlistCommand())
	rootCmd.AddCommand(newVersionCommand(version))
	return rootCmd
}

func runBrowser(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, cfgPath, cfgErr := swb.LoadHostConfig(nil)

	logger, syncLog, logErr := newUILogger(cfg.Log, nil)
	defer syncLog()
	if logErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "swb: logging disabled: %v\n", logErr)
	}
	if cfgErr != nil {
		logger.Warn("Using default configuration", "path", cfgPath, "error", cfgErr)
	}

	screen, err := screenFactory()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	return browse(ctx, screen, cfg, logger)
}

// browse loads the plugins, runs the UI until it exits and unloads them.
// Plugin failures are logged and never make browse fail.
func browse(ctx context.Context, screen tcell.Screen, cfg swb.HostConfig, logger swb.Logger) error {
	ctx = swb.ContextWithLogger(ctx, logger)
	registry, plan := swb.StartPlugins(ctx, cfg, nil, nil)
	defer registry.Shutdown()

	app := NewApp(screen, cfg, registry, logger)

	if cfg.WatchManifest {
		watcher := swb.NewManifestWatcher(plan.ManifestDirs(), cfg.ManifestName, cfg.ManifestPollInterval.Std(), logger,
			func(change swb.ManifestChange) {
				app.Notify(fmt.Sprintf("%s changed; restart swb to apply", change.Path))
			})
		if err := watcher.Start(); err != nil {
			logger.Warn("Manifest watching disabled", "error", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	return app.Run(ctx)
}

func newPluginsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "Show which plugins would load and why others would not",
		Long: `plugins runs the plugin startup sequence without opening the browser:
it resolves the plugin directories, reads plugins.txt, loads every listed
plugin, prints the outcome for each and unloads them again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, cfgErr := swb.LoadHostConfig(nil)
			if cfgErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "swb: using default configuration: %v\n", cfgErr)
			}
			return printPlugins(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}

func printPlugins(ctx context.Context, w io.Writer, cfg swb.HostConfig) error {
	registry, plan := swb.StartPlugins(ctx, cfg, nil, swb.NewNoOpLogger())
	defer registry.Shutdown()

	_, err := fmt.Fprintln(w, renderReport(plan, registry.Report()))
	return err
}

func newAllowlistCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "allowlist",
		Short: "Write an allowlist authorizing the currently listed plugins",
		Long: `allowlist hashes the module file of every plugin listed in plugins.txt
and prints an allowlist for security.policy permissive or strict. Modules are
not opened. Use --output to write the file, usually
$XDG_CONFIG_HOME/swb/allowlist.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, cfgErr := swb.LoadHostConfig(nil)
			if cfgErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "swb: using default configuration: %v\n", cfgErr)
			}
			return writeAllowlist(cmd.OutOrStdout(), cfg, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the allowlist to this file instead of stdout")
	return cmd
}

func writeAllowlist(w io.Writer, cfg swb.HostConfig, output string) error {
	loader := swb.NewLoader(cfg.LoaderOptions()...)
	plan := swb.PlanLoad(nil, swb.LocalPluginDir, cfg.ManifestName, loader.Patterns(), swb.NewNoOpLogger())

	allowlist, err := swb.NewAllowlist(plan.ResolvedPaths())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(allowlist, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("failed to write allowlist: %w", err)
	}
	_, err = fmt.Fprintf(w, "%d plugins written to %s\n", len(allowlist.Plugins), output)
	return err
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the host and plugin contract versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "swb %s\nplugin contract major version %d\nplugin suffix %s\n",
				version, swb.HostMajorVersion, swb.PlatformModuleSuffix())
			return err
		},
	}
}
