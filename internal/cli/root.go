// Package cli implements the tasksync command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ytakahashi/device-tasks/internal/config"
)

// NewRootCmd builds the command tree. Settings resolve through a fresh
// viper instance so each tree is independent.
func NewRootCmd(version string) *cobra.Command {
	v := config.New()
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tasksync",
		Short: "Device-scoped task list synchronized with a shared document store",
		Long: `tasksync keeps a short list of text tasks for this device, cached locally
and synchronized with a shared remote document store.

Run without a command to print the locally cached list.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tasksync/config.yaml)")
	flags.String("project", "", "Firestore project id")
	flags.String("collection", "", "remote collection name")
	flags.String("remote", "", "remote backend: firestore or memory")
	flags.String("local", "", "local backend: sqlite or memory")
	flags.String("data-dir", "", "directory for the local database")
	for _, name := range []string{"project", "collection", "remote", "local"} {
		v.BindPFlag(name, flags.Lookup(name))
	}
	v.BindPFlag("data_dir", flags.Lookup("data-dir"))

	loadConfig := func() (*config.Config, error) {
		return config.Load(v, configPath)
	}

	listCmd := newListCmd(loadConfig)
	rootCmd.RunE = listCmd.RunE

	rootCmd.AddCommand(newServeCmd(v, loadConfig))
	rootCmd.AddCommand(newAddCmd(loadConfig))
	rootCmd.AddCommand(newRmCmd(loadConfig))
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(newSyncCmd(loadConfig))
	rootCmd.AddCommand(newWatchCmd(loadConfig))
	rootCmd.AddCommand(newDeviceIDCmd(loadConfig))
	return rootCmd
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context, version string) error {
	return NewRootCmd(version).ExecuteContext(ctx)
}

type configLoader func() (*config.Config, error)

// withApp loads config, opens the stores and runs fn.
func withApp(cmd *cobra.Command, load configLoader, fn func(ctx context.Context, a *app) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
