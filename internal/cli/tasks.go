package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ytakahashi/device-tasks/internal/screen"
	"github.com/ytakahashi/device-tasks/internal/services"
)

func newAddCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Create a task",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if strings.TrimSpace(title) == "" {
				return services.ErrEmptyTitle
			}
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				task, err := a.tasks.Create(ctx, title)
				if err != nil {
					return fmt.Errorf("failed to add task: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), task.ID)
				return nil
			})
		},
	}
}

func newRmCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task by id",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				if err := a.tasks.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete task: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}

func newListCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the locally cached tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				tasks, err := a.tasks.LocalTasks(ctx)
				if err != nil {
					return err
				}
				screen.Render(cmd.OutOrStdout(), screen.State{Tasks: tasks})
				return nil
			})
		},
	}
}

func newSyncCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge the local cache with the remote store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				tasks, err := a.tasks.Sync(ctx)
				if err != nil {
					return fmt.Errorf("failed to sync: %w", err)
				}
				screen.Render(cmd.OutOrStdout(), screen.State{Tasks: tasks})
				return nil
			})
		},
	}
}

func newWatchCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the task list on every remote change until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				sub := a.tasks.Subscribe(ctx)
				defer sub.Cancel()

				for tasks := range sub.Updates() {
					screen.Render(cmd.OutOrStdout(), screen.State{Tasks: tasks})
				}
				if err := sub.Err(); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
}
