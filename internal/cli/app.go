package cli

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/ytakahashi/device-tasks/internal/config"
	"github.com/ytakahashi/device-tasks/internal/device"
	"github.com/ytakahashi/device-tasks/internal/kv"
	"github.com/ytakahashi/device-tasks/internal/remote"
	"github.com/ytakahashi/device-tasks/internal/services"
)

// app holds the constructed stores and the task service for one command.
type app struct {
	cfg      *config.Config
	local    kv.Store
	remote   remote.Store
	resolver *device.Resolver
	tasks    *services.TaskService
}

func openApp(ctx context.Context, cfg *config.Config, opts ...device.Option) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	local, err := openLocal(cfg)
	if err != nil {
		return nil, err
	}

	rs, err := openRemote(ctx, cfg)
	if err != nil {
		local.Close()
		return nil, err
	}

	resolver := device.NewResolver(local, device.NewMachineID(), opts...)
	return &app{
		cfg:      cfg,
		local:    local,
		remote:   rs,
		resolver: resolver,
		tasks:    services.NewTaskService(rs, local, resolver),
	}, nil
}

func openLocal(cfg *config.Config) (kv.Store, error) {
	switch cfg.Local {
	case config.BackendMemory:
		return kv.NewMemory(), nil
	default:
		return kv.NewSQLite(cfg.DBPath())
	}
}

func openRemote(ctx context.Context, cfg *config.Config) (remote.Store, error) {
	switch cfg.Remote {
	case config.BackendMemory:
		return remote.NewMemory(), nil
	default:
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		return remote.NewFirestore(ctx, cfg.Project, cfg.Collection, opts...)
	}
}

func (a *app) Close() error {
	remoteErr := a.remote.Close()
	localErr := a.local.Close()
	if remoteErr != nil {
		return fmt.Errorf("failed to close remote store: %w", remoteErr)
	}
	if localErr != nil {
		return fmt.Errorf("failed to close local store: %w", localErr)
	}
	return nil
}
