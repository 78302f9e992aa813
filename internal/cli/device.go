package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ytakahashi/device-tasks/internal/device"
)

func newDeviceIDCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "device-id",
		Short: "Print this installation's device identifier and where it came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			var res device.Resolution
			a, err := openApp(cmd.Context(), cfg, device.WithObserver(func(r device.Resolution) { res = r }))
			if err != nil {
				return err
			}
			defer a.Close()

			id := a.resolver.Resolve(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, res.Source)
			return nil
		},
	}
}

