package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nearlight/nearlight/config"
	"github.com/nearlight/nearlight/libs/log"
	"github.com/nearlight/nearlight/light"
	"github.com/nearlight/nearlight/light/store"
)

// MakeShowCommand returns the command that prints a stored checkpoint.
func MakeShowCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var height uint64

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the trusted checkpoint as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openLightEnv(conf, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			var cp *light.Checkpoint
			if height > 0 {
				cp, err = env.store.Checkpoint(height)
				if errors.Is(err, store.ErrCheckpointNotFound) {
					return fmt.Errorf("no checkpoint stored at height %d", height)
				}
			} else {
				cp, err = env.store.LastCheckpoint()
			}
			if err != nil {
				return err
			}
			if cp == nil {
				return errors.New("no trusted checkpoint (run init first)")
			}

			bz, err := marshalCheckpoint(*cp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&height, "height", 0, "show the stored checkpoint at this height instead of the latest")
	return cmd
}
