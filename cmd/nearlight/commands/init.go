package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nearlight/nearlight/config"
	"github.com/nearlight/nearlight/libs/log"
	tmos "github.com/nearlight/nearlight/libs/os"
	"github.com/nearlight/nearlight/light"
)

// MakeInitCommand returns the command that bootstraps the trusted store from
// a checkpoint file.
func MakeInitCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init [checkpoint.json]",
		Short: "Initialize the trusted store from a checkpoint",
		Long: `Initialize the trusted store from a checkpoint.

The checkpoint is read from the given file, or from trusted_checkpoint_file
in the config. It is the subjective starting point of the client and is
trusted as is. A file written by export resumes a client with its block
accumulator; a file with only header, current_bps and next_bps starts a new
accumulator at that header.

If the store already holds a checkpoint at or above the given one, the
stored one is kept.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := conf.Light.TrustedCheckpointFile()
			if len(args) == 1 {
				path = args[0]
			}

			cp, err := loadCheckpointFile(path)
			if err != nil {
				return err
			}

			env, err := openLightEnv(conf, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			c, err := light.NewClient(cp, env.store, env.clientOptions()...)
			if err != nil {
				return err
			}

			if path != conf.Light.TrustedCheckpointFile() && !tmos.FileExists(conf.Light.TrustedCheckpointFile()) {
				bz, err := marshalCheckpoint(cp)
				if err != nil {
					return err
				}
				if err := tmos.WriteFileAtomic(conf.Light.TrustedCheckpointFile(), bz, 0644); err != nil {
					return err
				}
			}

			trusted := c.TrustedCheckpoint()
			fmt.Fprintf(cmd.OutOrStdout(), "trusted checkpoint at height %d (%v)\n", trusted.Height(), trusted.Hash())
			return nil
		},
	}
}
