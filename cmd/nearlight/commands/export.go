package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nearlight/nearlight/config"
	"github.com/nearlight/nearlight/libs/log"
	tmos "github.com/nearlight/nearlight/libs/os"
)

// MakeExportCommand returns the command that writes the trusted checkpoint
// to a file init can read.
func MakeExportCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the trusted checkpoint to a file",
		Long: `Write the trusted checkpoint to a file.

The file includes the block accumulator, so a client initialized from it
verifies proofs of every block the exporting client trusted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openLightEnv(conf, logger)
			if err != nil {
				return err
			}
			defer env.Close()

			c, err := env.client()
			if err != nil {
				return err
			}
			cp := c.TrustedCheckpoint()

			bz, err := marshalCheckpoint(cp)
			if err != nil {
				return err
			}
			if err := tmos.WriteFileAtomic(args[0], bz, 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported checkpoint at height %d to %s\n", cp.Height(), args[0])
			return nil
		},
	}
}
