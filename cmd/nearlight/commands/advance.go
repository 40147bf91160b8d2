package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nearlight/nearlight/config"
	"github.com/nearlight/nearlight/libs/log"
	"github.com/nearlight/nearlight/types"
)

// MakeAdvanceCommand returns the command that verifies next-block evidence
// and advances the trusted checkpoint.
func MakeAdvanceCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var canonical bool

	cmd := &cobra.Command{
		Use:   "advance [evidence...]",
		Short: "Verify next block evidence and advance the trusted checkpoint",
		Long: `Verify next block evidence and advance the trusted checkpoint.

Each file holds the result of a next_light_client_block RPC call, as JSON or,
with --borsh, in its canonical encoding. Files are applied in order; the
first one that fails verification stops the command and leaves the trusted
checkpoint at the last accepted block.`,
		Args: cobra.MinimumNArgs(1),
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

			for _, path := range args {
				bz, err := os.ReadFile(path)
				if err != nil {
					return err
				}

				var ev *types.LightClientBlockView
				if canonical {
					ev, err = types.DecodeLightClientBlock(bz)
				} else {
					ev, err = types.DecodeLightClientBlockJSON(bz)
				}
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				cp, err := c.Update(cmd.Context(), ev)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d %v\n", cp.Height(), cp.Hash())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&canonical, "borsh", false, "evidence files are borsh-encoded")
	return cmd
}
