package commands

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/nearlight/nearlight/config"
	"github.com/nearlight/nearlight/crypto"
	"github.com/nearlight/nearlight/libs/log"
	"github.com/nearlight/nearlight/light"
	"github.com/nearlight/nearlight/types"
)

// MakeVerifyCommand returns the command that checks inclusion proofs.
func MakeVerifyCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var headRoot string

	cmd := &cobra.Command{
		Use:   "verify [proof...]",
		Short: "Verify execution outcome inclusion proofs",
		Long: `Verify execution outcome inclusion proofs.

Each file holds the result of a light_client_proof RPC call. Proofs are
checked against the block Merkle root committed to by the trusted header or
against the client's own block accumulator, or only against --head-root when
it is given. The command fails if any proof fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proofs := make([]*types.ExecutionProof, len(args))
			for i, path := range args {
				bz, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if proofs[i], err = types.DecodeExecutionProofJSON(bz); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			var (
				results []error
				err     error
			)
			if headRoot != "" {
				root, perr := crypto.ParseHash(headRoot)
				if perr != nil {
					return fmt.Errorf("invalid --head-root: %w", perr)
				}
				results, err = light.VerifyExecutionProofs(cmd.Context(), root, proofs, conf.Light.MaxParallelProofs)
			} else {
				env, eerr := openLightEnv(conf, logger)
				if eerr != nil {
					return eerr
				}
				defer env.Close()

				c, cerr := env.client()
				if cerr != nil {
					return cerr
				}
				results, err = c.VerifyInclusionBatch(cmd.Context(), proofs)
			}
			if err != nil {
				return err
			}

			var failed *multierror.Error
			for i, res := range results {
				outcome := proofs[i].OutcomeProof
				if res != nil {
					failed = multierror.Append(failed, fmt.Errorf("%s: %w", args[i], res))
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", args[i], res)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK %s: %v by %s (%s)\n",
					args[i], outcome.ID, outcome.Outcome.ExecutorID, outcome.Outcome.Status.Kind)
			}
			return failed.ErrorOrNil()
		},
	}
	cmd.Flags().StringVar(&headRoot, "head-root", "",
		"verify against this block merkle root (base58) instead of the trusted checkpoint")
	return cmd
}
