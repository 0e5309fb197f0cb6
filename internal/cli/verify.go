package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/controllog/internal/loader"
	"github.com/roach88/controllog/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	DB string
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the read-only integrity pass over a merged store",
		Long: `Check a merged store for orphaned postings (postings whose event is
absent), duplicate business keys, and conserved accounts whose store-wide
net is nonzero. Exits 1 when findings exist; nothing is mutated.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database path")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	fileCfg, err := LoadFileConfig(opts.Config)
	if err != nil {
		formatter.Error(ErrCodeBadConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad config", err)
	}

	db := orDefault(opts.DB, fileCfg.DB)
	if db == "" {
		msg := "--db is required (via flag or config file)"
		formatter.Error(ErrCodeBadConfig, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(db)
	if err != nil {
		formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer st.Close()

	report, err := loader.Verify(cmd.Context(), st)
	if err != nil {
		formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "verify", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		status := "clean"
		if !report.Clean() {
			status = "FINDINGS"
		}
		if err := formatter.Success(fmt.Sprintf(
			"%s: %d events, %d postings, %d orphan posting(s), %d duplicate event key(s), %d unbalanced account(s)",
			status, report.Events, report.Postings,
			report.OrphanPostings, report.DuplicateEventKeys, len(report.UnbalancedAccounts),
		)); err != nil {
			return err
		}
	}

	if !report.Clean() {
		return NewExitError(ExitFailure, "integrity findings")
	}
	return nil
}
