package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/controllog/internal/store"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	DB string
}

// statsResult is the stats command's output payload.
type statsResult struct {
	Events       int64              `json:"events"`
	Postings     int64              `json:"postings"`
	DistinctKeys int64              `json:"distinct_event_keys"`
	EventsByKind []store.KindCount  `json:"events_by_kind"`
	NetByAccount []store.AccountNet `json:"net_by_account"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Print row counts and per-account nets for a merged store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database path")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
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

	ctx := cmd.Context()
	var result statsResult
	if result.Events, err = st.CountEvents(ctx); err != nil {
		return statsErr(formatter, err)
	}
	if result.Postings, err = st.CountPostings(ctx); err != nil {
		return statsErr(formatter, err)
	}
	if result.DistinctKeys, err = st.CountDistinctEventKeys(ctx); err != nil {
		return statsErr(formatter, err)
	}
	if result.EventsByKind, err = st.EventsByKind(ctx); err != nil {
		return statsErr(formatter, err)
	}
	if result.NetByAccount, err = st.NetByAccountType(ctx); err != nil {
		return statsErr(formatter, err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "events:   %d (%d distinct key(s))\n", result.Events, result.DistinctKeys)
	fmt.Fprintf(&b, "postings: %d\n", result.Postings)
	for _, kc := range result.EventsByKind {
		fmt.Fprintf(&b, "  kind %-20s %d\n", kc.Kind, kc.Count)
	}
	for _, an := range result.NetByAccount {
		fmt.Fprintf(&b, "  net  %-20s %-8s %g\n", an.AccountType, an.Unit, an.Net)
	}
	return formatter.Success(strings.TrimRight(b.String(), "\n"))
}

func statsErr(formatter *OutputFormatter, err error) error {
	formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
	return WrapExitError(ExitFailure, "stats", err)
}
