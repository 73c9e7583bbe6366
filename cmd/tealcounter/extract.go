package tealcounter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/manifest-network/tealcounter/internal/config"
	"github.com/manifest-network/tealcounter/internal/extractor"
	"github.com/manifest-network/tealcounter/internal/models"
	"github.com/manifest-network/tealcounter/internal/output/postgresql"
	"github.com/manifest-network/tealcounter/internal/utils"
)

// roundRange resolves --from and --to, defaulting to the earliest round the
// node serves and the latest round.
func roundRange(ctx context.Context, cmd *cobra.Command, ledger extractor.Ledger, maxRetries uint) (uint64, uint64, error) {
	from, err := cmd.Flags().GetUint64("from")
	if err != nil {
		return 0, 0, err
	}
	to, err := cmd.Flags().GetUint64("to")
	if err != nil {
		return 0, 0, err
	}

	if to == 0 {
		if to, err = utils.GetLatestRoundWithRetry(ctx, ledger, maxRetries); err != nil {
			return 0, 0, err
		}
	}
	if from == 0 {
		if from, err = utils.GetEarliestRound(ctx, ledger, to, maxRetries); err != nil {
			return 0, 0, err
		}
	}
	if from > to {
		return 0, 0, fmt.Errorf("--from %d is after --to %d", from, to)
	}
	return from, to, nil
}

var findTxnCmd = &cobra.Command{
	Use:   "find-txn <txid>",
	Short: "Find a transaction in a round range and print its block record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		from, to, err := roundRange(cmd.Context(), cmd, a.algod, a.cfg.Extract.MaxRetries)
		if err != nil {
			return err
		}

		e := extractor.New(a.algod, nil, nil, a.cfg.Extract)
		e.ShowProgress = true
		tx, err := e.FindTransaction(cmd.Context(), args[0], from, to)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "round: %d\n", tx.Round)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "    ")
		return enc.Encode(tx.Record)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <app-id>",
	Short: "List the calls made to a counter application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid app id %q", args[0])
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		from, to, err := roundRange(ctx, cmd, a.algod, a.cfg.Extract.MaxRetries)
		if err != nil {
			return err
		}
		live := a.cfg.Extract.Live

		e := extractor.New(a.algod, nil, a.out, a.cfg.Extract)
		e.ShowProgress = !live
		calls, err := e.FindAppCalls(ctx, appID, from, to)
		if err != nil {
			return err
		}
		if err := printCalls(cmd.OutOrStdout(), calls); err != nil {
			return err
		}

		if !live {
			return nil
		}
		return e.Live(ctx, appID, to+1, func(calls []models.Call) error {
			return printCalls(cmd.OutOrStdout(), calls)
		})
	},
}

func printCalls(w io.Writer, calls []models.Call) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range calls {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ConfirmedRound, c.Method, c.Sender, c.TxID)
	}
	return tw.Flush()
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the history store schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := v.GetString(config.KeyPostgresURL)
		if url == "" {
			return fmt.Errorf("--postgres-url is required")
		}
		h, err := postgresql.NewPostgresOutputHandler(cmd.Context(), url)
		if err != nil {
			return err
		}
		return h.Close()
	},
}

func init() {
	for _, c := range []*cobra.Command{findTxnCmd, extractCmd} {
		c.Flags().Uint64("from", 0, "First round to scan (defaults to the earliest available round)")
		c.Flags().Uint64("to", 0, "Last round to scan (defaults to the latest round)")
	}
	extractCmd.Flags().Bool("live", false, "Keep following new rounds")
	bindFlags(extractCmd.Flags().Lookup, map[string]string{config.KeyLive: "live"})
}
