package tealcounter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/manifest-network/tealcounter/internal/codec"
	"github.com/manifest-network/tealcounter/internal/matcher"
	"github.com/manifest-network/tealcounter/internal/models"
	"github.com/manifest-network/tealcounter/internal/output"
)

const expectUsage = `Expected field as path=value, repeatable. Paths are dotted (txn.apaa.0);
values may be prefixed with uint:, int:, bool:, addr:, b64:, text: or hex:`

// parseExpectations turns path=value pairs into expected fields.
func parseExpectations(pairs []string) (matcher.Fields, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one --expect is required")
	}

	fields := matcher.Fields{}
	for _, pair := range pairs {
		path, raw, ok := strings.Cut(pair, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid expectation %q, want path=value", pair)
		}
		val, err := matcher.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid expectation %q: %w", pair, err)
		}
		fields.Set(path, val)
	}
	return fields, nil
}

// record stores the outcome of a verification and passes err through.
func record(ctx context.Context, out output.OutputHandler, kind, target string, err error) error {
	v := &models.Verification{Kind: kind, Target: target, OK: err == nil}
	if err != nil {
		v.Detail = err.Error()
	}
	if werr := out.WriteVerification(ctx, v); werr != nil {
		return fmt.Errorf("failed to record verification: %w", werr)
	}
	return err
}

var verifyTxnCmd = &cobra.Command{
	Use:   "verify-txn <round> <txid>",
	Short: "Verify a confirmed transaction contains the expected fields",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		round, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid round %q", args[0])
		}
		txID := args[1]

		pairs, err := cmd.Flags().GetStringArray("expect")
		if err != nil {
			return err
		}
		expected, err := parseExpectations(pairs)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.verifier().VerifyTransaction(cmd.Context(), round, txID, expected)
		if err := record(cmd.Context(), a.out, "transaction", txID, err); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "transaction %s in round %d matches %d expected fields\n", txID, round, len(expected))
		return nil
	},
}

var verifyGlobalsCmd = &cobra.Command{
	Use:   "verify-globals [app-id]",
	Short: "Verify the global state of a counter application",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := cmd.Flags().GetStringArray("expect")
		if err != nil {
			return err
		}
		expected, err := parseExpectations(pairs)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		creator, err := creatorAddress(cmd, a)
		if err != nil {
			return err
		}
		appID, err := resolveAppID(cmd.Context(), a.out, args, creator)
		if err != nil {
			return err
		}

		err = a.verifier().VerifyGlobalState(cmd.Context(), creator, appID, expected)
		if err := record(cmd.Context(), a.out, "global_state", strconv.FormatUint(appID, 10), err); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "global state of app %d matches %d expected fields\n", appID, len(expected))
		return nil
	},
}

var showGlobalsCmd = &cobra.Command{
	Use:   "show-globals [app-id]",
	Short: "Print the global state of a counter application",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		creator, err := creatorAddress(cmd, a)
		if err != nil {
			return err
		}
		appID, err := resolveAppID(cmd.Context(), a.out, args, creator)
		if err != nil {
			return err
		}

		state, err := a.verifier().ReadGlobalState(cmd.Context(), creator, appID)
		if err != nil {
			return err
		}
		return printGlobals(cmd, state)
	},
}

// creatorAddress returns --creator, or the address of the configured creator.
func creatorAddress(cmd *cobra.Command, a *app) (string, error) {
	addr, err := cmd.Flags().GetString("creator")
	if err != nil {
		return "", err
	}
	if addr != "" {
		return addr, nil
	}
	acct, err := a.creator()
	if err != nil {
		return "", err
	}
	return acct.Address.String(), nil
}

func printGlobals(cmd *cobra.Command, state models.Record) error {
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTYPE\tVALUE")
	for _, k := range keys {
		entry, _ := state[k].(models.Record)
		kind, _ := entry["kind"].(string)
		fmt.Fprintf(w, "%s\t%s\t%s\n", k, kind, globalValue(entry))
	}
	return w.Flush()
}

func globalValue(entry models.Record) string {
	if entry["kind"] == "uint" {
		n, _ := codec.NumberOf(entry["uint"])
		return strconv.FormatUint(n, 10)
	}
	b, _ := entry["bytes"].([]byte)
	if addr, ok := codec.AddressOf(b); ok {
		return addr
	}
	return codec.EncodeBase64(b)
}

func init() {
	for _, c := range []*cobra.Command{verifyTxnCmd, verifyGlobalsCmd} {
		c.Flags().StringArray("expect", nil, expectUsage)
	}
	for _, c := range []*cobra.Command{verifyGlobalsCmd, showGlobalsCmd} {
		c.Flags().String("creator", "", "Address of the application creator (defaults to the configured creator)")
	}
}
