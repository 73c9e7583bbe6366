package tealcounter

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/tealcounter/internal/config"
)

var (
	v       = viper.New()
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "tealcounter",
	Short: "Deploy, invoke and verify the TEAL counter application",
	Long: `tealcounter deploys a stateful counter application to an Algorand network,
increments or decrements it, and verifies confirmed transactions and global
state against expected fields.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
			}
		}
		return setupLogger(v.GetString(config.KeyLogLevel))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	config.SetDefaults(v)
	if err := config.BindEnv(v); err != nil {
		panic(err)
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Path to a config file (yaml, toml or json)")
	pf.String("algod-address", config.DefaultAlgodAddress, "Address of the algod REST API")
	pf.String("algod-token", config.DefaultAlgodToken, "API token of the algod node")
	pf.Duration("algod-timeout", 0, "Timeout of a single algod request")
	pf.Uint("max-retries", 0, "Retries for failed ledger reads")
	pf.Uint("max-concurrency", 0, "Blocks fetched in parallel")
	pf.Duration("round-time", 0, "Polling interval while following new rounds")
	pf.Uint64("wait-rounds", 0, "Rounds to wait for a transaction to confirm")
	pf.String("postgres-url", "", "PostgreSQL connection string for the history store")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")

	bindFlags(pf.Lookup, map[string]string{
		config.KeyAlgodAddress:   "algod-address",
		config.KeyAlgodToken:     "algod-token",
		config.KeyAlgodTimeout:   "algod-timeout",
		config.KeyMaxRetries:     "max-retries",
		config.KeyMaxConcurrency: "max-concurrency",
		config.KeyRoundTime:      "round-time",
		config.KeyWaitRounds:     "wait-rounds",
		config.KeyPostgresURL:    "postgres-url",
		config.KeyMetricsAddr:    "metrics-addr",
		config.KeyLogLevel:       "log-level",
	})

	rootCmd.AddCommand(
		deployCmd,
		incrementCmd,
		decrementCmd,
		deleteCmd,
		showGlobalsCmd,
		verifyTxnCmd,
		verifyGlobalsCmd,
		findTxnCmd,
		extractCmd,
		migrateCmd,
	)
}

func setupLogger(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}
