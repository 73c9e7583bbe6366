package tealcounter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/spf13/pflag"

	"github.com/manifest-network/tealcounter/internal/client"
	"github.com/manifest-network/tealcounter/internal/config"
	"github.com/manifest-network/tealcounter/internal/counter"
	"github.com/manifest-network/tealcounter/internal/metrics"
	"github.com/manifest-network/tealcounter/internal/output"
	"github.com/manifest-network/tealcounter/internal/output/postgresql"
	"github.com/manifest-network/tealcounter/internal/verify"
)

func bindFlags(lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, lookup(name)); err != nil {
			panic(err)
		}
	}
}

// app holds the clients shared by the commands.
type app struct {
	cfg          config.Config
	algod        *client.AlgodClient
	out          output.OutputHandler
	stopMetrics  context.CancelFunc
	metricsError chan error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	algod, err := client.NewAlgodClient(cfg.Algod)
	if err != nil {
		return nil, fmt.Errorf("failed to create algod client: %w", err)
	}

	out, err := openOutput(ctx, cfg.Output)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, algod: algod, out: out}
	if cfg.Metrics.Addr != "" {
		mctx, cancel := context.WithCancel(ctx)
		a.stopMetrics = cancel
		a.metricsError = make(chan error, 1)
		go func() {
			a.metricsError <- metrics.Serve(mctx, cfg.Metrics.Addr)
		}()
	}
	return a, nil
}

func openOutput(ctx context.Context, cfg config.OutputConfig) (output.OutputHandler, error) {
	if cfg.PostgresURL == "" {
		slog.Debug("No PostgreSQL URL configured, keeping history in memory")
		return output.NewMemoryOutputHandler(), nil
	}
	handler, err := postgresql.NewPostgresOutputHandler(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return handler, nil
}

func (a *app) Close() {
	if a.stopMetrics != nil {
		a.stopMetrics()
		if err := <-a.metricsError; err != nil {
			slog.Warn("Metrics server failed", "error", err)
		}
	}
	if err := a.out.Close(); err != nil {
		slog.Warn("Failed to close history store", "error", err)
	}
}

func (a *app) counter() *counter.Counter {
	return counter.New(a.algod, a.cfg.Extract.WaitRounds)
}

func (a *app) verifier() *verify.Verifier {
	return verify.New(a.algod, nil)
}

func (a *app) creator() (crypto.Account, error) {
	phrase, err := a.cfg.Accounts.RequireCreator()
	if err != nil {
		return crypto.Account{}, err
	}
	return counter.AccountFromMnemonic(phrase)
}

func (a *app) faucet() (crypto.Account, error) {
	phrase, err := a.cfg.Accounts.RequireFaucet()
	if err != nil {
		return crypto.Account{}, err
	}
	return counter.AccountFromMnemonic(phrase)
}

// resolveAppID parses the optional app id argument, falling back to the
// latest recorded deployment of creator.
func resolveAppID(ctx context.Context, out output.OutputHandler, args []string, creator string) (uint64, error) {
	if len(args) > 0 {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("invalid app id %q", args[0])
		}
		return id, nil
	}

	d, err := out.GetLatestDeployment(ctx, creator)
	if err != nil {
		return 0, err
	}
	if d == nil {
		return 0, fmt.Errorf("no app id given and no recorded deployment for %s", creator)
	}
	slog.Debug("Using latest recorded deployment", "appID", d.AppID)
	return d.AppID, nil
}
