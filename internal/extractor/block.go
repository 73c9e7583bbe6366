// Package extractor scans round ranges for counter application calls.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/tealcounter/internal/config"
	"github.com/manifest-network/tealcounter/internal/locator"
	"github.com/manifest-network/tealcounter/internal/metrics"
	"github.com/manifest-network/tealcounter/internal/models"
	"github.com/manifest-network/tealcounter/internal/output"
	"github.com/manifest-network/tealcounter/internal/utils"
)

// ErrTransactionNotFound is returned when a scanned range does not contain
// the requested transaction.
var ErrTransactionNotFound = errors.New("transaction not found in range")

// errStop ends a scan early once its result is known.
var errStop = errors.New("stop scan")

type Ledger interface {
	utils.StatusReader
	utils.BlockReader
}

type Extractor struct {
	ledger  Ledger
	locator *locator.Locator
	output  output.OutputHandler
	cfg     config.ExtractConfig

	// ShowProgress renders a progress bar for multi-round scans.
	ShowProgress bool
}

// New returns an Extractor. Found calls are written to out when it is not nil.
func New(ledger Ledger, loc *locator.Locator, out output.OutputHandler, cfg config.ExtractConfig) *Extractor {
	if loc == nil {
		loc = locator.New(nil)
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 1
	}
	return &Extractor{ledger: ledger, locator: loc, output: out, cfg: cfg}
}

// FindAppCalls returns the calls to appID confirmed in [start, stop],
// ordered by round and position within the round.
func (e *Extractor) FindAppCalls(ctx context.Context, appID, start, stop uint64) ([]models.Call, error) {
	if start > stop {
		return nil, fmt.Errorf("invalid round range [%d, %d]", start, stop)
	}

	var mu sync.Mutex
	byRound := make(map[uint64][]models.Call)

	err := e.scan(ctx, start, stop, "Scanning rounds...", func(block *models.Block) error {
		var calls []models.Call
		for _, tx := range e.locator.Transactions(block) {
			if call, ok := appCall(tx, appID); ok {
				calls = append(calls, call)
			}
		}
		if len(calls) == 0 {
			return nil
		}
		mu.Lock()
		byRound[block.Round] = calls
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	rounds := make([]uint64, 0, len(byRound))
	for r := range byRound {
		rounds = append(rounds, r)
	}
	slices.Sort(rounds)

	var out []models.Call
	for _, r := range rounds {
		out = append(out, byRound[r]...)
	}

	if e.output != nil {
		for i := range out {
			if err := e.output.WriteCall(ctx, &out[i]); err != nil {
				return nil, fmt.Errorf("failed to write call: %w", err)
			}
		}
	}

	slog.Info("Found application calls", "appID", appID, "range", fmt.Sprintf("[%d, %d]", start, stop), "count", len(out))
	return out, nil
}

// FindTransaction returns the transaction txID from the first round in
// [start, stop] that contains it.
func (e *Extractor) FindTransaction(ctx context.Context, txID string, start, stop uint64) (*models.Transaction, error) {
	if start > stop {
		return nil, fmt.Errorf("invalid round range [%d, %d]", start, stop)
	}

	var mu sync.Mutex
	var found *models.Transaction

	err := e.scan(ctx, start, stop, "Searching rounds...", func(block *models.Block) error {
		rec, ok := e.locator.Find(block, txID)
		if !ok {
			return nil
		}
		mu.Lock()
		if found == nil || block.Round < found.Round {
			found = &models.Transaction{ID: txID, Round: block.Round, Record: rec}
		}
		mu.Unlock()
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %s in [%d, %d]", ErrTransactionNotFound, txID, start, stop)
	}
	slog.Debug("Found transaction", "txID", txID, "round", found.Round)
	return found, nil
}

// scan fetches every block in [start, stop] in parallel and passes it to visit.
func (e *Extractor) scan(ctx context.Context, start, stop uint64, description string, visit func(*models.Block) error) error {
	var bar *progressbar.ProgressBar
	if e.ShowProgress && start != stop {
		bar = progressbar.NewOptions64(
			int64(stop-start+1),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		if err := bar.RenderBlank(); err != nil {
			return fmt.Errorf("failed to render progress bar: %w", err)
		}
	}

	if err := e.processRounds(ctx, start, stop, bar, visit); err != nil {
		return err
	}

	if bar != nil {
		if err := bar.Finish(); err != nil {
			return fmt.Errorf("failed to finish progress bar: %w", err)
		}
	}
	return nil
}

// processRounds processes rounds in parallel using goroutines.
func (e *Extractor) processRounds(ctx context.Context, start, stop uint64, bar *progressbar.ProgressBar, visit func(*models.Block) error) error {
	eg, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, e.cfg.MaxConcurrency)

	for round := start; round <= stop; round++ {
		if gctx.Err() != nil {
			break
		}

		round := round
		sem <- struct{}{}
		eg.Go(func() error {
			defer func() { <-sem }()

			block, err := utils.GetBlockWithRetry(gctx, e.ledger, round, e.cfg.MaxRetries)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("Round processing error", "round", round, "error", err, "retries", e.cfg.MaxRetries)
				}
				return fmt.Errorf("failed to process round %d: %w", round, err)
			}
			metrics.RoundsScanned.Inc()

			if err := visit(block); err != nil {
				return err
			}

			if bar != nil {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		if errors.Is(err, errStop) {
			return err
		}
		return fmt.Errorf("error while fetching blocks: %w", err)
	}
	return ctx.Err()
}
