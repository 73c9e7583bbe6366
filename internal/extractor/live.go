package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/manifest-network/tealcounter/internal/models"
	"github.com/manifest-network/tealcounter/internal/utils"
)

// Live follows the chain from start and passes the calls to appID found in
// each batch of new rounds to handle. It returns nil when ctx is cancelled.
func (e *Extractor) Live(ctx context.Context, appID, start uint64, handle func([]models.Call) error) error {
	if start == 0 {
		start = 1
	}
	current := start - 1
	for {
		latest, err := utils.GetLatestRoundWithRetry(ctx, e.ledger, e.cfg.MaxRetries)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to get latest round: %w", err)
		}

		if latest > current {
			calls, err := e.FindAppCalls(ctx, appID, current+1, latest)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("failed to process rounds: %w", err)
			}
			if len(calls) > 0 {
				if err := handle(calls); err != nil {
					return err
				}
			}
			current = latest
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.cfg.RoundTime):
		}
	}
}
