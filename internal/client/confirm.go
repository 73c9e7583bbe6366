package client

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/manifest-network/tealcounter/internal/models"
)

// WaitForConfirmation polls txID once per round until it is confirmed, the
// pool rejects it, or waitRounds rounds pass.
func (c *AlgodClient) WaitForConfirmation(ctx context.Context, txID string, waitRounds uint64) (*models.PendingTransaction, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "error getting node status")
	}

	start := status.LastRound + 1
	current := start
	for current < start+waitRounds {
		pending, err := c.PendingTransaction(ctx, txID)
		if err != nil && !IsNotFound(err) {
			return nil, errors.WithMessagef(err, "error getting pending transaction %s", txID)
		}
		if pending != nil {
			if pending.ConfirmedRound > 0 {
				slog.Debug("Transaction confirmed", "txID", txID, "round", pending.ConfirmedRound)
				return pending, nil
			}
			if pending.PoolError != "" {
				return nil, &PoolError{TxID: txID, Message: pending.PoolError}
			}
		}

		if _, err := c.WaitForBlockAfter(ctx, current); err != nil {
			return nil, errors.WithMessagef(err, "error waiting for round %d", current)
		}
		current++
	}

	return nil, errors.Wrapf(ErrConfirmationTimeout, "transaction %s after %d rounds", txID, waitRounds)
}
