package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/manifest-network/tealcounter/internal/client"
	"github.com/manifest-network/tealcounter/internal/models"
)

// RetryDelay is the delay before the first retry; it doubles on each attempt.
var RetryDelay = 500 * time.Millisecond

type StatusReader interface {
	Status(ctx context.Context) (*models.NodeStatus, error)
}

type BlockReader interface {
	GetBlock(ctx context.Context, round uint64) (*models.Block, error)
}

// Retry runs fn up to maxRetries+1 times. Not-found responses and context
// cancellation are returned without retrying.
func Retry[T any](ctx context.Context, maxRetries uint, what string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	delay := RetryDelay

	var err error
	for attempt := uint(0); ; attempt++ {
		var res T
		res, err = fn(ctx)
		if err == nil {
			return res, nil
		}
		if client.IsNotFound(err) || ctx.Err() != nil || attempt >= maxRetries {
			break
		}

		slog.Debug("Retrying", "what", what, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return zero, errors.WithMessagef(err, "%s failed", what)
}

// GetLatestRoundWithRetry gets the last committed round from the status endpoint.
func GetLatestRoundWithRetry(ctx context.Context, status StatusReader, maxRetries uint) (uint64, error) {
	return Retry(ctx, maxRetries, "get node status", func(ctx context.Context) (uint64, error) {
		s, err := status.Status(ctx)
		if err != nil {
			return 0, err
		}
		return s.LastRound, nil
	})
}

// GetBlockWithRetry fetches the block at round.
func GetBlockWithRetry(ctx context.Context, blocks BlockReader, round uint64, maxRetries uint) (*models.Block, error) {
	return Retry(ctx, maxRetries, fmt.Sprintf("get block %d", round), func(ctx context.Context) (*models.Block, error) {
		return blocks.GetBlock(ctx, round)
	})
}

// GetEarliestRound determines the earliest block the node still serves.
// Returns 1 for archival nodes, otherwise searches (1, latest] for the
// lowest available round.
func GetEarliestRound(ctx context.Context, blocks BlockReader, latest uint64, maxRetries uint) (uint64, error) {
	available := func(round uint64) (bool, error) {
		_, err := GetBlockWithRetry(ctx, blocks, round, maxRetries)
		if err == nil {
			return true, nil
		}
		if client.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	ok, err := available(1)
	if err != nil {
		return 0, errors.WithMessage(err, "error probing round 1")
	}
	if ok || latest <= 1 {
		return 1, nil
	}

	lo, hi := uint64(2), latest
	for lo < hi {
		mid := lo + (hi-lo)/2
		ok, err := available(mid)
		if err != nil {
			return 0, errors.WithMessagef(err, "error probing round %d", mid)
		}
		if ok {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, nil
}
