// Package verify asserts that confirmed transactions and application global
// state contain expected fields.
package verify

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/tealcounter/internal/locator"
	"github.com/manifest-network/tealcounter/internal/matcher"
	"github.com/manifest-network/tealcounter/internal/metrics"
	"github.com/manifest-network/tealcounter/internal/models"
)

// Ledger is the read-only view of the chain used for verification.
type Ledger interface {
	// GetBlock returns the block confirmed at round.
	GetBlock(ctx context.Context, round uint64) (*models.Block, error)

	// GetAccount returns the account information for address.
	GetAccount(ctx context.Context, address string) (*models.Account, error)
}

// Verifier checks on-chain results against expected fields. It performs
// one ledger read per call and never retries.
type Verifier struct {
	ledger  Ledger
	locator *locator.Locator
}

// New returns a Verifier reading from ledger.
func New(ledger Ledger, loc *locator.Locator) *Verifier {
	if loc == nil {
		loc = locator.New(nil)
	}
	return &Verifier{ledger: ledger, locator: loc}
}

// FindTransaction fetches the block at round and returns the record of txID.
func (v *Verifier) FindTransaction(ctx context.Context, round uint64, txID string) (models.Record, error) {
	block, err := v.ledger.GetBlock(ctx, round)
	if err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", round, err)
	}

	rec, ok := v.locator.Find(block, txID)
	if !ok {
		return nil, &NotFoundError{Round: round, TxID: txID}
	}
	return rec, nil
}

// VerifyTransaction requires the transaction txID confirmed in round to
// contain expected.
func (v *Verifier) VerifyTransaction(ctx context.Context, round uint64, txID string, expected matcher.Fields) (err error) {
	defer func() { metrics.Verifications.WithLabelValues("transaction", metrics.Result(err)).Inc() }()

	rec, err := v.FindTransaction(ctx, round, txID)
	if err != nil {
		return err
	}

	if err := matcher.Match(rec, expected); err != nil {
		return fmt.Errorf("transaction %s in round %d: %w", txID, round, err)
	}

	slog.Debug("Verified transaction", "round", round, "txID", txID)
	return nil
}

// ReadGlobalState returns the global state of appID as created by account,
// keyed by the decoded key text. An application the account did not create
// yields an empty state.
func (v *Verifier) ReadGlobalState(ctx context.Context, account string, appID uint64) (models.Record, error) {
	acct, err := v.ledger.GetAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", account, err)
	}
	return GlobalState(acct, appID)
}

// GlobalState extracts the global state of appID from acct.
func GlobalState(acct *models.Account, appID uint64) (models.Record, error) {
	state := models.Record{}
	if acct == nil {
		return state, nil
	}

	found := false
	for _, app := range acct.CreatedApps {
		if app.ID != appID {
			continue
		}
		found = true
		for _, kv := range app.Params.GlobalState {
			key, err := base64.StdEncoding.DecodeString(kv.Key)
			if err != nil {
				return nil, fmt.Errorf("failed to decode global state key %q: %w", kv.Key, err)
			}
			val, err := stateValue(kv.Value)
			if err != nil {
				return nil, fmt.Errorf("failed to decode global state value %q: %w", key, err)
			}
			state[string(key)] = val
		}
	}

	if !found {
		slog.Warn("Application not found among created apps", "account", acct.Address, "appID", appID)
	}
	return state, nil
}

func stateValue(tv models.TealValue) (models.Record, error) {
	b, err := base64.StdEncoding.DecodeString(tv.Bytes)
	if err != nil {
		return nil, err
	}
	return models.Record{
		"type":  tv.Type,
		"kind":  tv.Kind(),
		"uint":  tv.Uint,
		"bytes": b,
	}, nil
}

// VerifyGlobalState requires the global state of appID, created by
// account, to contain expected.
func (v *Verifier) VerifyGlobalState(ctx context.Context, account string, appID uint64, expected matcher.Fields) (err error) {
	defer func() { metrics.Verifications.WithLabelValues("global_state", metrics.Result(err)).Inc() }()

	state, err := v.ReadGlobalState(ctx, account, appID)
	if err != nil {
		return err
	}

	if err := matcher.Match(state, expected); err != nil {
		return fmt.Errorf("global state of app %d: %w", appID, err)
	}

	slog.Debug("Verified global state", "appID", appID)
	return nil
}

// Check is one independent verification.
type Check func(ctx context.Context, v *Verifier) error

// TransactionCheck builds a Check for VerifyTransaction.
func TransactionCheck(round uint64, txID string, expected matcher.Fields) Check {
	return func(ctx context.Context, v *Verifier) error {
		return v.VerifyTransaction(ctx, round, txID, expected)
	}
}

// GlobalStateCheck builds a Check for VerifyGlobalState.
func GlobalStateCheck(account string, appID uint64, expected matcher.Fields) Check {
	return func(ctx context.Context, v *Verifier) error {
		return v.VerifyGlobalState(ctx, account, appID, expected)
	}
}

// VerifyAll runs independent checks concurrently and returns the first
// failure. Checks only read from the ledger.
func (v *Verifier) VerifyAll(ctx context.Context, checks ...Check) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, check := range checks {
		check := check
		eg.Go(func() error {
			return check(ctx, v)
		})
	}
	return eg.Wait()
}
