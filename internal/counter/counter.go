// Package counter deploys and invokes the counter application: a stateful
// contract holding one global integer that its creator can increment or
// decrement.
package counter

import (
	"context"
	_ "embed"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/pkg/errors"

	"github.com/manifest-network/tealcounter/internal/metrics"
	"github.com/manifest-network/tealcounter/internal/models"
)

// Deployment parameters of the counter application.
const (
	GlobalByteSlices = 3
	GlobalInts       = 1
	LocalByteSlices  = 0
	LocalInts        = 0
	StandardFee      = 1000
	// ValidityWindow is the number of rounds a transaction stays valid.
	ValidityWindow = 1000
	// StateKey is the global-state key holding the counter.
	StateKey = "counterValue"
)

//go:embed contracts/counter_approval.teal
var ApprovalProgram []byte

//go:embed contracts/counter_clear.teal
var ClearProgram []byte

// Method is an entry point of the counter application.
type Method string

const (
	Increment Method = "increment"
	Decrement Method = "decrement"
)

// Algod is the subset of the node API used to submit transactions.
type Algod interface {
	SuggestedParams(ctx context.Context) (*models.TxnParams, error)
	Compile(ctx context.Context, source []byte) ([]byte, error)
	SendRawTransaction(ctx context.Context, stx []byte) (string, error)
	WaitForConfirmation(ctx context.Context, txID string, waitRounds uint64) (*models.PendingTransaction, error)
}

// Counter submits counter application transactions.
type Counter struct {
	algod      Algod
	waitRounds uint64
	fee        uint64
}

// New returns a Counter that waits up to waitRounds rounds for each
// transaction to confirm.
func New(algod Algod, waitRounds uint64) *Counter {
	return &Counter{algod: algod, waitRounds: waitRounds, fee: StandardFee}
}

// Submitted describes a confirmed transaction.
type Submitted struct {
	TxID           string
	ConfirmedRound uint64
	Pending        *models.PendingTransaction
}

// DeployResult is returned by Deploy. Later calls take AppID explicitly.
type DeployResult struct {
	Submitted
	AppID      uint64
	AppAddress string
	Creator    string
}

// CallResult is returned by Invoke.
type CallResult struct {
	Submitted
	AppID  uint64
	Method Method
	Sender string
}

// AccountFromMnemonic recovers an account from its 25 word mnemonic.
func AccountFromMnemonic(phrase string) (crypto.Account, error) {
	sk, err := mnemonic.ToPrivateKey(phrase)
	if err != nil {
		return crypto.Account{}, errors.WithMessage(err, "invalid mnemonic")
	}
	acct, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return crypto.Account{}, errors.WithMessage(err, "invalid private key")
	}
	return acct, nil
}

// EncodeUint64 encodes n as an 8 byte big-endian application argument.
func EncodeUint64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// Deploy compiles and creates the counter application with initial as the
// starting value.
func (c *Counter) Deploy(ctx context.Context, creator crypto.Account, initial uint64) (*DeployResult, error) {
	approval, err := c.algod.Compile(ctx, ApprovalProgram)
	if err != nil {
		return nil, fmt.Errorf("failed to compile approval program: %w", err)
	}
	clearProg, err := c.algod.Compile(ctx, ClearProgram)
	if err != nil {
		return nil, fmt.Errorf("failed to compile clear program: %w", err)
	}

	params, err := c.algod.SuggestedParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction params: %w", err)
	}

	tx, err := MakeCreateTxn(creator.Address, params, c.fee, approval, clearProg, initial)
	if err != nil {
		return nil, err
	}

	sub, err := c.signAndSubmit(ctx, creator, tx)
	metrics.ContractCalls.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("failed to deploy counter: %w", err)
	}
	if sub.Pending.ApplicationIndex == 0 {
		return nil, fmt.Errorf("transaction %s confirmed without an application index", sub.TxID)
	}

	appID := sub.Pending.ApplicationIndex
	slog.Info("Deployed counter", "appID", appID, "txID", sub.TxID, "round", sub.ConfirmedRound)

	return &DeployResult{
		Submitted:  *sub,
		AppID:      appID,
		AppAddress: crypto.GetApplicationAddress(appID).String(),
		Creator:    creator.Address.String(),
	}, nil
}

// Invoke calls method on the application as account.
func (c *Counter) Invoke(ctx context.Context, account crypto.Account, appID uint64, method Method) (*CallResult, error) {
	if appID == 0 {
		return nil, fmt.Errorf("contract has not been deployed: app id is 0")
	}

	params, err := c.algod.SuggestedParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction params: %w", err)
	}

	tx, err := MakeCallTxn(account.Address, params, c.fee, appID, method)
	if err != nil {
		return nil, err
	}

	sub, err := c.signAndSubmit(ctx, account, tx)
	metrics.ContractCalls.WithLabelValues(string(method), metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("failed to %s counter %d: %w", method, appID, err)
	}

	slog.Info("Invoked counter", "appID", appID, "method", method, "txID", sub.TxID, "round", sub.ConfirmedRound)
	return &CallResult{Submitted: *sub, AppID: appID, Method: method, Sender: account.Address.String()}, nil
}

// Increment invokes the increment method.
func (c *Counter) Increment(ctx context.Context, account crypto.Account, appID uint64) (*CallResult, error) {
	return c.Invoke(ctx, account, appID, Increment)
}

// Decrement invokes the decrement method.
func (c *Counter) Decrement(ctx context.Context, account crypto.Account, appID uint64) (*CallResult, error) {
	return c.Invoke(ctx, account, appID, Decrement)
}

// Delete deletes the application and checks the confirmed transaction
// deleted the requested id.
func (c *Counter) Delete(ctx context.Context, creator crypto.Account, appID uint64) (*Submitted, error) {
	params, err := c.algod.SuggestedParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction params: %w", err)
	}

	tx, err := MakeDeleteTxn(creator.Address, params, c.fee, appID)
	if err != nil {
		return nil, err
	}

	sub, err := c.signAndSubmit(ctx, creator, tx)
	metrics.ContractCalls.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("failed to delete counter %d: %w", appID, err)
	}

	if deleted := sub.Pending.Txn.Txn.ApplicationID; deleted != appID {
		return nil, fmt.Errorf("the id of the deleted app (%d) is different to the requested app (%d)", deleted, appID)
	}

	slog.Info("Deleted counter", "appID", appID, "creator", creator.Address.String())
	return sub, nil
}

// TransferFunds pays amount microalgos from from to to.
func (c *Counter) TransferFunds(ctx context.Context, from crypto.Account, to types.Address, amount uint64) (*Submitted, error) {
	params, err := c.algod.SuggestedParams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction params: %w", err)
	}

	tx, err := MakePaymentTxn(from.Address, to, params, c.fee, amount)
	if err != nil {
		return nil, err
	}

	sub, err := c.signAndSubmit(ctx, from, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to transfer %d to %s: %w", amount, to, err)
	}
	return sub, nil
}

// CreateFundedAccount generates a fresh account funded by faucet.
func (c *Counter) CreateFundedAccount(ctx context.Context, faucet crypto.Account, amount uint64) (crypto.Account, error) {
	acct := crypto.GenerateAccount()
	if _, err := c.TransferFunds(ctx, faucet, acct.Address, amount); err != nil {
		return crypto.Account{}, err
	}
	slog.Debug("Created funded account", "address", acct.Address.String(), "amount", amount)
	return acct, nil
}

func (c *Counter) signAndSubmit(ctx context.Context, acct crypto.Account, tx types.Transaction) (*Submitted, error) {
	txID, stx, err := crypto.SignTransaction(acct.PrivateKey, tx)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to sign transaction")
	}

	sentID, err := c.algod.SendRawTransaction(ctx, stx)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to send transaction %s", txID)
	}
	if sentID != "" && sentID != txID {
		return nil, fmt.Errorf("node reported transaction id %s, expected %s", sentID, txID)
	}

	pending, err := c.algod.WaitForConfirmation(ctx, txID, c.waitRounds)
	if err != nil {
		return nil, err
	}

	return &Submitted{TxID: txID, ConfirmedRound: pending.ConfirmedRound, Pending: pending}, nil
}
