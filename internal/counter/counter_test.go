package counter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/tealcounter/internal/models"
)

var testGenesisHash = []byte("0123456789abcdef0123456789abcdef")

type fakeAlgod struct {
	mu        sync.Mutex
	sent      []types.SignedTxn
	compiled  [][]byte
	round     uint64
	nextAppID uint64
	sendErr   error
	// deletedAppID overrides the apid echoed back in the pending transaction.
	deletedAppID uint64
}

func (f *fakeAlgod) SuggestedParams(context.Context) (*models.TxnParams, error) {
	return &models.TxnParams{
		GenesisHash: testGenesisHash,
		GenesisID:   "sandnet-v1",
		LastRound:   100,
		MinFee:      1000,
	}, nil
}

func (f *fakeAlgod) Compile(_ context.Context, source []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compiled = append(f.compiled, source)
	return []byte{0x05, byte(len(f.compiled))}, nil
}

func (f *fakeAlgod) SendRawTransaction(_ context.Context, raw []byte) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	var stx types.SignedTxn
	if err := msgpack.Decode(raw, &stx); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, stx)
	return crypto.GetTxID(stx.Txn), nil
}

func (f *fakeAlgod) WaitForConfirmation(_ context.Context, txID string, _ uint64) (*models.PendingTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.round++
	last := f.sent[len(f.sent)-1]

	pending := &models.PendingTransaction{ConfirmedRound: f.round}
	pending.Txn.Txn.ApplicationID = uint64(last.Txn.ApplicationID)
	pending.Txn.Txn.Type = string(last.Txn.Type)
	if last.Txn.Type == types.ApplicationCallTx && last.Txn.ApplicationID == 0 {
		pending.ApplicationIndex = f.nextAppID
	}
	if f.deletedAppID != 0 {
		pending.Txn.Txn.ApplicationID = f.deletedAppID
	}
	return pending, nil
}

func (f *fakeAlgod) last(t *testing.T) types.SignedTxn {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func TestDeploy(t *testing.T) {
	algod := &fakeAlgod{round: 100, nextAppID: 77}
	creator := crypto.GenerateAccount()

	res, err := New(algod, 4).Deploy(context.Background(), creator, 15)
	require.NoError(t, err)

	assert.Equal(t, uint64(77), res.AppID)
	assert.Equal(t, crypto.GetApplicationAddress(77).String(), res.AppAddress)
	assert.Equal(t, creator.Address.String(), res.Creator)
	assert.Equal(t, uint64(101), res.ConfirmedRound)
	assert.Equal(t, [][]byte{ApprovalProgram, ClearProgram}, algod.compiled)

	stx := algod.last(t)
	assert.Equal(t, res.TxID, crypto.GetTxID(stx.Txn))
	assert.Equal(t, types.ApplicationCallTx, stx.Txn.Type)
	assert.Equal(t, creator.Address, stx.Txn.Sender)
	assert.Equal(t, types.AppIndex(0), stx.Txn.ApplicationID)
	assert.Equal(t, [][]byte{EncodeUint64(15)}, stx.Txn.ApplicationArgs)
	assert.Equal(t, uint64(GlobalInts), stx.Txn.GlobalStateSchema.NumUint)
	assert.Equal(t, uint64(GlobalByteSlices), stx.Txn.GlobalStateSchema.NumByteSlice)
	assert.Equal(t, types.MicroAlgos(StandardFee), stx.Txn.Fee)
	assert.Equal(t, types.Round(100), stx.Txn.FirstValid)
	assert.Equal(t, types.Round(100+ValidityWindow), stx.Txn.LastValid)
	assert.Equal(t, "sandnet-v1", stx.Txn.GenesisID)
}

func TestDeployWithoutAppIndex(t *testing.T) {
	algod := &fakeAlgod{}
	_, err := New(algod, 4).Deploy(context.Background(), crypto.GenerateAccount(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without an application index")
}

func TestInvoke(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		call   func(*Counter, crypto.Account, uint64) (*CallResult, error)
	}{
		{"increment", Increment, func(c *Counter, a crypto.Account, id uint64) (*CallResult, error) {
			return c.Increment(context.Background(), a, id)
		}},
		{"decrement", Decrement, func(c *Counter, a crypto.Account, id uint64) (*CallResult, error) {
			return c.Decrement(context.Background(), a, id)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			algod := &fakeAlgod{}
			caller := crypto.GenerateAccount()

			res, err := tt.call(New(algod, 4), caller, 77)
			require.NoError(t, err)
			assert.Equal(t, tt.method, res.Method)
			assert.Equal(t, uint64(77), res.AppID)
			assert.Equal(t, caller.Address.String(), res.Sender)

			stx := algod.last(t)
			assert.Equal(t, types.AppIndex(77), stx.Txn.ApplicationID)
			assert.Equal(t, types.NoOpOC, stx.Txn.OnCompletion)
			assert.Equal(t, [][]byte{[]byte(tt.method)}, stx.Txn.ApplicationArgs)
		})
	}
}

func TestInvokeRequiresAppID(t *testing.T) {
	algod := &fakeAlgod{}
	_, err := New(algod, 4).Increment(context.Background(), crypto.GenerateAccount(), 0)
	require.Error(t, err)
	assert.Empty(t, algod.sent)
}

func TestInvokeSendError(t *testing.T) {
	sendErr := errors.New("logic eval error: assert failed")
	algod := &fakeAlgod{sendErr: sendErr}

	_, err := New(algod, 4).Increment(context.Background(), crypto.GenerateAccount(), 77)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sendErr))
}

func TestDelete(t *testing.T) {
	algod := &fakeAlgod{}
	creator := crypto.GenerateAccount()

	sub, err := New(algod, 4).Delete(context.Background(), creator, 77)
	require.NoError(t, err)
	assert.NotEmpty(t, sub.TxID)

	stx := algod.last(t)
	assert.Equal(t, types.DeleteApplicationOC, stx.Txn.OnCompletion)
	assert.Equal(t, types.AppIndex(77), stx.Txn.ApplicationID)
}

func TestDeleteMismatchedApp(t *testing.T) {
	algod := &fakeAlgod{deletedAppID: 78}
	_, err := New(algod, 4).Delete(context.Background(), crypto.GenerateAccount(), 77)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different to the requested app")
}

func TestCreateFundedAccount(t *testing.T) {
	algod := &fakeAlgod{}
	faucet := crypto.GenerateAccount()

	acct, err := New(algod, 4).CreateFundedAccount(context.Background(), faucet, 1_000_000)
	require.NoError(t, err)

	stx := algod.last(t)
	assert.Equal(t, types.PaymentTx, stx.Txn.Type)
	assert.Equal(t, faucet.Address, stx.Txn.Sender)
	assert.Equal(t, acct.Address, stx.Txn.Receiver)
	assert.Equal(t, types.MicroAlgos(1_000_000), stx.Txn.Amount)
}

func TestAccountFromMnemonic(t *testing.T) {
	acct := crypto.GenerateAccount()
	phrase, err := mnemonic.FromPrivateKey(acct.PrivateKey)
	require.NoError(t, err)

	got, err := AccountFromMnemonic(phrase)
	require.NoError(t, err)
	assert.Equal(t, acct.Address, got.Address)

	_, err = AccountFromMnemonic("not a mnemonic")
	assert.Error(t, err)
}

func TestMakeHeaderRejectsBadGenesisHash(t *testing.T) {
	_, err := MakeCallTxn(types.Address{}, &models.TxnParams{GenesisHash: []byte{1, 2}}, StandardFee, 1, Increment)
	assert.Error(t, err)
}

func TestMakeHeaderUsesMinFee(t *testing.T) {
	params := &models.TxnParams{GenesisHash: testGenesisHash, MinFee: 2000}
	tx, err := MakeCallTxn(types.Address{}, params, StandardFee, 1, Increment)
	require.NoError(t, err)
	assert.Equal(t, types.MicroAlgos(2000), tx.Fee)
}

func TestEmbeddedPrograms(t *testing.T) {
	assert.Contains(t, string(ApprovalProgram), "#pragma version")
	assert.Contains(t, string(ApprovalProgram), StateKey)
	assert.Contains(t, string(ClearProgram), "#pragma version")
}
