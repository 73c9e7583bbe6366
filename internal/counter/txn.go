package counter

import (
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/manifest-network/tealcounter/internal/models"
)

func makeHeader(sender types.Address, params *models.TxnParams, fee uint64) (types.Header, error) {
	var gh types.Digest
	if len(params.GenesisHash) != len(gh) {
		return types.Header{}, fmt.Errorf("invalid genesis hash length %d", len(params.GenesisHash))
	}
	copy(gh[:], params.GenesisHash)

	if fee < params.MinFee {
		fee = params.MinFee
	}

	return types.Header{
		Sender:      sender,
		Fee:         types.MicroAlgos(fee),
		FirstValid:  types.Round(params.LastRound),
		LastValid:   types.Round(params.LastRound + ValidityWindow),
		GenesisID:   params.GenesisID,
		GenesisHash: gh,
	}, nil
}

// MakeCreateTxn builds the application create transaction.
func MakeCreateTxn(sender types.Address, params *models.TxnParams, fee uint64, approval, clearProg []byte, initial uint64) (types.Transaction, error) {
	header, err := makeHeader(sender, params, fee)
	if err != nil {
		return types.Transaction{}, err
	}

	return types.Transaction{
		Type:   types.ApplicationCallTx,
		Header: header,
		ApplicationFields: types.ApplicationFields{
			ApplicationCallTxnFields: types.ApplicationCallTxnFields{
				OnCompletion:      types.NoOpOC,
				ApplicationArgs:   [][]byte{EncodeUint64(initial)},
				ApprovalProgram:   approval,
				ClearStateProgram: clearProg,
				GlobalStateSchema: types.StateSchema{NumUint: GlobalInts, NumByteSlice: GlobalByteSlices},
				LocalStateSchema:  types.StateSchema{NumUint: LocalInts, NumByteSlice: LocalByteSlices},
			},
		},
	}, nil
}

// MakeCallTxn builds a NoOp call of method.
func MakeCallTxn(sender types.Address, params *models.TxnParams, fee uint64, appID uint64, method Method) (types.Transaction, error) {
	header, err := makeHeader(sender, params, fee)
	if err != nil {
		return types.Transaction{}, err
	}

	return types.Transaction{
		Type:   types.ApplicationCallTx,
		Header: header,
		ApplicationFields: types.ApplicationFields{
			ApplicationCallTxnFields: types.ApplicationCallTxnFields{
				ApplicationID:   types.AppIndex(appID),
				OnCompletion:    types.NoOpOC,
				ApplicationArgs: [][]byte{[]byte(method)},
			},
		},
	}, nil
}

// MakeDeleteTxn builds the application delete transaction.
func MakeDeleteTxn(sender types.Address, params *models.TxnParams, fee uint64, appID uint64) (types.Transaction, error) {
	header, err := makeHeader(sender, params, fee)
	if err != nil {
		return types.Transaction{}, err
	}

	return types.Transaction{
		Type:   types.ApplicationCallTx,
		Header: header,
		ApplicationFields: types.ApplicationFields{
			ApplicationCallTxnFields: types.ApplicationCallTxnFields{
				ApplicationID: types.AppIndex(appID),
				OnCompletion:  types.DeleteApplicationOC,
			},
		},
	}, nil
}

// MakePaymentTxn builds a payment of amount microalgos.
func MakePaymentTxn(from, to types.Address, params *models.TxnParams, fee uint64, amount uint64) (types.Transaction, error) {
	header, err := makeHeader(from, params, fee)
	if err != nil {
		return types.Transaction{}, err
	}

	return types.Transaction{
		Type:   types.PaymentTx,
		Header: header,
		PaymentTxnFields: types.PaymentTxnFields{
			Receiver: to,
			Amount:   types.MicroAlgos(amount),
		},
	}, nil
}
