package locator

import (
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/manifest-network/tealcounter/internal/models"
)

// Envelope holds the signature material carried next to a transaction in a
// block. Nil fields were absent from the record.
type Envelope struct {
	Sig  any
	Lsig any
	Msig any
	Sgnr any
}

// EnvelopeOf copies the signature fields present on a block record.
func EnvelopeOf(stib models.Record) Envelope {
	return Envelope{
		Sig:  stib["sig"],
		Lsig: stib["lsig"],
		Msig: stib["msig"],
		Sgnr: stib["sgnr"],
	}
}

func (e Envelope) apply(stxn models.Record) {
	for key, v := range map[string]any{"sig": e.Sig, "lsig": e.Lsig, "msig": e.Msig, "sgnr": e.Sgnr} {
		if v != nil {
			stxn[key] = v
		}
	}
}

// Deriver computes the canonical identifier of a transaction body.
type Deriver interface {
	TxID(body models.Record, genesisHash []byte, genesisID string, env Envelope) (string, error)
}

// DeriverFunc adapts a function to the Deriver interface.
type DeriverFunc func(body models.Record, genesisHash []byte, genesisID string, env Envelope) (string, error)

func (f DeriverFunc) TxID(body models.Record, genesisHash []byte, genesisID string, env Envelope) (string, error) {
	return f(body, genesisHash, genesisID, env)
}

// SDKDeriver rebuilds the signed transaction from the block record and
// derives its id the way the Algorand SDK does.
type SDKDeriver struct{}

func (SDKDeriver) TxID(body models.Record, genesisHash []byte, genesisID string, env Envelope) (string, error) {
	txn := make(models.Record, len(body)+2)
	for k, v := range body {
		txn[k] = v
	}
	if len(genesisHash) > 0 {
		txn["gh"] = genesisHash
	}
	if genesisID != "" {
		txn["gen"] = genesisID
	}

	stxn := models.Record{"txn": txn}
	env.apply(stxn)

	raw, err := models.EncodeRecord(stxn)
	if err != nil {
		return "", err
	}

	var signed types.SignedTxn
	if err := msgpack.Decode(raw, &signed); err != nil {
		return "", fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	return crypto.GetTxID(signed.Txn), nil
}
