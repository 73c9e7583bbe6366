// Package locator finds a confirmed transaction inside a block by
// recomputing the identifier of every transaction the block holds.
package locator

import (
	"log/slog"

	"github.com/manifest-network/tealcounter/internal/models"
)

// Locator scans blocks for transactions.
type Locator struct {
	deriver Deriver
}

// New returns a Locator using deriver, or the SDK deriver when nil.
func New(deriver Deriver) *Locator {
	if deriver == nil {
		deriver = SDKDeriver{}
	}
	return &Locator{deriver: deriver}
}

// Find returns the block record whose recomputed identifier is targetID.
// The second result is false when no record matches. The block is not
// modified.
func (l *Locator) Find(block *models.Block, targetID string) (models.Record, bool) {
	if block == nil {
		return nil, false
	}

	for i, stib := range block.Txns {
		id, err := l.TxID(block, stib)
		if err != nil {
			slog.Debug("Skipping transaction with underivable id", "round", block.Round, "index", i, "error", err)
			continue
		}
		if id == targetID {
			return stib, true
		}
	}

	return nil, false
}

// TxID derives the identifier of a record taken from block. The genesis
// hash is always attached; the genesis id only when the record says it
// was stripped (hgi).
func (l *Locator) TxID(block *models.Block, stib models.Record) (string, error) {
	body, ok := stib["txn"].(map[string]any)
	if !ok {
		return "", errNoBody
	}

	genesisID := ""
	if hgi, _ := stib["hgi"].(bool); hgi {
		genesisID = block.GenesisID
	}

	return l.deriver.TxID(body, block.GenesisHash, genesisID, EnvelopeOf(stib))
}

// Transactions returns every transaction of the block with its identifier.
// Records whose id cannot be derived are skipped.
func (l *Locator) Transactions(block *models.Block) []models.Transaction {
	out := make([]models.Transaction, 0, len(block.Txns))
	for i, stib := range block.Txns {
		id, err := l.TxID(block, stib)
		if err != nil {
			slog.Debug("Skipping transaction with underivable id", "round", block.Round, "index", i, "error", err)
			continue
		}
		out = append(out, models.Transaction{ID: id, Round: block.Round, Record: stib})
	}
	return out
}
