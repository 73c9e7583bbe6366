package verify

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the transaction is absent from the scanned block.
var ErrNotFound = errors.New("verify: transaction not found")

// NotFoundError reports a transaction that is absent from its block.
type NotFoundError struct {
	Round uint64
	TxID  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("verify: transaction %s not found in round %d", e.TxID, e.Round)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
