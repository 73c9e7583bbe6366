package client

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrConfirmationTimeout indicates a transaction was not confirmed within
// the requested number of rounds.
var ErrConfirmationTimeout = errors.New("transaction not confirmed in time")

// APIError is an error response from algod.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("algod returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an algod 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// PoolError indicates the node rejected a transaction from its pool.
type PoolError struct {
	TxID    string
	Message string
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("transaction %s rejected: %s", e.TxID, e.Message)
}
