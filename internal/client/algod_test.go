package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/tealcounter/internal/config"
	"github.com/manifest-network/tealcounter/internal/models"
)

const testToken = "test-token"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, handler http.Handler) *AlgodClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewAlgodClient(config.AlgodConfig{Address: srv.URL, Token: testToken, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewAlgodClientValidates(t *testing.T) {
	_, err := NewAlgodClient(config.AlgodConfig{Address: "", Timeout: time.Second})
	assert.Error(t, err)
}

func TestStatusSendsToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testToken, r.Header.Get(tokenHeader))
		assert.Equal(t, "/v2/status", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"last-round": 42})
	}))

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), status.LastRound)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "account not found"})
	}))

	_, err := c.GetAccount(context.Background(), "ADDR")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "account not found", apiErr.Message)
	assert.True(t, IsNotFound(err))
}

func TestSuggestedParamsAndCompile(t *testing.T) {
	gh := []byte("0123456789abcdef0123456789abcdef")
	program := []byte{0x05, 0x20, 0x01}

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/transactions/params", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"consensus-version": "future",
			"fee":               0,
			"genesis-hash":      base64.StdEncoding.EncodeToString(gh),
			"genesis-id":        "sandnet-v1",
			"last-round":        100,
			"min-fee":           1000,
		})
	})
	mux.HandleFunc("/v2/teal/compile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "#pragma version 5\nint 1\n", string(body))
		writeJSON(w, http.StatusOK, map[string]any{"hash": "H", "result": base64.StdEncoding.EncodeToString(program)})
	})
	c := newTestClient(t, mux)

	params, err := c.SuggestedParams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gh, params.GenesisHash)
	assert.Equal(t, "sandnet-v1", params.GenesisID)
	assert.Equal(t, uint64(100), params.LastRound)
	assert.Equal(t, uint64(1000), params.MinFee)

	compiled, err := c.Compile(context.Background(), []byte("#pragma version 5\nint 1\n"))
	require.NoError(t, err)
	assert.Equal(t, program, compiled)
}

func TestSendRawTransaction(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/transactions", r.URL.Path)
		assert.Equal(t, "application/x-binary", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte{1, 2, 3}, body)
		writeJSON(w, http.StatusOK, map[string]any{"txId": "TXID"})
	}))

	txID, err := c.SendRawTransaction(context.Background(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "TXID", txID)
}

func TestGetBlock(t *testing.T) {
	raw, err := models.EncodeRecord(models.Record{
		"block": map[string]any{
			"gen":  "sandnet-v1",
			"gh":   make([]byte, 32),
			"txns": []any{map[string]any{"txn": map[string]any{"type": "pay"}}},
		},
	})
	require.NoError(t, err)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/blocks/7", r.URL.Path)
		assert.Equal(t, "msgpack", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/msgpack")
		_, _ = w.Write(raw)
	}))

	block, err := c.GetBlock(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), block.Round)
	assert.Equal(t, "sandnet-v1", block.GenesisID)
	require.Len(t, block.Txns, 1)
}

func TestGetAccount(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/accounts/CREATOR", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"address": "CREATOR",
			"amount":  5000000,
			"created-apps": []any{map[string]any{
				"id": 77,
				"params": map[string]any{
					"creator": "CREATOR",
					"global-state": []any{map[string]any{
						"key":   base64.StdEncoding.EncodeToString([]byte("counterValue")),
						"value": map[string]any{"type": 2, "bytes": "", "uint": 15},
					}},
				},
			}},
		})
	}))

	acct, err := c.GetAccount(context.Background(), "CREATOR")
	require.NoError(t, err)
	require.Len(t, acct.CreatedApps, 1)
	app := acct.CreatedApps[0]
	assert.Equal(t, uint64(77), app.ID)
	require.Len(t, app.Params.GlobalState, 1)
	assert.Equal(t, uint64(15), app.Params.GlobalState[0].Value.Uint)
	assert.Equal(t, models.TealUintType, app.Params.GlobalState[0].Value.Type)
}

// fakeNode simulates rounds advancing and a transaction confirming at a given round.
type fakeNode struct {
	mu          sync.Mutex
	round       uint64
	confirmAt   uint64
	poolError   string
	knownTxn    bool
	waitedAfter []uint64
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch {
	case r.URL.Path == "/v2/status":
		writeJSON(w, http.StatusOK, map[string]any{"last-round": n.round})
	case strings.HasPrefix(r.URL.Path, "/v2/status/wait-for-block-after/"):
		n.round++
		n.waitedAfter = append(n.waitedAfter, n.round-1)
		writeJSON(w, http.StatusOK, map[string]any{"last-round": n.round})
	case r.URL.Path == "/v2/transactions/pending/TX":
		if !n.knownTxn {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "txn not found"})
			return
		}
		confirmed := uint64(0)
		if n.confirmAt > 0 && n.round >= n.confirmAt {
			confirmed = n.confirmAt
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"confirmed-round":   confirmed,
			"pool-error":        n.poolError,
			"application-index": 77,
		})
	default:
		http.NotFound(w, r)
	}
}

func TestWaitForConfirmation(t *testing.T) {
	node := &fakeNode{round: 10, confirmAt: 12, knownTxn: true}
	c := newTestClient(t, node)

	pending, err := c.WaitForConfirmation(context.Background(), "TX", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), pending.ConfirmedRound)
	assert.Equal(t, uint64(77), pending.ApplicationIndex)
}

func TestWaitForConfirmationPoolError(t *testing.T) {
	node := &fakeNode{round: 10, knownTxn: true, poolError: "logic eval error"}
	c := newTestClient(t, node)

	_, err := c.WaitForConfirmation(context.Background(), "TX", 4)
	var poolErr *PoolError
	require.True(t, errors.As(err, &poolErr))
	assert.Contains(t, poolErr.Message, "logic eval error")
}

func TestWaitForConfirmationTimeout(t *testing.T) {
	node := &fakeNode{round: 10}
	c := newTestClient(t, node)

	_, err := c.WaitForConfirmation(context.Background(), "TX", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfirmationTimeout))
	assert.Len(t, node.waitedAfter, 3)
}
