package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/manifest-network/tealcounter/internal/config"
	"github.com/manifest-network/tealcounter/internal/metrics"
	"github.com/manifest-network/tealcounter/internal/models"
)

const tokenHeader = "X-Algo-API-Token"

// AlgodClient talks to an algod node over its v2 REST API.
type AlgodClient struct {
	rest *resty.Client
}

// NewAlgodClient returns a client for the node described by cfg.
func NewAlgodClient(cfg config.AlgodConfig) (*AlgodClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rest := resty.New().
		SetBaseURL(cfg.Address).
		SetTimeout(cfg.Timeout).
		SetHeader(tokenHeader, cfg.Token).
		SetError(&APIError{})

	return &AlgodClient{rest: rest}, nil
}

// do runs a request and records its outcome. endpoint is a stable label
// for metrics, not the concrete URL.
func (c *AlgodClient) do(ctx context.Context, endpoint, method, path string, prepare func(*resty.Request)) (*resty.Response, error) {
	start := time.Now()

	req := c.rest.R().SetContext(ctx)
	if prepare != nil {
		prepare(req)
	}

	resp, err := req.Execute(method, path)
	metrics.AlgodRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AlgodRequests.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, fmt.Errorf("algod %s request failed: %w", endpoint, err)
	}

	metrics.AlgodRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode())).Inc()
	if resp.IsError() {
		apiErr, _ := resp.Error().(*APIError)
		if apiErr == nil {
			apiErr = &APIError{}
		}
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = resp.String()
		}
		return nil, apiErr
	}
	return resp, nil
}

// Status returns the node status.
func (c *AlgodClient) Status(ctx context.Context) (*models.NodeStatus, error) {
	var out models.NodeStatus
	_, err := c.do(ctx, "status", resty.MethodGet, "/v2/status", func(r *resty.Request) {
		r.SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForBlockAfter blocks until the node has seen a round after round.
func (c *AlgodClient) WaitForBlockAfter(ctx context.Context, round uint64) (*models.NodeStatus, error) {
	var out models.NodeStatus
	_, err := c.do(ctx, "wait_for_block", resty.MethodGet, "/v2/status/wait-for-block-after/{round}", func(r *resty.Request) {
		r.SetPathParam("round", strconv.FormatUint(round, 10)).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SuggestedParams returns the parameters for building a transaction.
func (c *AlgodClient) SuggestedParams(ctx context.Context) (*models.TxnParams, error) {
	var out models.TxnParams
	_, err := c.do(ctx, "params", resty.MethodGet, "/v2/transactions/params", func(r *resty.Request) {
		r.SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type compileResponse struct {
	Hash   string `json:"hash"`
	Result string `json:"result"`
}

// Compile assembles TEAL source into program bytes.
func (c *AlgodClient) Compile(ctx context.Context, source []byte) ([]byte, error) {
	var out compileResponse
	_, err := c.do(ctx, "compile", resty.MethodPost, "/v2/teal/compile", func(r *resty.Request) {
		r.SetHeader("Content-Type", "text/plain").SetBody(source).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}

	program, err := base64.StdEncoding.DecodeString(out.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode compiled program: %w", err)
	}
	return program, nil
}

type sendResponse struct {
	TxID string `json:"txId"`
}

// SendRawTransaction submits a signed, msgpack encoded transaction.
func (c *AlgodClient) SendRawTransaction(ctx context.Context, stx []byte) (string, error) {
	var out sendResponse
	_, err := c.do(ctx, "send", resty.MethodPost, "/v2/transactions", func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/x-binary").SetBody(stx).SetResult(&out)
	})
	if err != nil {
		return "", err
	}
	return out.TxID, nil
}

// PendingTransaction returns the pool view of txID.
func (c *AlgodClient) PendingTransaction(ctx context.Context, txID string) (*models.PendingTransaction, error) {
	var out models.PendingTransaction
	_, err := c.do(ctx, "pending", resty.MethodGet, "/v2/transactions/pending/{txid}", func(r *resty.Request) {
		r.SetPathParam("txid", txID).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBlock returns the block at round, decoded from msgpack.
func (c *AlgodClient) GetBlock(ctx context.Context, round uint64) (*models.Block, error) {
	resp, err := c.do(ctx, "block", resty.MethodGet, "/v2/blocks/{round}", func(r *resty.Request) {
		r.SetPathParam("round", strconv.FormatUint(round, 10)).
			SetQueryParam("format", "msgpack").
			SetHeader("Accept", "application/msgpack")
	})
	if err != nil {
		return nil, err
	}
	return models.DecodeBlock(round, resp.Body())
}

// GetAccount returns account information including created applications.
func (c *AlgodClient) GetAccount(ctx context.Context, address string) (*models.Account, error) {
	var out models.Account
	_, err := c.do(ctx, "account", resty.MethodGet, "/v2/accounts/{address}", func(r *resty.Request) {
		r.SetPathParam("address", address).SetResult(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
