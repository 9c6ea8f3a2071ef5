/*

This file contains the minimal Starknet JSON-RPC client used to submit
invoke transactions. Transaction building/signing beyond assembling the call
is handled by the account abstraction upstream of this client.

*/

package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Call is one protocol-specific contract invocation.
type Call struct {
	ContractAddress string   `json:"contract_address"`
	EntryPoint      string   `json:"entry_point_selector"`
	Calldata        []string `json:"calldata"`
}

// Submitter abstracts transaction submission so the executor can run against
// the live client, the dry-run stub, or a test fake.
type Submitter interface {
	Submit(ctx context.Context, call Call) (txHash string, err error)
}

// Client is a minimal Starknet JSON-RPC client.
type Client struct {
	url        string
	account    string
	httpClient *http.Client
	requestID  atomic.Int64
}

// NewClient creates a JSON-RPC client for the given endpoint and account
// contract address.
func NewClient(url, account string) *Client {
	return &Client{
		url:     url,
		account: account,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type invokeResult struct {
	TransactionHash string `json:"transaction_hash"`
}

// Submit sends one invoke transaction and returns its hash.
func (c *Client) Submit(ctx context.Context, call Call) (string, error) {
	params := map[string]any{
		"invoke_transaction": map[string]any{
			"type":           "INVOKE",
			"sender_address": c.account,
			"calls":          []Call{call},
		},
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "starknet_addInvokeTransaction",
		Params:  params,
		ID:      c.requestID.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit transaction: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var resp rpcResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	var result invokeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return "", fmt.Errorf("unmarshal invoke result: %w", err)
	}
	if result.TransactionHash == "" {
		return "", fmt.Errorf("rpc returned empty transaction hash")
	}
	return result.TransactionHash, nil
}
