// Package bridge implements the wallet provider contract over a local
// JSON-RPC wallet bridge. Results are passed through as decoded JSON so the
// wallet gateway's normalization applies unchanged.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/transaction"
	"aura-protocol-go/internal/wallet"
)

var (
	_ wallet.Connector            = (*Client)(nil)
	_ wallet.Disconnector         = (*Client)(nil)
	_ wallet.TransactionRequester = (*Client)(nil)
	_ wallet.RecordRequester      = (*Client)(nil)
	_ wallet.PlaintextRequester   = (*Client)(nil)
	_ wallet.MessageSigner        = (*Client)(nil)
	_ wallet.PublicKeyHolder      = (*Client)(nil)
	_ wallet.AccountSelector      = (*Client)(nil)
	_ wallet.EventSource          = (*Client)(nil)
)

// Client is a wallet provider backed by a bridge URL.
type Client struct {
	url        string
	httpClient *http.Client

	mu        sync.RWMutex
	publicKey string
	handlers  map[string][]func(any)
}

// New creates a new bridge client
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		handlers:   make(map[string][]func(any)),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     string    `json:"id"`
	Result any       `json:"result"`
	Error  *RPCError `json:"error,omitempty"`
}

// RPCError is an error reported by the bridge. Its message is the wallet's
// own error text.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

func (c *Client) call(ctx context.Context, method string, params ...any) (any, error) {
	if params == nil {
		params = []any{}
	}
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wallet bridge %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wallet bridge %s: status %d", method, resp.StatusCode)
	}

	var out rpcResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	return out.Result, nil
}

// Connect implements wallet.Connector.
func (c *Client) Connect(ctx context.Context, opts wallet.ConnectOptions) (any, error) {
	var params []any
	if opts.DecryptPermission != "" || opts.Network != "" || len(opts.Programs) > 0 {
		params = []any{opts.DecryptPermission, opts.Network, opts.Programs}
	}
	result, err := c.call(ctx, "connect", params...)
	if err != nil {
		return nil, err
	}
	if addr := wallet.ExtractAddress(result); addr != "" {
		c.setPublicKey(addr)
	}
	return result, nil
}

// Disconnect implements wallet.Disconnector.
func (c *Client) Disconnect(ctx context.Context) error {
	_, err := c.call(ctx, "disconnect")
	c.setPublicKey("")
	return err
}

// RequestTransaction implements wallet.TransactionRequester.
func (c *Client) RequestTransaction(ctx context.Context, req *transaction.Request) (any, error) {
	return c.call(ctx, "requestTransaction", req)
}

// RequestRecords implements wallet.RecordRequester.
func (c *Client) RequestRecords(ctx context.Context, programID string) (any, error) {
	return c.call(ctx, "requestRecords", programID)
}

// RequestRecordPlaintexts implements wallet.PlaintextRequester.
func (c *Client) RequestRecordPlaintexts(ctx context.Context, programID string) (any, error) {
	return c.call(ctx, "requestRecordPlaintexts", programID)
}

// SignMessage implements wallet.MessageSigner.
func (c *Client) SignMessage(ctx context.Context, message []byte) (any, error) {
	return c.call(ctx, "signMessage", string(message))
}

// GetSelectedAccount implements wallet.AccountSelector.
func (c *Client) GetSelectedAccount(ctx context.Context) (any, error) {
	return c.call(ctx, "getSelectedAccount")
}

// PublicKey returns the address from the last successful connect.
func (c *Client) PublicKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.publicKey
}

func (c *Client) setPublicKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publicKey = key
}

// On implements wallet.EventSource. Events are delivered by Listen.
func (c *Client) On(event string, handler func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

type bridgeEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// PollEvents fetches pending events from the bridge once and dispatches
// them to the registered handlers.
func (c *Client) PollEvents(ctx context.Context) error {
	result, err := c.call(ctx, "pollEvents")
	if err != nil {
		return err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	var events []bridgeEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return fmt.Errorf("failed to decode events: %w", err)
	}

	for _, ev := range events {
		if ev.Event == wallet.EventDisconnect {
			c.setPublicKey("")
		}
		if ev.Event == wallet.EventAccountChange {
			if addr := wallet.ExtractAddress(ev.Payload); addr != "" {
				c.setPublicKey(addr)
			}
		}

		c.mu.RLock()
		handlers := append([]func(any){}, c.handlers[ev.Event]...)
		c.mu.RUnlock()
		for _, h := range handlers {
			h(ev.Payload)
		}
	}
	return nil
}

// Listen polls for events every interval until ctx is done.
func (c *Client) Listen(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.PollEvents(ctx); err != nil && ctx.Err() == nil {
				logrus.WithField("component", "wallet_bridge").WithError(err).Debug("Event poll failed")
			}
		}
	}
}
