// Package network is a thin client for the ledger explorer REST API.
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/config"
	"aura-protocol-go/internal/failure"
	"aura-protocol-go/internal/transaction"
)

// CreditsProgram holds the public balance mapping.
const CreditsProgram = "credits.aleo"

// Client talks to one explorer endpoint.
type Client struct {
	baseURL    string
	network    string
	programID  string
	httpClient *http.Client
}

// NewClient creates a new explorer client
func NewClient(cfg config.NetworkConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.ExplorerEndpoint(), "/"),
		network:    cfg.Name,
		programID:  cfg.ProgramID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the explorer base URL.
func (c *Client) Endpoint() string { return c.baseURL }

// ProgramID returns the program queried by the mapping helpers.
func (c *Client) ProgramID() string { return c.programID }

// get performs a GET and returns the body. Non-2xx responses are errors.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.Wrap(failure.KindNetwork, "GET "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure.Wrap(failure.KindNetwork, "GET "+path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &failure.Error{
			Kind:    failure.KindNetwork,
			Op:      "GET " + path,
			Message: fmt.Sprintf("API request failed: %d", resp.StatusCode),
		}
	}
	return body, nil
}

// decodeValue turns a JSON-or-plain response into a string. JSON null is "".
func decodeValue(body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return strings.TrimSpace(string(body))
	}
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.TrimSpace(string(body))
	}
}

// GetBalance returns the public balance of address in credits.
func (c *Client) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	body, err := c.get(ctx, fmt.Sprintf("/program/%s/mapping/account/%s", CreditsProgram, url.PathEscape(address)))
	if err != nil {
		return decimal.Zero, err
	}

	value := decodeValue(body)
	if value == "" {
		return decimal.Zero, nil
	}
	micro, err := ParseInteger(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance %q: %w", value, err)
	}
	return transaction.FromMicrocredits(micro), nil
}

// GetProgram returns the source of a deployed program.
func (c *Client) GetProgram(ctx context.Context, programID string) (string, error) {
	body, err := c.get(ctx, "/program/"+url.PathEscape(programID))
	if err != nil {
		return "", err
	}
	return decodeValue(body), nil
}

// IsProgramDeployed reports whether the explorer knows programID.
func (c *Client) IsProgramDeployed(ctx context.Context, programID string) bool {
	_, err := c.GetProgram(ctx, programID)
	return err == nil
}

// GetMappingValue reads program/mapping[key]. A missing entry is "".
func (c *Client) GetMappingValue(ctx context.Context, programID, mapping, key string) (string, error) {
	path := fmt.Sprintf("/program/%s/mapping/%s/%s", url.PathEscape(programID), url.PathEscape(mapping), url.PathEscape(key))
	body, err := c.get(ctx, path)
	if err != nil {
		return "", err
	}
	return decodeValue(body), nil
}

// GetLatestHeight returns the latest block height.
func (c *Client) GetLatestHeight(ctx context.Context) (int64, error) {
	body, err := c.get(ctx, "/latest/height")
	if err != nil {
		return 0, err
	}
	height, err := strconv.ParseInt(decodeValue(body), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse height: %w", err)
	}
	return height, nil
}

// GetBlock returns the decoded block at height.
func (c *Client) GetBlock(ctx context.Context, height int64) (map[string]any, error) {
	body, err := c.get(ctx, fmt.Sprintf("/block/%d", height))
	if err != nil {
		return nil, err
	}
	var block map[string]any
	if err := json.Unmarshal(body, &block); err != nil {
		return nil, fmt.Errorf("failed to decode block %d: %w", height, err)
	}
	return block, nil
}

// VerificationCount returns how many verifications address has on-chain.
func (c *Client) VerificationCount(ctx context.Context, address string) (int64, error) {
	value, err := c.GetMappingValue(ctx, c.programID, "verification_count", address)
	if err != nil || value == "" {
		return 0, err
	}
	return ParseInteger(value)
}

// PoolLiquidity returns the on-chain liquidity of a pool in credits.
func (c *Client) PoolLiquidity(ctx context.Context, poolID int) (decimal.Decimal, error) {
	value, err := c.GetMappingValue(ctx, c.programID, "pool_liquidity", fmt.Sprintf("%du8", poolID))
	if err != nil || value == "" {
		return decimal.Zero, err
	}
	micro, err := ParseInteger(value)
	if err != nil {
		return decimal.Zero, err
	}
	return transaction.FromMicrocredits(micro), nil
}

// PublicCreditScore returns the public score of address, or nil when none
// is recorded.
func (c *Client) PublicCreditScore(ctx context.Context, address string) (*int64, error) {
	value, err := c.GetMappingValue(ctx, c.programID, "public_credit_scores", address)
	if err != nil || value == "" {
		return nil, err
	}
	score, err := ParseInteger(value)
	if err != nil {
		return nil, err
	}
	return &score, nil
}

var leadingInteger = regexp.MustCompile(`^\s*(\d+)`)

// ParseInteger reads the integer from a typed literal such as "42u64" or
// "3u8.private".
func ParseInteger(literal string) (int64, error) {
	m := leadingInteger.FindStringSubmatch(literal)
	if m == nil {
		return 0, fmt.Errorf("not an integer literal: %q", literal)
	}
	return strconv.ParseInt(m[1], 10, 64)
}

func (c *Client) logFields(op string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"component": "network",
		"op":        op,
		"endpoint":  c.baseURL,
	})
}
