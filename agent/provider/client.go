package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

const maxResponseBodyBytes = 2 << 20

// ClientConfig configures the transport-backed tool provider adapter.
type ClientConfig struct {
	URL     string        `envconfig:"URL" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// ClientOption customizes Client.
type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client calls a tool provider Server over HTTP. Transport failures and
// malformed replies surface as ErrToolUnavailable; typed failures reported
// by the server map back onto the shared sentinel errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ contractx.ToolProvider = (*Client)(nil)

func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("tool provider url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid tool provider url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]contractx.Product, error) {
	var products []contractx.Product
	if err := c.call(ctx, OpListProducts, struct{}{}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, selector string) (contractx.Product, error) {
	var p contractx.Product
	if err := c.call(ctx, OpGetProduct, getProductRequest{Selector: selector}, &p); err != nil {
		return contractx.Product{}, err
	}
	return p, nil
}

func (c *Client) AddProduct(ctx context.Context, fields contractx.NewProduct) (contractx.Product, error) {
	var p contractx.Product
	if err := c.call(ctx, OpAddProduct, fields, &p); err != nil {
		return contractx.Product{}, err
	}
	return p, nil
}

func (c *Client) GetStats(ctx context.Context) (contractx.ProductStats, error) {
	var stats contractx.ProductStats
	if err := c.call(ctx, OpGetStats, struct{}{}, &stats); err != nil {
		return contractx.ProductStats{}, err
	}
	return stats, nil
}

func (c *Client) call(ctx context.Context, op string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal %s request: %v", contractx.ErrToolUnavailable, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tools/"+op, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build %s request: %v", contractx.ErrToolUnavailable, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", contractx.ErrToolUnavailable, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", contractx.ErrToolUnavailable, op, err)
	}

	var envelope rpcEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: malformed %s response: %v", contractx.ErrToolUnavailable, op, err)
	}

	if resp.StatusCode != http.StatusOK {
		return remoteError(op, resp.StatusCode, envelope.Error)
	}
	if envelope.Error != "" {
		return fmt.Errorf("%w: %s: %s", contractx.ErrToolUnavailable, op, envelope.Error)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("%w: decode %s result: %v", contractx.ErrToolUnavailable, op, err)
		}
	}
	return nil
}

// remoteError restores the typed failure the server reported.
func remoteError(op string, status int, message string) error {
	var sentinel error
	switch status {
	case http.StatusNotFound:
		sentinel = contractx.ErrNotFound
	case http.StatusBadRequest:
		sentinel = contractx.ErrValidation
	case http.StatusServiceUnavailable:
		sentinel = contractx.ErrStoreUnavailable
	case http.StatusGatewayTimeout:
		sentinel = contractx.ErrTimeout
	default:
		sentinel = contractx.ErrToolUnavailable
	}
	if message == "" {
		return fmt.Errorf("%w: %s: http status=%d", sentinel, op, status)
	}
	return fmt.Errorf("%w: %s: %s", sentinel, op, message)
}
