// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package client talks to a running engine daemon.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luxfi/burnengine/pkg/api"
	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/units"
)

// Error is a non-2xx reply from the daemon
type Error struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine api: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an API error with the given code
func IsCode(err error, code string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// Client is the engine API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the daemon at baseURL
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
			return &Error{Status: resp.StatusCode, Code: "unknown", Message: resp.Status}
		}
		return &Error{Status: resp.StatusCode, Code: e.Code, Message: e.Error, RequestID: e.RequestID}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.do(ctx, "GET", "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Deposit hands fee income to the engine and returns the frozen total
func (c *Client) Deposit(ctx context.Context, from ids.Address, amount units.Amount) (units.Amount, error) {
	var out api.DepositResponse
	err := c.do(ctx, "POST", "/v1/deposit", api.DepositRequest{From: from, Amount: amount}, &out)
	return out.Frozen, err
}

// Thaw opens the next round
func (c *Client) Thaw(ctx context.Context) (*auction.Round, error) {
	var out auction.Round
	if err := c.do(ctx, "POST", "/v1/thaw", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settle burns tokenAmount of caller's approved tokens for base currency
func (c *Client) Settle(ctx context.Context, caller ids.Address, tokenAmount units.Amount) (*settlement.SettleResult, error) {
	var out settlement.SettleResult
	if err := c.do(ctx, "POST", "/v1/settle", api.SettleRequest{Caller: caller, TokenAmount: tokenAmount}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CurrentAuction(ctx context.Context) (*settlement.AuctionSnapshot, error) {
	var out settlement.AuctionSnapshot
	if err := c.do(ctx, "GET", "/v1/auction/current", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) NextAuction(ctx context.Context) (*settlement.AuctionForecast, error) {
	var out settlement.AuctionForecast
	if err := c.do(ctx, "GET", "/v1/auction/next", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) NextPriceChange(ctx context.Context) (*settlement.PriceChange, error) {
	var out settlement.PriceChange
	if err := c.do(ctx, "GET", "/v1/auction/next-price", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Rounds(ctx context.Context) (*api.RoundsResponse, error) {
	var out api.RoundsResponse
	if err := c.do(ctx, "GET", "/v1/rounds", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Round(ctx context.Context, number uint64) (*auction.Round, error) {
	var out auction.Round
	if err := c.do(ctx, "GET", "/v1/rounds/"+strconv.FormatUint(number, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trades lists recorded trades of a round; limit 0 means no limit
func (c *Client) Trades(ctx context.Context, round uint64, limit int) ([]settlement.Receipt, error) {
	path := "/v1/rounds/" + strconv.FormatUint(round, 10) + "/trades"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out []settlement.Receipt
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) State(ctx context.Context) (*settlement.State, error) {
	var out settlement.State
	if err := c.do(ctx, "GET", "/v1/state", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Account(ctx context.Context, addr ids.Address) (*api.AccountResponse, error) {
	var out api.AccountResponse
	if err := c.do(ctx, "GET", "/v1/accounts/"+addr.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Approve lets the engine burn up to amount of owner's tokens
func (c *Client) Approve(ctx context.Context, owner ids.Address, amount units.Amount) error {
	return c.do(ctx, "POST", "/v1/approve", api.ApproveRequest{Owner: owner, Amount: amount}, nil)
}

// Faucet mints tokens to an account on daemons that allow it
func (c *Client) Faucet(ctx context.Context, to ids.Address, amount units.Amount) error {
	return c.do(ctx, "POST", "/v1/faucet", api.FaucetRequest{To: to, Amount: amount}, nil)
}

// Stream subscribes to engine commits. The channel closes when ctx is done
// or the connection drops.
func (c *Client) Stream(ctx context.Context) (<-chan api.Event, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/v1/stream"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	events := make(chan api.Event)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		for {
			var ev api.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
