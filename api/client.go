package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libmultisig-go/multisig"
	"github.com/bitfsorg/libmultisig-go/owner"
)

// StatusError is a non-2xx API response. It unwraps to the error class the
// status code stands for, so errors.Is(err, multisig.ErrState) works on the
// client side.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: HTTP %d: %s", e.Code, e.Message)
}

// Unwrap maps the status code back to its error class.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return multisig.ErrAuthorization
	case http.StatusNotFound:
		return multisig.ErrNoSuchTransaction
	case http.StatusConflict:
		return multisig.ErrState
	case http.StatusUnprocessableEntity:
		return multisig.ErrExecution
	case http.StatusBadRequest:
		return ErrBadRequest
	}
	return nil
}

// Client calls a Gateway, signing mutating requests with an owner key.
type Client struct {
	baseURL string
	key     *ec.PrivateKey

	// HTTP defaults to a client with a 30s timeout.
	HTTP *http.Client
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewClient returns a client for the gateway at baseURL. key may be nil for
// read-only use and deposits.
func NewClient(baseURL string, key *ec.PrivateKey) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Now:     time.Now,
	}
}

// Owners returns the owner registry.
func (c *Client) Owners(ctx context.Context) (*OwnersResponse, error) {
	var out OwnersResponse
	if err := c.do(ctx, http.MethodGet, "/owners", nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance returns the held balance.
func (c *Client) Balance(ctx context.Context) (uint64, error) {
	var out BalanceResponse
	if err := c.do(ctx, http.MethodGet, "/balance", nil, false, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Transactions lists every transaction, or only pending ones.
func (c *Client) Transactions(ctx context.Context, pendingOnly bool) ([]*multisig.Transaction, error) {
	path := "/transactions"
	if pendingOnly {
		path += "?pending=true"
	}
	var out []*multisig.Transaction
	if err := c.do(ctx, http.MethodGet, path, nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transaction returns one transaction.
func (c *Client) Transaction(ctx context.Context, index uint64) (*multisig.Transaction, error) {
	var out multisig.Transaction
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/transactions/%d", index), nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsConfirmed reports whether addr confirms the transaction.
func (c *Client) IsConfirmed(ctx context.Context, index uint64, addr owner.Address) (bool, error) {
	var out ConfirmationResponse
	path := fmt.Sprintf("/transactions/%d/confirmations/%s", index, url.PathEscape(addr.Hex()))
	if err := c.do(ctx, http.MethodGet, path, nil, false, &out); err != nil {
		return false, err
	}
	return out.Confirmed, nil
}

// Deposit credits amount and returns the new balance.
func (c *Client) Deposit(ctx context.Context, from owner.Address, amount uint64) (uint64, error) {
	var out BalanceResponse
	if err := c.do(ctx, http.MethodPost, "/deposits", DepositRequest{From: from, Amount: amount}, false, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Submit proposes a transfer to the recipient string (address or paymail,
// resolved server side) and returns its index.
func (c *Client) Submit(ctx context.Context, to string, value uint64, data []byte) (uint64, error) {
	req := SubmitRequest{To: to, Value: value, Data: hex.EncodeToString(data)}
	var out SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/transactions", req, true, &out); err != nil {
		return 0, err
	}
	return out.Index, nil
}

// Confirm adds the client's confirmation.
func (c *Client) Confirm(ctx context.Context, index uint64) (*multisig.Transaction, error) {
	return c.transition(ctx, index, "confirm")
}

// Revoke withdraws the client's confirmation.
func (c *Client) Revoke(ctx context.Context, index uint64) (*multisig.Transaction, error) {
	return c.transition(ctx, index, "revoke")
}

// Execute runs an approved transaction.
func (c *Client) Execute(ctx context.Context, index uint64) (*multisig.Transaction, error) {
	return c.transition(ctx, index, "execute")
}

func (c *Client) transition(ctx context.Context, index uint64, op string) (*multisig.Transaction, error) {
	var out multisig.Transaction
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/transactions/%d/%s", index, op), struct{}{}, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, sign bool, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sign {
		if err := SignRequest(req, body, c.key, c.Now()); err != nil {
			return err
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e ErrorResponse
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}
