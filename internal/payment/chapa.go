// Package payment wraps the Chapa payment gateway HTTP API. Calls are
// single-attempt; retry policy belongs to the caller.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.chapa.co/v1"

var (
	ErrMissingSecretKey   = errors.New("payment secret key not configured")
	ErrMissingReference   = errors.New("transaction reference required")
	ErrMissingBankDetails = errors.New("transfer requires account name, number and bank code")
)

// Client talks to the Chapa REST API.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(secretKey string) *Client {
	return &Client{
		baseURL:   DefaultBaseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests and sandbox environments.
func NewClientWithBaseURL(secretKey, baseURL string) *Client {
	c := NewClient(secretKey)
	c.baseURL = baseURL
	return c
}

// apiResponse is the common Chapa envelope.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeRequest starts a hosted checkout session.
type InitializeRequest struct {
	Amount      int    `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
}

// Initialization holds the checkout URL the buyer is redirected to.
type Initialization struct {
	CheckoutURL string `json:"checkout_url"`
}

// Verification is the settled state of a transaction.
type Verification struct {
	Paid      bool
	Reference string
	Amount    int
	Currency  string
}

// TransferRequest moves money to a merchant's bank account.
type TransferRequest struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Amount        int    `json:"amount"`
	Currency      string `json:"currency,omitempty"`
	Reason        string `json:"reference,omitempty"`
}

// Bank is one supported payout bank.
type Bank struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*apiResponse, error) {
	if c.secretKey == "" {
		return nil, ErrMissingSecretKey
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling payment gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading gateway response: %w", err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding gateway response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned HTTP %d: %s", resp.StatusCode, envelope.Message)
	}
	return &envelope, nil
}

// Initialize starts a hosted checkout and returns its URL.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*Initialization, error) {
	if req.TxRef == "" {
		return nil, ErrMissingReference
	}
	if req.Currency == "" {
		req.Currency = "ETB"
	}
	envelope, err := c.do(ctx, http.MethodPost, "/transaction/initialize", req)
	if err != nil {
		return nil, err
	}
	var init Initialization
	if err := json.Unmarshal(envelope.Data, &init); err != nil {
		return nil, fmt.Errorf("decoding initialization: %w", err)
	}
	return &init, nil
}

// Verify reports whether the transaction behind txRef settled.
func (c *Client) Verify(ctx context.Context, txRef string) (*Verification, error) {
	if txRef == "" {
		return nil, ErrMissingReference
	}
	envelope, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+txRef, nil)
	if err != nil {
		return nil, err
	}
	var data struct {
		Status    string  `json:"status"`
		Reference string  `json:"reference"`
		Amount    float64 `json:"amount"`
		Currency  string  `json:"currency"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("decoding verification: %w", err)
	}
	return &Verification{
		Paid:      data.Status == "success",
		Reference: data.Reference,
		Amount:    int(data.Amount),
		Currency:  data.Currency,
	}, nil
}

// Refund returns the payment behind chapaRef to the buyer.
func (c *Client) Refund(ctx context.Context, chapaRef string, amount int) error {
	if chapaRef == "" {
		return ErrMissingReference
	}
	body := map[string]any{}
	if amount > 0 {
		body["amount"] = amount
	}
	_, err := c.do(ctx, http.MethodPost, "/refund/"+chapaRef, body)
	return err
}

// Transfer pays out to a merchant bank account and returns the gateway's
// transfer reference.
func (c *Client) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if req.AccountName == "" || req.AccountNumber == "" || req.BankCode == "" {
		return "", ErrMissingBankDetails
	}
	if req.Currency == "" {
		req.Currency = "ETB"
	}
	envelope, err := c.do(ctx, http.MethodPost, "/transfers", req)
	if err != nil {
		return "", err
	}
	var reference string
	if err := json.Unmarshal(envelope.Data, &reference); err != nil {
		// Some responses wrap the reference in an object instead.
		var data struct {
			Reference string `json:"reference"`
		}
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return "", fmt.Errorf("decoding transfer reference: %w", err)
		}
		reference = data.Reference
	}
	return reference, nil
}

// ListBanks returns the banks supported for payouts.
func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/banks", nil)
	if err != nil {
		return nil, err
	}
	var banks []Bank
	if err := json.Unmarshal(envelope.Data, &banks); err != nil {
		return nil, fmt.Errorf("decoding banks: %w", err)
	}
	return banks, nil
}
