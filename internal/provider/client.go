package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Error is a non-2xx response from the provider.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: status %d: %s", e.Op, e.Status, e.Message)
}

// NotFound reports whether the provider said the resource does not exist.
func (e *Error) NotFound() bool { return e.Status == http.StatusNotFound }

// Client talks to the payment provider over HTTP. Constructed once at process
// start and injected; the base URL is configurable so tests can point it at a
// fake server.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateIntent creates a transaction for the given amount in minor units.
func (c *Client) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	var out Intent
	if err := c.do(ctx, http.MethodPost, "/payment_intents", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetIntent fetches the authoritative transaction state.
func (c *Client) GetIntent(ctx context.Context, id string) (*Intent, error) {
	var out Intent
	if err := c.do(ctx, http.MethodGet, "/payment_intents/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CaptureIntent captures a manually-captured transaction.
func (c *Client) CaptureIntent(ctx context.Context, id string) (*Intent, error) {
	var out Intent
	if err := c.do(ctx, http.MethodPost, "/payment_intents/"+id+"/capture", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelIntent cancels a transaction that has not succeeded.
func (c *Client) CancelIntent(ctx context.Context, id string) (*Intent, error) {
	var out Intent
	if err := c.do(ctx, http.MethodPost, "/payment_intents/"+id+"/cancel", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DispatchToReader pushes a transaction to a physical reader for presentment.
func (c *Client) DispatchToReader(ctx context.Context, readerID, intentID string) (*Reader, error) {
	body := map[string]string{"payment_intent": intentID}
	var out Reader
	if err := c.do(ctx, http.MethodPost, "/readers/"+readerID+"/process_payment_intent", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReader fetches a registered reader's current state.
func (c *Client) GetReader(ctx context.Context, id string) (*Reader, error) {
	var out Reader
	if err := c.do(ctx, http.MethodGet, "/readers/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCheckoutSession creates a hosted checkout page for the amount.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CreateCheckoutParams) (*CheckoutSession, error) {
	var out CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/checkout_sessions", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCheckoutSession fetches a hosted checkout session.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	var out CheckoutSession
	if err := c.do(ctx, http.MethodGet, "/checkout_sessions/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		_ = json.Unmarshal(data, &env)
		msg := env.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Op: method + " " + path, Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode provider response: %w", err)
		}
	}
	return nil
}
