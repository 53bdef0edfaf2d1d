// Package transport implements the HTTP channel to the remote inference
// service: the attestation report endpoint, the streamed chat endpoint
// (server-sent events), and the signature endpoint.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/enclavechat/internal/common"
	"github.com/dmitrijs2005/enclavechat/internal/verification"
)

// Client is the concrete HTTP transport. It satisfies the contracts the
// attestation and verification packages consume.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client for the given base URL. The timeout bounds
// every non-streaming request; streamed chats are bounded by the
// caller's context instead.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetAPIKey swaps the access credential. Callers must invalidate the
// attestation cache after calling this.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// FetchAttestationDocument requests an attestation report for the model,
// embedding the challenge nonce, and returns the parsed response body.
func (c *Client) FetchAttestationDocument(ctx context.Context, model, signingAlgo, nonceHex string) (map[string]any, error) {
	q := url.Values{}
	q.Set("model", model)
	q.Set("signing_algo", signingAlgo)
	q.Set("nonce", nonceHex)

	body, err := c.get(ctx, "/v1/attestation/report?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: attestation body unparseable: %v", common.ErrValidation, err)
	}
	return doc, nil
}

// FetchSignature fetches the signature record keyed by chat id. A 404
// maps to common.ErrNotFound, which callers treat as a non-fatal
// "signature not fetched" outcome.
func (c *Client) FetchSignature(ctx context.Context, chatID, model, signingAlgo string) (*verification.Signature, error) {
	q := url.Values{}
	q.Set("model", model)
	q.Set("signing_algo", signingAlgo)

	body, err := c.get(ctx, "/v1/signature/"+url.PathEscape(chatID)+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var sig verification.Signature
	if err := json.Unmarshal(body, &sig); err != nil {
		return nil, fmt.Errorf("%w: signature body unparseable: %v", common.ErrValidation, err)
	}
	return &sig, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, common.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", common.ErrUnavailable, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// ChatRequest is the streamed chat request payload.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// ChatMessage is one entry of the request message list. Content may be
// an ECIES hex blob when end-to-end encryption was negotiated.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Serialize produces the exact bytes sent on the wire. Callers hash this
// same serialization for integrity verification.
func (r *ChatRequest) Serialize() ([]byte, error) {
	return json.Marshal(r)
}

// ChatEvent is one incrementally delivered stream event. Delta carries
// the raw response chunk (possibly an ECIES blob); ID carries the chat
// identifier when the remote includes one.
type ChatEvent struct {
	ID    string
	Delta string
}

// ChatStream posts the chat request and delivers events to fn in arrival
// order until the terminal marker. An error from fn aborts the stream
// and is returned unchanged.
func (c *Client) ChatStream(ctx context.Context, chatReq *ChatRequest, fn func(ChatEvent) error) error {
	body, err := chatReq.Serialize()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)

	// The streaming client carries no global timeout: a chat may
	// legitimately run longer than any single request. Cancellation
	// comes from ctx.
	resp, err := (&http.Client{Transport: c.httpClient.Transport}).Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", common.ErrUnavailable, resp.StatusCode)
	}

	return readEvents(resp.Body, fn)
}
