// Package peppyrus is the HTTP client for a Peppyrus-style Peppol access
// point. It moves bytes to and from the gateway; building and decoding the
// invoice documents themselves is the ubl package's job.
package peppyrus

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://api.test.peppyrus.be/"
	DefaultTimeout = 30 * time.Second
)

// ErrNoDocument is returned when a message detail carries no document body.
var ErrNoDocument = errors.New("message contains no document")

// APIError is a non-success response from the gateway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

// Message is an inbox entry as listed by the gateway.
type Message struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Date   string `json:"date"`
}

type messageDetail struct {
	Document string `json:"document"`
}

// Client talks to the access point. It performs no retries; retry policy
// belongs to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures the client
type Option func(*Client)

// WithBaseURL sets a custom gateway base URL
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets a custom HTTP timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a gateway client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/") + "/"
	return c
}

// Send transmits serialized invoice bytes to the gateway and returns the
// gateway response body.
func (c *Client) Send(ctx context.Context, xmlBytes []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"v1/message/send", bytes.NewReader(xmlBytes))
	if err != nil {
		return "", fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send invoice: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read send response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.log.Info().Int("status", resp.StatusCode).Int("bytes", len(xmlBytes)).Msg("invoice sent")
	return string(body), nil
}

// ListInbox lists unread inbox messages. A 404 from the gateway means an
// empty inbox, not an error.
func (c *Client) ListInbox(ctx context.Context) ([]Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"v1/message/list?folder=INBOX", nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var messages []Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode inbox listing: %w", err)
	}

	c.log.Debug().Int("count", len(messages)).Msg("listed inbox")
	return messages, nil
}

// GetDocument fetches one message and returns its document payload as raw
// XML bytes, base64-decoded. Decoding the XML itself is the caller's job.
func (c *Client) GetDocument(ctx context.Context, messageID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"v1/message/"+messageID, nil)
	if err != nil {
		return nil, fmt.Errorf("build detail request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var detail messageDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return nil, fmt.Errorf("decode message %s: %w", messageID, err)
	}
	if detail.Document == "" {
		return nil, ErrNoDocument
	}

	raw, err := base64.StdEncoding.DecodeString(detail.Document)
	if err != nil {
		return nil, fmt.Errorf("decode document of message %s: %w", messageID, err)
	}
	return raw, nil
}
