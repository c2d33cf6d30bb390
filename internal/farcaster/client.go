// Package farcaster is a thin client for a Neynar-compatible Farcaster API.
// Read-only queries retry on transient failures; publishing never retries
// because a replayed publish is a duplicate cast.
package farcaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/clients"
)

const defaultBaseURL = "https://api.neynar.com/v2/farcaster"

// APIError is a non-2xx response from the Farcaster API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("farcaster api returned status %d: %s", e.StatusCode, e.Body)
}

// Config configures the client.
type Config struct {
	APIKey     string
	SignerUUID string
	BaseURL    string
	Timeout    time.Duration
}

// Client talks to the Farcaster API.
type Client struct {
	baseURL      string
	apiKey       string
	signerUUID   string
	client       *http.Client
	readExecutor failsafe.Executor[*http.Response]
	pubExecutor  failsafe.Executor[*http.Response]
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// WithReadExecutorConfig overrides retry behavior for read-only queries.
func WithReadExecutorConfig(cfg clients.HTTPExecutorConfig) Option {
	return func(c *Client) {
		c.readExecutor = clients.NewHTTPExecutor(cfg)
	}
}

// NewClient creates a Farcaster API client.
func NewClient(cfg Config, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		signerUUID: cfg.SignerUUID,
		client: &http.Client{
			Timeout:   timeout,
			Transport: clients.DefaultTransport(),
		},
		readExecutor: clients.NewHTTPExecutor(clients.DefaultHTTPExecutorConfig()),
		pubExecutor:  clients.NewHTTPExecutor(clients.NoRetryConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserByFID fetches one user profile.
func (c *Client) UserByFID(ctx context.Context, fid int64) (*User, error) {
	query := url.Values{}
	query.Set("fids", strconv.FormatInt(fid, 10))

	var out usersResponse
	if err := c.getJSON(ctx, "/user/bulk", query, &out); err != nil {
		return nil, fmt.Errorf("fetch user %d: %w", fid, err)
	}
	if len(out.Users) == 0 {
		return nil, nil
	}
	return &out.Users[0], nil
}

// RecentCasts fetches a user's latest casts, newest first, without recasts.
func (c *Client) RecentCasts(ctx context.Context, fid int64, limit int) ([]Cast, error) {
	query := url.Values{}
	query.Set("feed_type", "filter")
	query.Set("filter_type", "fids")
	query.Set("fids", strconv.FormatInt(fid, 10))
	query.Set("with_recasts", "false")
	query.Set("limit", strconv.Itoa(limit))

	var out feedResponse
	if err := c.getJSON(ctx, "/feed", query, &out); err != nil {
		return nil, fmt.Errorf("fetch feed for %d: %w", fid, err)
	}
	return out.Casts, nil
}

// Conversation fetches a cast's ancestry chain.
func (c *Client) Conversation(ctx context.Context, castHash string, replyDepth int) (*Conversation, error) {
	query := url.Values{}
	query.Set("identifier", castHash)
	query.Set("type", "hash")
	query.Set("reply_depth", strconv.Itoa(replyDepth))
	query.Set("include_chronological_parent_casts", "true")

	var out conversationResponse
	if err := c.getJSON(ctx, "/cast/conversation", query, &out); err != nil {
		return nil, fmt.Errorf("fetch conversation %s: %w", castHash, err)
	}
	return &Conversation{
		Cast:                     out.Conversation.Cast.Cast,
		ChronologicalParentCasts: out.Conversation.Cast.ChronologicalParentCasts,
	}, nil
}

// PublishCast posts a new cast, optionally as a reply to parentHash.
// Never retried: the caller decides what a failed publish means.
func (c *Client) PublishCast(ctx context.Context, text, parentHash string) (*Cast, error) {
	payload, err := json.Marshal(publishRequest{
		SignerUUID: strings.TrimSpace(c.signerUUID),
		Text:       text,
		Parent:     parentHash,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal publish request: %w", err)
	}

	resp, err := clients.ExecuteHTTP(ctx, c.pubExecutor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cast", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		return c.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("publish cast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: readBodySnippet(resp)}
	}

	var out publishResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode publish response: %w", err)
	}
	return &out.Cast, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	resp, err := clients.ExecuteHTTP(ctx, c.readExecutor, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		return c.client.Do(req)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: readBodySnippet(resp)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readBodySnippet(resp *http.Response) string {
	buf := make([]byte, 512)
	n, _ := resp.Body.Read(buf)
	return strings.TrimSpace(string(buf[:n]))
}
