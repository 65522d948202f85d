// Package cms is a minimal client for the headless content store: GROQ
// queries over GET and document mutations over POST. Query results are
// memoized per request when the context carries a request cache.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"confsite/internal/platform/config"
	"confsite/internal/platform/tracer"
)

// ErrConflict is returned by Mutate when a created document ID already exists.
var ErrConflict = errors.New("cms: document already exists")

// StatusError is returned for any other non-2xx CMS response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one project/dataset of the content store.
type Client struct {
	baseURL string
	dataset string
	token   string
	http    HTTPDoer
	tracer  tracer.Tracer
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

// WithBaseURL overrides the API host derived from the project ID (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// New builds a client for cfg. The API host is
// https://{project}.api.sanity.io/v{apiVersion}.
func New(cfg config.CMS, opts ...Option) *Client {
	c := &Client{
		baseURL: fmt.Sprintf("https://%s.api.sanity.io/v%s", cfg.ProjectID, cfg.APIVersion),
		dataset: cfg.Dataset,
		token:   cfg.Token,
		http:    &http.Client{Timeout: 15 * time.Second},
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

// Query runs a GROQ query and decodes its result into out. Params are sent
// as $name query parameters with JSON-encoded values.
func (c *Client) Query(ctx context.Context, query string, params map[string]any, out any) error {
	key, err := memoKey(query, params)
	if err != nil {
		return fmt.Errorf("encode query params: %w", err)
	}
	if raw, ok := memoGet(ctx, key); ok {
		return decodeResult(raw, out)
	}

	ctx, span := c.tracer.Start(ctx, tracer.SpanCMSQuery)
	raw, err := c.query(ctx, query, params)
	span.End(err)
	if err != nil {
		return err
	}

	memoPut(ctx, key, raw)
	return decodeResult(raw, out)
}

func (c *Client) query(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("query", query)
	for name, v := range params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	endpoint := fmt.Sprintf("%s/data/query/%s?%s", c.baseURL, url.PathEscape(c.dataset), values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create cms query request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode cms query response: %w", err)
	}
	return resp.Result, nil
}

// Mutation is one entry of a mutate request, e.g. {"create": doc}.
type Mutation map[string]any

// Create returns a create mutation for doc. The document must carry _id and _type.
func Create(doc any) Mutation {
	return Mutation{"create": doc}
}

type mutateRequest struct {
	Mutations []Mutation `json:"mutations"`
}

// MutateResult lists the IDs touched by a mutation.
type MutateResult struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

// Mutate applies mutations in one transaction. A 409 response maps to ErrConflict.
func (c *Client) Mutate(ctx context.Context, mutations ...Mutation) (_ *MutateResult, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanCMSMutate, tracer.Int("cms.mutations", len(mutations)))
	defer func() { span.End(err) }()

	payload, err := json.Marshal(mutateRequest{Mutations: mutations})
	if err != nil {
		return nil, fmt.Errorf("encode mutations: %w", err)
	}

	endpoint := fmt.Sprintf("%s/data/mutate/%s?returnIds=true", c.baseURL, url.PathEscape(c.dataset))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create cms mutate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result MutateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode cms mutate response: %w", err)
	}
	return &result, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read cms response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}
	return body, nil
}

func decodeResult(raw json.RawMessage, out any) error {
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode cms result: %w", err)
	}
	return nil
}

// memoKey is the query followed by its params in key order.
func memoKey(query string, params map[string]any) (string, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString(query)
	for _, name := range names {
		encoded, err := json.Marshal(params[name])
		if err != nil {
			return "", err
		}
		buf.WriteString("\x00")
		buf.WriteString(name)
		buf.WriteString("=")
		buf.Write(encoded)
	}
	return buf.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
