package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/repricing/config"
)

// Service names one upstream backend.
type Service string

const (
	DecisionEngine Service = "decision-engine"
	WebappBFF      Service = "webapp-bff"
	GmailImport    Service = "gmail-import"
	Airports       Service = "airports"
)

const (
	apiKeyHeader  = "X-API-KEY"
	loginAsHeader = "login-as"
)

var (
	ErrTimeout        = errors.New("upstream timeout")
	ErrUnknownService = errors.New("unknown upstream service")
)

// Auth is the caller identity forwarded to user-related upstream calls.
// ImpersonationID is sent only when set; there is no default identity.
type Auth struct {
	Token           string
	ImpersonationID string
}

// UpstreamError is a non-2xx upstream response.
type UpstreamError struct {
	Status  int
	Message string
	Body    json.RawMessage
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

// AsUpstreamError unwraps err into an *UpstreamError when possible.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

type Request struct {
	Service Service
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Auth    *Auth
	Header  http.Header
}

type Response struct {
	Status int
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}

// Err converts a non-2xx response into an *UpstreamError, nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	ue := &UpstreamError{Status: r.Status, Message: errorMessage(r.Body)}
	if json.Valid(r.Body) {
		ue.Body = r.Body
	}
	return ue
}

// errorMessage pulls "error" then "message" out of a JSON error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Error.(string); ok && s != "" {
		return s
	}
	return payload.Message
}

// Client forwards requests to the upstream services with the server-held API key.
type Client struct {
	http    *http.Client
	apiKey  string
	timeout time.Duration
	bases   map[Service]string
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

func WithBaseURL(service Service, base string) ClientOption {
	return func(c *Client) {
		c.bases[service] = strings.TrimRight(base, "/")
	}
}

func NewClient(cfg config.UpstreamConfig, opts ...ClientOption) *Client {
	c := &Client{
		http:    &http.Client{},
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout(),
		bases: map[Service]string{
			DecisionEngine: strings.TrimRight(cfg.DecisionEngineURL, "/"),
			WebappBFF:      strings.TrimRight(cfg.WebappBFFURL, "/"),
			GmailImport:    strings.TrimRight(cfg.GmailImportURL, "/"),
			Airports:       strings.TrimRight(cfg.AirportsURL, "/"),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = 15 * time.Second
	}
	return c
}

// Do performs one upstream call bounded by the client timeout. Non-2xx statuses
// are returned as a Response, not an error; transport failures and timeouts are errors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	base, ok := c.bases[req.Service]
	if !ok || base == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, req.Service)
	}

	endpoint := base + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, c.apiKey)
	if req.Auth != nil {
		if req.Auth.Token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+req.Auth.Token)
		}
		if req.Auth.ImpersonationID != "" {
			httpReq.Header.Set(loginAsHeader, req.Auth.ImpersonationID)
		}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Printf("[gateway] %s %s%s timed out after %s", req.Method, req.Service, req.Path, c.timeout)
			return nil, fmt.Errorf("%w: %s %s", ErrTimeout, req.Service, req.Path)
		}
		return nil, fmt.Errorf("call %s %s: %w", req.Service, req.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s %s", ErrTimeout, req.Service, req.Path)
		}
		return nil, fmt.Errorf("read %s %s: %w", req.Service, req.Path, err)
	}

	if resp.StatusCode >= 300 {
		log.Printf("[gateway] %s %s%s -> %d (token %s)", req.Method, req.Service, req.Path, resp.StatusCode, redactAuth(req.Auth))
	}
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// encodeBody marshals v, sending no body at all for nil or an empty raw message.
func encodeBody(v any) (io.Reader, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(bytes.TrimSpace(b)) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode upstream request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// call performs req and decodes a 2xx body into out; non-2xx becomes an *UpstreamError.
func (c *Client) call(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	return resp.Decode(out)
}

// Redact masks a secret for logging, keeping at most the last four characters.
func Redact(secret string) string {
	if len(secret) <= 8 {
		return "REDACTED"
	}
	return "REDACTED…" + secret[len(secret)-4:]
}

func redactAuth(a *Auth) string {
	if a == nil || a.Token == "" {
		return "none"
	}
	return Redact(a.Token)
}
