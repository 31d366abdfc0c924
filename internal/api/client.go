package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/EmpoweredVote/jobmarket/internal/config"
	"github.com/EmpoweredVote/jobmarket/internal/logger"
)

// TokenHeader carries the bearer token on authenticated requests.
const TokenHeader = "x-access-token"

const (
	providerName          = "media-api"
	defaultMaxConcurrency = 8
)

// Options configures a Client. Zero values fall back to the package defaults.
type Options struct {
	BaseURL        string
	UploadsURL     string // defaults to BaseURL + "uploads/"
	AppID          string
	AvatarPolicy   AvatarPolicy
	Timeout        time.Duration
	RateLimit      float64 // requests per second, 0 disables limiting
	MaxConcurrency int     // per-call enrichment fan-out
	HTTPClient     *http.Client
}

// Client talks to the media API. It holds no per-user state: every
// authenticated call takes the bearer token as an argument, so one Client is
// safe to share between goroutines and users.
type Client struct {
	baseURL        string
	uploadsURL     string
	appID          string
	avatarPolicy   AvatarPolicy
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxConcurrency int
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	base, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	uploads := opts.UploadsURL
	if uploads == "" {
		uploads = base + "uploads/"
	} else if !strings.HasSuffix(uploads, "/") {
		uploads += "/"
	}

	appID := norm.NFC.String(strings.TrimSpace(opts.AppID))
	if appID == "" {
		appID = config.DefaultAppID
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = config.DefaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL:        base,
		uploadsURL:     uploads,
		appID:          appID,
		avatarPolicy:   opts.AvatarPolicy,
		httpClient:     httpClient,
		maxConcurrency: opts.MaxConcurrency,
	}
	if c.maxConcurrency <= 0 {
		c.maxConcurrency = defaultMaxConcurrency
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// NewFromConfig builds a Client from the loaded configuration.
func NewFromConfig(cfg config.Config) (*Client, error) {
	policy, err := ParseAvatarPolicy(cfg.AvatarPolicy)
	if err != nil {
		return nil, err
	}
	return NewClient(Options{
		BaseURL:      cfg.APIBaseURL,
		UploadsURL:   cfg.UploadsURL,
		AppID:        cfg.AppID,
		AvatarPolicy: policy,
		Timeout:      cfg.HTTPTimeout,
		RateLimit:    cfg.APIRateLimit,
	})
}

// AppID returns the application identifier used to build tags.
func (c *Client) AppID() string { return c.appID }

// UploadsURL returns the prefix that file names are resolved against.
func (c *Client) UploadsURL() string { return c.uploadsURL }

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = config.DefaultAPIBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidBaseURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw, nil
}

// request describes one call to the media API.
type request struct {
	method      string
	path        string // relative to the base URL, already escaped
	token       string
	auth        bool
	body        io.Reader
	contentType string
}

func jsonRequest(method, path, token string, auth bool, payload any) (request, error) {
	r := request{method: method, path: path, token: token, auth: auth}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return r, fmt.Errorf("encode request: %w", err)
		}
		r.body = bytes.NewReader(data)
		r.contentType = "application/json"
	}
	return r, nil
}

// do performs r and decodes the response body into out. out may be nil when
// the caller does not need the body.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if r.auth && strings.TrimSpace(r.token) == "" {
		return ErrMissingToken
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Method: r.method, Path: r.path, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set(TokenHeader, r.token)
	}

	logger.LogRequest(providerName, r.method, r.path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	logger.LogResponse(providerName, r.method, r.path, resp.StatusCode, time.Since(start))
	if err != nil {
		return &TransportError{Method: r.method, Path: r.path, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	return decodeResponse(r, resp.StatusCode, body, out)
}

// decodeResponse classifies a response. A structured error body wins over the
// status code, so a 2xx carrying {"error": ...} is still an ApplicationError.
func decodeResponse(r request, status int, body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env errorEnvelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.hasError() {
			return &ApplicationError{StatusCode: status, Message: env.Message, Detail: env.detail()}
		}
	}

	if status < 200 || status > 299 {
		return &TransportError{Method: r.method, Path: r.path, StatusCode: status}
	}

	if out == nil || len(trimmed) == 0 {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &TransportError{Method: r.method, Path: r.path, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func escapePath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.Join(escaped, "/")
}

func itoa(n int) string { return strconv.Itoa(n) }
