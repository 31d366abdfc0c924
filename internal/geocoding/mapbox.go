package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/EmpoweredVote/jobmarket/internal/config"
	"github.com/EmpoweredVote/jobmarket/internal/logger"
)

const providerName = "mapbox"

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("search query is required")

// Result is one place candidate.
type Result struct {
	PlaceName   string    `json:"place_name"`
	Coordinates []float64 `json:"coordinates"` // longitude, latitude
	Text        string    `json:"text"`
}

// ThirdPartyError is any failure of the geocoding provider. It is kept apart
// from the media API errors so callers can treat an outage separately.
type ThirdPartyError struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *ThirdPartyError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ThirdPartyError) Unwrap() error { return e.Err }

// Client wraps the Mapbox places geocoding endpoint.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Options configures a Client.
type Options struct {
	Token      string
	BaseURL    string
	RateLimit  float64 // requests per second, 0 disables limiting
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a Mapbox client. Returns nil, nil if no token is set so
// callers can run without location search.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, nil
	}

	base := strings.TrimSuffix(opts.BaseURL, "/")
	if base == "" {
		base = config.DefaultMapboxBaseURL
	}
	if u, err := url.Parse(base); err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid mapbox base URL %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{token: opts.Token, baseURL: base, httpClient: httpClient}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return c, nil
}

// NewFromConfig creates a client from the loaded configuration.
func NewFromConfig(cfg config.Config) (*Client, error) {
	return NewClient(Options{
		Token:     cfg.MapboxToken,
		BaseURL:   cfg.MapboxBaseURL,
		RateLimit: cfg.GeocodingRateLimit,
		Timeout:   cfg.HTTPTimeout,
	})
}

type placesResponse struct {
	Features []feature `json:"features"`
	Message  string    `json:"message"`
}

type feature struct {
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Center    []float64 `json:"center"`
	Geometry  struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

// Search returns the places matching query.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	query = norm.NFC.String(strings.TrimSpace(query))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &ThirdPartyError{Provider: providerName, Err: err}
		}
	}

	path := "/geocoding/v5/mapbox.places/" + url.PathEscape(query) + ".json"
	u := fmt.Sprintf("%s%s?types=place&access_token=%s", c.baseURL, path, url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// the token is a query parameter, so only the path is logged
	logger.LogRequest(providerName, http.MethodGet, path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ThirdPartyError{Provider: providerName, Err: redact(err, c.token)}
	}
	defer resp.Body.Close()
	logger.LogResponse(providerName, http.MethodGet, path, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ThirdPartyError{Provider: providerName, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	var places placesResponse
	decodeErr := json.Unmarshal(body, &places)

	if resp.StatusCode != http.StatusOK {
		msg := places.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &ThirdPartyError{Provider: providerName, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
	if decodeErr != nil {
		return nil, &ThirdPartyError{Provider: providerName, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", decodeErr)}
	}

	out := make([]Result, 0, len(places.Features))
	for _, f := range places.Features {
		coords := f.Geometry.Coordinates
		if len(coords) == 0 {
			coords = f.Center
		}
		out = append(out, Result{PlaceName: f.PlaceName, Coordinates: coords, Text: f.Text})
	}
	return out, nil
}

// redact removes the access token from transport errors, which embed the
// request URL.
func redact(err error, token string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	if token != "" && strings.Contains(err.Error(), token) {
		return errors.New(strings.ReplaceAll(err.Error(), token, "***"))
	}
	return err
}
