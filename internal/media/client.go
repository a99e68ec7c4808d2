// Package media resolves image ids to URLs through the image service.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Image is a resolved image reference.
type Image struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Config configures the image service client.
type Config struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	BatchSize int           `mapstructure:"batch_size"`
	APIKey    string        `mapstructure:"api_key"`
}

// DefaultConfig returns client defaults without a base URL.
func DefaultConfig() Config {
	return Config{
		Timeout:   5 * time.Second,
		RateLimit: 20,
		Burst:     5,
		BatchSize: 50,
	}
}

type imagesResponse struct {
	Images []Image `json:"images"`
}

// Client calls GET {base}/images?ids=a,b,c on the image service.
type Client struct {
	http      *resty.Client
	limiter   *rate.Limiter
	batchSize int
	logger    *slog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the resty client, mostly for tests.
func WithHTTPClient(client *resty.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// NewClient returns an image service client. A zero rate limit disables limiting.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		http.SetAuthToken(cfg.APIKey)
	}

	c := &Client{
		http:      http,
		limiter:   rate.NewLimiter(limit, burst),
		batchSize: cfg.BatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve fetches the images for ids in batches. Ids unknown to the service
// are absent from the result.
func (c *Client) Resolve(ctx context.Context, ids []string) ([]Image, error) {
	var out []Image
	for start := 0; start < len(ids); start += c.batchSize {
		end := min(start+c.batchSize, len(ids))
		images, err := c.fetch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, images...)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, ids []string) ([]Image, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("image service rate limit: %w", err)
	}

	var body imagesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(ids, ",")).
		SetResult(&body).
		Get("/images")
	if err != nil {
		return nil, fmt.Errorf("image service request: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn("image service returned an error",
			"status", resp.StatusCode(),
			"ids", len(ids),
		)
		return nil, fmt.Errorf("image service: unexpected status %d", resp.StatusCode())
	}
	return body.Images, nil
}
