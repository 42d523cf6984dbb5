// Package sforce is a minimal Salesforce REST client for the two describe
// calls sf-fields needs: describe global and describe object.
package sforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/giantswarm/sf-fields/internal/logging"
	"github.com/giantswarm/sf-fields/internal/org"
)

// Defaults applied by ClientConfig.WithDefaults.
const (
	DefaultAPIVersion = "v60.0"
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 5.0
	DefaultRateBurst  = 2
	DefaultUserAgent  = "sf-fields"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// MetadataSource fetches object and field metadata for an org.
type MetadataSource interface {
	ListObjects(ctx context.Context, creds org.Credentials) ([]org.ObjectDescriptor, error)
	DescribeFields(ctx context.Context, creds org.Credentials, objectName string) ([]org.FieldDescriptor, error)
}

// ClientConfig configures the REST client.
type ClientConfig struct {
	// APIVersion overrides the version reported by the CLI (e.g. "v60.0" or "60.0").
	APIVersion string

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration

	// RateLimit is the maximum requests per second (default: 5).
	RateLimit float64

	// RateBurst is the limiter burst size (default: 2).
	RateBurst int

	// UserAgent is sent with every request (default: sf-fields).
	UserAgent string

	// Transport is the base round tripper, for tests.
	Transport http.RoundTripper

	Logger *logging.Logger
}

// WithDefaults returns a copy of the config with zero values filled in.
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = DefaultRateBurst
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}
	return c
}

// Client is a MetadataSource talking to the Salesforce REST API. It holds no
// credentials; every call carries its own.
type Client struct {
	config  ClientConfig
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewClient creates a REST client
func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:  cfg.Logger,
	}
}

type describeGlobalResponse struct {
	SObjects []struct {
		Name  string `json:"name"`
		Label string `json:"label"`
	} `json:"sobjects"`
}

type describeObjectResponse struct {
	Name   string `json:"name"`
	Fields []struct {
		Label string `json:"label"`
		Name  string `json:"name"`
	} `json:"fields"`
}

// apiError is one element of a Salesforce REST error body.
type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// ListObjects performs describe global.
func (c *Client) ListObjects(ctx context.Context, creds org.Credentials) ([]org.ObjectDescriptor, error) {
	var resp describeGlobalResponse
	if err := c.get(ctx, creds, OpDescribeGlobal, "", "sobjects/", &resp); err != nil {
		return nil, err
	}

	objects := make([]org.ObjectDescriptor, 0, len(resp.SObjects))
	for _, o := range resp.SObjects {
		objects = append(objects, org.ObjectDescriptor{Name: o.Name, Label: o.Label})
	}
	return objects, nil
}

// DescribeFields performs describe object for objectName.
func (c *Client) DescribeFields(ctx context.Context, creds org.Credentials, objectName string) ([]org.FieldDescriptor, error) {
	if strings.TrimSpace(objectName) == "" {
		return nil, &MetadataFetchError{Op: OpDescribeObject, Message: "object name is empty"}
	}

	var resp describeObjectResponse
	path := "sobjects/" + url.PathEscape(objectName) + "/describe/"
	if err := c.get(ctx, creds, OpDescribeObject, objectName, path, &resp); err != nil {
		return nil, err
	}

	fields := make([]org.FieldDescriptor, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		fields = append(fields, org.FieldDescriptor{Label: f.Label, Name: f.Name})
	}
	return fields, nil
}

// APIVersion returns the version used for creds.
func (c *Client) APIVersion(creds org.Credentials) string {
	v := c.config.APIVersion
	if v == "" {
		v = creds.APIVersion
	}
	if v == "" {
		return DefaultAPIVersion
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func (c *Client) get(ctx context.Context, creds org.Credentials, op, object, path string, target any) error {
	fail := func(err error) error {
		return &MetadataFetchError{Op: op, Object: object, Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(fmt.Errorf("rate limiter: %w", err))
	}

	base := strings.TrimSuffix(creds.InstanceURL, "/")
	fullURL := base + "/services/data/" + c.APIVersion(creds) + "/" + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	httpClient := c.httpClient(creds)

	c.logger.Request(req.Method, fullURL)
	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()
	c.logger.Response(req.Method, fullURL, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp, op, object)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// httpClient returns a client that attaches creds as a bearer token.
func (c *Client) httpClient(creds org.Credentials) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: creds.AccessToken,
		TokenType:   "Bearer",
	})
	return &http.Client{
		Timeout: c.config.Timeout,
		Transport: &oauth2.Transport{
			Source: src,
			Base:   c.config.Transport,
		},
	}
}

func (c *Client) statusError(resp *http.Response, op, object string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	fetchErr := &MetadataFetchError{
		Op:         op,
		Object:     object,
		StatusCode: resp.StatusCode,
	}

	var apiErrs []apiError
	if err := json.Unmarshal(body, &apiErrs); err == nil && len(apiErrs) > 0 {
		fetchErr.ErrorCode = apiErrs[0].ErrorCode
		fetchErr.Message = apiErrs[0].Message
	} else {
		fetchErr.Message = strings.TrimSpace(string(body))
	}
	if fetchErr.Message == "" {
		fetchErr.Message = http.StatusText(resp.StatusCode)
	}
	return fetchErr
}
