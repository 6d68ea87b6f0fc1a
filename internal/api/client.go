// Package api implements the Track & Trace Tools HTTP client: credential
// auth, collection paging, follow-up submissions, and a classified retry
// policy shared by every caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the production T3 API.
	DefaultBaseURL = "https://api.trackandtrace.tools"

	// DefaultTimeout bounds each individual request.
	DefaultTimeout = 20 * time.Second

	// DefaultRequestsPerSecond is the client-side request rate shared
	// across all workers of a run.
	DefaultRequestsPerSecond = 10
)

// Client is the T3 API client. It is safe for concurrent use: the worker
// pools in fetch share one Client per run.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	policy  RetryPolicy
	logger  zerolog.Logger
}

// NewClient creates a client. token may be empty for the credentials
// exchange; baseURL defaults to the production API.
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond),
		policy:  DefaultRetryPolicy(),
		logger:  logger,
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

// SetRateLimit replaces the client-side request limiter.
func (c *Client) SetRateLimit(rps float64) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), int(math.Ceil(rps)))
}

func (c *Client) SetRetryPolicy(policy RetryPolicy) {
	c.policy = policy
}

// Authenticate exchanges credentials for a bearer token and stores it on
// the client. The exchange itself is never retried.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, "/v2/auth/credentials", nil, creds, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	c.token = resp.AccessToken
	return resp.AccessToken, nil
}

// WhoAmI retrieves the authenticated identity.
func (c *Client) WhoAmI(ctx context.Context) (*Identity, error) {
	var identity Identity
	if err := c.getJSON(ctx, "/v2/auth/whoami", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Licenses retrieves the licenses available to the caller.
func (c *Client) Licenses(ctx context.Context) ([]License, error) {
	var licenses []License
	if err := c.getJSON(ctx, "/v2/licenses", nil, &licenses); err != nil {
		return nil, err
	}
	return licenses, nil
}

// Query holds the collection paging parameters every list endpoint takes.
type Query struct {
	LicenseNumber string
	Page          int
	PageSize      int
	Filter        string
}

func (q Query) values() url.Values {
	params := url.Values{}
	if q.LicenseNumber != "" {
		params.Set("licenseNumber", q.LicenseNumber)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Filter != "" {
		params.Set("filter", q.Filter)
	}
	return params
}

// GetPage fetches one page of a collection endpoint such as
// /v2/packages/active or /v2/items.
func (c *Client) GetPage(ctx context.Context, path string, q Query) (*Page, error) {
	var page Page
	if err := c.getJSON(ctx, path, q.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PackageHistory fetches the lifecycle event list for one package.
func (c *Client) PackageHistory(ctx context.Context, licenseNumber string, packageID int64) ([]Record, error) {
	params := url.Values{}
	params.Set("packageId", strconv.FormatInt(packageID, 10))
	params.Set("licenseNumber", licenseNumber)

	var resp struct {
		Data []Record `json:"data"`
	}
	if err := c.getJSON(ctx, "/v2/packages/history", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Search performs a text search across one license.
func (c *Client) Search(ctx context.Context, licenseNumber, query string) ([]Record, error) {
	params := url.Values{}
	params.Set("licenseNumber", licenseNumber)
	params.Set("query", query)

	var resp struct {
		Data []Record `json:"data"`
	}
	if err := c.getJSON(ctx, "/v2/search", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Inputs fetches a lookup-data endpoint such as /v2/items/create/inputs or
// /v2/packages/create/inputs.
func (c *Client) Inputs(ctx context.Context, path, licenseNumber string) (Record, error) {
	params := url.Values{}
	params.Set("licenseNumber", licenseNumber)

	var rec Record
	if err := c.getJSON(ctx, path, params, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Submit POSTs a mutation endpoint (create, discontinue, void) scoped to a
// license. submit=false saves a reviewable draft instead of writing to
// Metrc. Mutations are never retried.
func (c *Client) Submit(ctx context.Context, path, licenseNumber string, submit bool, body, out any) error {
	params := url.Values{}
	params.Set("licenseNumber", licenseNumber)
	params.Set("submit", strconv.FormatBool(submit))
	return c.postJSON(ctx, path, params, body, out)
}

// UploadItemImage uploads an image via multipart/form-data and returns the
// response record carrying imageFileId.
func (c *Client) UploadItemImage(ctx context.Context, licenseNumber, fileType, fileName string, data []byte, submit bool) (Record, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("licenseNumber", licenseNumber)
	params.Set("fileType", fileType)
	params.Set("submit", strconv.FormatBool(submit))

	respBody, err := c.roundTrip(ctx, http.MethodPost, "/v2/items/images/file", params, buf.Bytes(), writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(respBody, &rec); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	return rec, nil
}

// getJSON performs a retried GET and decodes the response.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	return retry(ctx, c.policy, c.logger, func() error {
		body, err := c.roundTrip(ctx, http.MethodGet, path, params, nil, "")
		if err != nil {
			return err
		}
		return json.Unmarshal(body, out)
	})
}

// postJSON performs a single-attempt POST. Mutations must not be replayed
// blindly, so the retry policy does not apply here.
func (c *Client) postJSON(ctx context.Context, path string, params url.Values, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	respBody, err := c.roundTrip(ctx, http.MethodPost, path, params, data, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// roundTrip executes one HTTP exchange: rate limit, auth header, timing
// metrics, and status classification.
func (c *Client) roundTrip(ctx context.Context, method, path string, params url.Values, body []byte, contentType string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	requestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(path, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", path).Msg("request failed")
		return nil, err
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Class:      ClassifyStatus(resp.StatusCode),
			Endpoint:   path,
			Body:       strings.TrimSpace(string(respBody)),
		}
		c.logger.Warn().
			Str("endpoint", path).
			Int("status", resp.StatusCode).
			Str("error_class", string(apiErr.Class)).
			Msg("request error")
		return nil, apiErr
	}

	return respBody, nil
}
