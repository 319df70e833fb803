package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

const requestIDHeader = "X-Request-ID"

// BaseClient provides common HTTP client functionality for the platform API.
//
// Reads (GET) are retried with backoff because they are idempotent. Every
// other method is sent exactly once: mutations are single-shot and a failure
// is terminal for that user action.
type BaseClient struct {
	baseURL string
	reads   *retryablehttp.Client
	writes  *retryablehttp.Client
	headers map[string]string
	tokens  oauth2.TokenSource
	logger  hclog.Logger
}

// NewBaseClient creates a new base HTTP client
// Parameters:
//   - baseURL: The base URL for API requests (trailing slash will be removed)
//   - timeout: HTTP client timeout duration
func NewBaseClient(baseURL string, timeout time.Duration) *BaseClient {
	// Normalize baseURL by removing trailing slash for consistency
	baseURL = strings.TrimSuffix(baseURL, "/")

	reads := retryablehttp.NewClient()
	reads.RetryMax = 3
	reads.RetryWaitMin = 500 * time.Millisecond
	reads.RetryWaitMax = 5 * time.Second
	reads.HTTPClient.Timeout = timeout
	reads.ErrorHandler = retryablehttp.PassthroughErrorHandler
	reads.Logger = nil

	writes := retryablehttp.NewClient()
	writes.RetryMax = 0
	writes.HTTPClient = reads.HTTPClient
	writes.ErrorHandler = retryablehttp.PassthroughErrorHandler
	writes.Logger = nil

	return &BaseClient{
		baseURL: baseURL,
		reads:   reads,
		writes:  writes,
		headers: make(map[string]string),
		logger:  hclog.NewNullLogger(),
	}
}

// SetHeader sets a custom header that will be included in all requests
func (c *BaseClient) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetTokenSource configures the source of bearer tokens attached to every request.
func (c *BaseClient) SetTokenSource(ts oauth2.TokenSource) {
	c.tokens = ts
}

// SetLogger replaces the client's logger. A nil logger disables logging.
func (c *BaseClient) SetLogger(logger hclog.Logger) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	c.logger = logger
	c.reads.Logger = logger.Named("retry")
}

// SetReadRetries overrides how many times an idempotent read is retried.
func (c *BaseClient) SetReadRetries(n int) {
	if n < 0 {
		n = 0
	}
	c.reads.RetryMax = n
}

// DoJSONWithContext performs an HTTP request with context and JSON request/response bodies
// Parameters:
//   - method: HTTP method (GET, POST, PUT, PATCH, DELETE)
//   - path: API path (will be appended to baseURL)
//   - reqBody: Request body (will be JSON marshaled), can be nil
//   - respBody: Response body (will be JSON unmarshaled into), can be nil if response not needed
//
// Returns ErrNetwork when no HTTP response arrived and *APIError when the
// server answered with a non-2xx status or with success:false.
func (c *BaseClient) DoJSONWithContext(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var body []byte
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = data
	}

	contentType := ""
	if reqBody != nil || method != http.MethodGet {
		contentType = "application/json"
	}

	return c.do(ctx, method, path, body, contentType, respBody)
}

// FilePart is a single file attached to a multipart request.
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// DoMultipart sends a multipart/form-data request with the given text fields
// and file, decoding the JSON envelope into respBody.
func (c *BaseClient) DoMultipart(ctx context.Context, method, path string, fields map[string]string, file FilePart, respBody interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	if file.Content != nil {
		part, err := w.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("failed to copy file content: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.do(ctx, method, path, buf.Bytes(), w.FormDataContentType(), respBody)
}

func (c *BaseClient) do(ctx context.Context, method, path string, body []byte, contentType string, respBody interface{}) error {
	// Ensure path starts with / for proper URL construction
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, fullURL, rawBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("failed to obtain access token: %w", err)
		}
		tok.SetAuthHeader(req.Request)
	}

	client := c.writes
	if method == http.MethodGet {
		client = c.reads
	}

	c.logger.Debug("sending request", "method", method, "path", path, "request_id", requestID)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrNetwork, ctxErr)
		}
		c.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrNetwork, err)
	}

	c.logger.Debug("received response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if apiErr := checkEnvelope(resp.StatusCode, data); apiErr != nil {
		return apiErr
	}

	// Unmarshal response body if respBody is provided
	if respBody != nil && len(data) > 0 {
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}

	return nil
}

// envelope is the shape every platform response shares.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// checkEnvelope maps a response to an *APIError, or nil when it succeeded.
func checkEnvelope(status int, body []byte) *APIError {
	var env envelope
	parsed := len(body) > 0 && json.Unmarshal(body, &env) == nil

	ok := status >= 200 && status < 300
	if ok && (!parsed || env.Success == nil || *env.Success) {
		return nil
	}

	msg := ""
	if parsed {
		msg = env.Message
		if msg == "" {
			msg = env.Error
		}
	}
	if msg == "" && !parsed && !ok {
		// Non-JSON error body: keep a short excerpt for the log line
		bodyStr := strings.TrimSpace(string(body))
		if len(bodyStr) > 200 {
			bodyStr = bodyStr[:200] + "..."
		}
		return &APIError{Status: status, Message: DefaultFailureMessage, Body: bodyStr}
	}
	if msg == "" {
		msg = DefaultFailureMessage
	}
	return &APIError{Status: status, Message: msg}
}

// GetBaseURL returns the base URL of the client
func (c *BaseClient) GetBaseURL() string {
	return c.baseURL
}

// GetHeader returns the value of a specific header
func (c *BaseClient) GetHeader(key string) string {
	return c.headers[key]
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
