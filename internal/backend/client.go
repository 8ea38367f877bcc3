package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"filingdesk/internal/logging"
	"filingdesk/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 8 << 20
	maxErrorBodyBytes  = 2048

	// RequestIDHeader carries the per-request correlation ID.
	RequestIDHeader = "X-Request-ID"
)

// Endpoint paths exposed by the filing backend.
const (
	PathLocations    = "/get_salas"
	PathSetSelection = "/set_sala_gaveta"
	PathProcessImage = "/processar_imagem"
	PathConfirmName  = "/confirmar_nome"
)

// Version is stamped into the User-Agent header.
var Version = "dev"

// Client talks JSON over HTTP to the filing backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
	newID      func() string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "backend")
	}
}

// WithRequestIDSource overrides how request IDs are generated (useful for tests).
func WithRequestIDSource(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewClient constructs a backend client rooted at baseURL. The timeout applies
// only to requests whose context carries no deadline of its own, so callers
// such as classification can grant a longer budget.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		userAgent:  "filingdesk/" + Version,
		logger:     logging.NewComponentLogger(nil, "backend"),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Locations fetches the full room/drawer/folder tree and the server's current selection.
func (c *Client) Locations(ctx context.Context) (LocationsResponse, error) {
	var resp LocationsResponse
	if err := c.do(ctx, http.MethodGet, PathLocations, nil, &resp); err != nil {
		return LocationsResponse{}, err
	}
	return resp, nil
}

// SetSelection makes (room, drawer) the server-side target for the next commit.
func (c *Client) SetSelection(ctx context.Context, room, drawer string) error {
	var resp SelectionResponse
	return c.do(ctx, http.MethodPost, PathSetSelection, selectionRequest{Room: room, Drawer: drawer}, &resp)
}

// ProcessImage submits a JPEG data URL for classification. A success:false
// reply is returned as a response, not an error; callers decide how to surface it.
func (c *Client) ProcessImage(ctx context.Context, dataURL string) (ClassifyResponse, error) {
	var resp ClassifyResponse
	if err := c.do(ctx, http.MethodPost, PathProcessImage, classifyRequest{Image: dataURL}, &resp); err != nil {
		return ClassifyResponse{}, err
	}
	return resp, nil
}

// ConfirmName appends name under the server's current selection.
func (c *Client) ConfirmName(ctx context.Context, name string) (ConfirmResponse, error) {
	var resp ConfirmResponse
	if err := c.do(ctx, http.MethodPost, PathConfirmName, confirmRequest{Name: name}, &resp); err != nil {
		return ConfirmResponse{}, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	operation := strings.TrimPrefix(path, "/")
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrNetwork, "backend", operation, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "backend", operation, "build request", err)
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = c.newID()
	}
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := logging.WithContext(services.WithRequestID(ctx, requestID), c.logger)
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("backend request failed",
			logging.String("method", method),
			logging.String("path", path),
			logging.Error(err),
		)
		return transportError(operation, err)
	}
	defer resp.Body.Close()

	logger.Debug("backend request completed",
		logging.String("method", method),
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return services.Wrap(services.ErrNetwork, "backend", operation,
			statusDetail(resp.StatusCode, snippet), nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		if isTimeout(err) {
			return transportError(operation, err)
		}
		return services.Wrap(services.ErrNetwork, "backend", operation, "malformed response", err)
	}
	return nil
}

func transportError(operation string, err error) error {
	if isTimeout(err) {
		return services.Wrap(services.ErrNetwork, "backend", operation, "request timed out",
			errors.Join(services.ErrTimeout, err))
	}
	return services.Wrap(services.ErrNetwork, "backend", operation, "request failed", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// statusDetail prefers the JSON "error" field of a failed reply over raw body text.
func statusDetail(status int, body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && strings.TrimSpace(parsed.Error) != "" {
		return fmt.Sprintf("status %d: %s", status, strings.TrimSpace(parsed.Error))
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("status %d", status)
	}
	return fmt.Sprintf("status %d: %s", status, text)
}
