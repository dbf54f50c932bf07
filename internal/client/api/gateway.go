// Package api is the FeedLine HTTP client: a Gateway carrying the base URL
// and the session credential, plus one typed function per endpoint. Responses
// are decoded into explicit structs at this boundary; nothing above it sees
// raw JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dbarkov/feedline/internal/common"
	"github.com/dbarkov/feedline/internal/filex"
	"github.com/dbarkov/feedline/internal/logging"
)

const (
	defaultHTTPTimeout        = 60 * time.Second
	defaultHTTPConnectTimeout = 5 * time.Second
	defaultHTTPTLSTimeout     = 5 * time.Second
)

// defaultClient returns an http.Client with explicit dial, TLS and overall
// timeouts instead of the library defaults (which have none).
func defaultClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	dialer := &net.Dialer{
		Timeout: defaultHTTPConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHTTPTLSTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Gateway is the single outbound-call configuration shared by the session
// manager, the synchronizer and the search dispatcher.
//
// The credential is scoped to the Gateway instance, not to the process:
// constructing a second Gateway gives an independent session. Mutating the
// credential affects every subsequent call through this instance, including
// ones issued concurrently; callers must not assume call-level isolation.
type Gateway struct {
	baseURL string
	client  *http.Client
	log     logging.Logger

	mu   sync.RWMutex
	auth string // full header value; "" means anonymous
}

// NewGateway builds a Gateway for the given API root, e.g.
// "https://api.feedline.dev". A non-positive timeout selects the default.
func NewGateway(baseURL string, timeout time.Duration, log logging.Logger) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  defaultClient(timeout),
		log:     log,
	}
}

// SetAuthorization installs the Authorization header value attached to every
// subsequent call. An empty value removes the header (anonymous calls).
func (g *Gateway) SetAuthorization(value string) {
	g.mu.Lock()
	g.auth = value
	g.mu.Unlock()
}

// Authorization returns the currently installed header value, "" if none.
func (g *Gateway) Authorization() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.auth
}

// NormalizeBearer prefixes token with the bearer scheme unless it already
// carries a scheme (detected by an embedded space).
func NormalizeBearer(token string) string {
	if token == "" || strings.Contains(token, " ") {
		return token
	}
	return common.BearerScheme + " " + token
}

// StatusError is a non-auth HTTP failure carrying the server's message when
// one was provided. It unwraps to a sentinel from the common package so
// callers can classify it with errors.Is.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusNotFound:
		return common.ErrNotFound
	case e.Code >= 500:
		return common.ErrUnavailable
	default:
		return common.ErrValidation
	}
}

// errorBody is the API's error envelope.
type errorBody struct {
	Message string `json:"message"`
}

func mapStatus(code int, body []byte) error {
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return common.ErrUnauthorized
	}

	msg := "request failed"
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		msg = eb.Message
	}
	return &StatusError{Code: code, Message: msg}
}

// do executes one HTTP call and decodes the JSON response into out (skipped
// when out is nil). Transport failures wrap common.ErrUnavailable; statuses
// are mapped by mapStatus; a body that does not decode into out is an error,
// not a silently empty result.
func (g *Gateway) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	if auth := g.Authorization(); auth != "" {
		req.Header.Set(common.AuthorizationHeaderName, auth)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", common.ErrUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		err := mapStatus(resp.StatusCode, data)
		g.log.Debug(ctx, "api call failed", "method", method, "path", path, "status", resp.StatusCode)
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (g *Gateway) getJSON(ctx context.Context, path string, out any) error {
	return g.do(ctx, http.MethodGet, path, nil, "", out)
}

func (g *Gateway) postJSON(ctx context.Context, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return g.do(ctx, http.MethodPost, path, body, "application/json", out)
}

// filePart names one attachment's form field.
type filePart struct {
	field      string
	attachment *filex.Attachment
}

// postMultipart sends a form with a JSON-encoded "payload" part plus the
// given file parts. This is the API's shape for creation endpoints that may
// carry binary attachments.
func (g *Gateway) postMultipart(ctx context.Context, path string, payload any, files []filePart, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := w.WriteField("payload", string(data)); err != nil {
		return fmt.Errorf("write payload part: %w", err)
	}

	for _, f := range files {
		if f.attachment == nil {
			continue
		}
		fw, err := w.CreateFormFile(f.field, f.attachment.Name)
		if err != nil {
			return fmt.Errorf("create file part %s: %w", f.field, err)
		}
		if _, err := fw.Write(f.attachment.Data); err != nil {
			return fmt.Errorf("write file part %s: %w", f.field, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart body: %w", err)
	}

	return g.do(ctx, http.MethodPost, path, &buf, w.FormDataContentType(), out)
}

// IsAuthError reports whether err is the authorization-denied class that must
// tear down the session.
func IsAuthError(err error) bool {
	return errors.Is(err, common.ErrUnauthorized)
}
