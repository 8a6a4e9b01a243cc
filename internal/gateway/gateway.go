// Package gateway talks to the hosted backend's REST interface on behalf of
// the client data layer. It owns timeouts, retries, and the mapping of HTTP
// failures onto the data layer's error kinds. Row-level access control is
// enforced server-side; the gateway only attaches the user identity.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/anchor-labs/anchor/internal/models"
)

const (
	// requestTimeout applies to every remote call. The product used a spread
	// of 3s/10s/30s across call sites with no rationale; one value is used
	// here instead.
	requestTimeout = 10 * time.Second

	// maxAttempts bounds retries of transient failures.
	maxAttempts = 3

	// retryBackoff is the pause between attempts, multiplied by attempt number.
	retryBackoff = 250 * time.Millisecond

	userHeader = "X-User-ID"
)

// Client issues requests against the backend REST interface.
type Client struct {
	http    *http.Client
	baseURL string
	userID  string
	log     *zap.Logger
}

// New returns a Client bound to baseURL and the given user identity.
// httpClient may be nil, in which case a default client is used; its
// per-request deadline is governed by the context set in do.
func New(baseURL, userID string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		userID:  userID,
		log:     log,
	}
}

// UserID reports the identity the client is bound to.
func (c *Client) UserID() string { return c.userID }

// do performs one logical request with retry. Transient failures (connection
// errors, timeouts, 5xx) are retried up to maxAttempts; remote rejections
// (4xx) are returned immediately. On success the body is decoded into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return models.NewError(op, models.KindUnknown, err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return models.NewError(op, models.KindNetwork, ctx.Err())
			case <-time.After(time.Duration(attempt-1) * retryBackoff):
			}
			c.log.Debug("retrying request",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
		}

		err := c.doOnce(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return models.NewError(op, kindFor(err), err)
		}
		lastErr = err
	}
	return models.NewError(op, models.KindNetwork, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr))
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(userHeader, c.userID)

	resp, err := c.http.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: string(bytes.TrimSpace(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// transportError wraps connection-level failures.
type transportError struct{ err error }

func (e *transportError) Error() string { return fmt.Sprintf("transport: %v", e.err) }
func (e *transportError) Unwrap() error { return e.err }

// statusError wraps non-2xx responses.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("server returned %d", e.code)
	}
	return fmt.Sprintf("server returned %d: %s", e.code, e.body)
}

// isTransient reports whether err is worth retrying.
func isTransient(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return false
}

// kindFor maps a non-transient failure to an error kind.
func kindFor(err error) models.Kind {
	var se *statusError
	if !errors.As(err, &se) {
		return models.KindUnknown
	}
	switch se.code {
	case http.StatusNotFound:
		return models.KindNotFound
	case http.StatusConflict:
		return models.KindConflict
	default:
		return models.KindRejected
	}
}
