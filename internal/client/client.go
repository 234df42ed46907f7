// Package client holds the HTTP clients for the chatbot and booking APIs. Each
// operation performs exactly one request and never retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/logging"
)

const DefaultTimeout = 30 * time.Second

const maxErrorBody = 1 << 20

type transport struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func newTransport(baseURL string, timeout time.Duration, logger *zap.Logger) transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logging.OrNop(logger),
	}
}

// do sends one request. body, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded 2xx response.
func (t transport) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := t.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Kind: KindNetwork, Message: NetworkErrorMessage, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &RequestError{Kind: KindNetwork, Message: NetworkErrorMessage, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := t.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			t.logger.Debug("request cancelled", zap.String("method", method), zap.String("url", target), zap.String("request_id", requestID))
			return &RequestError{Kind: KindCancelled, Message: cancelledMessage, Err: ctxErr}
		}
		t.logger.Debug("request failed", zap.String("method", method), zap.String("url", target), zap.String("request_id", requestID), zap.Error(err))
		return &RequestError{Kind: KindNetwork, Message: NetworkErrorMessage, Err: err}
	}
	defer resp.Body.Close()

	t.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("url", target),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &RequestError{Kind: KindNetwork, StatusCode: resp.StatusCode, Message: NetworkErrorMessage, Err: err}
	}
	return nil
}

// errorFromResponse surfaces the server's {"error": "..."} message, or the
// generic network message when the body has no such shape.
func errorFromResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		kind := KindAPI
		if resp.StatusCode == http.StatusNotFound {
			kind = KindNotFound
		}
		return &RequestError{Kind: kind, StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &RequestError{
		Kind:       KindNetwork,
		StatusCode: resp.StatusCode,
		Message:    NetworkErrorMessage,
		Err:        errors.New(resp.Status),
	}
}
