package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/metric"
)

// Default timeouts and retry settings for the HTTP import path.
const (
	defaultWriteTimeout  = 5 * time.Second
	defaultHealthTimeout = 2 * time.Second

	// maxDeliveryAttempts bounds the retry ladder for one flush.
	maxDeliveryAttempts = 3

	// initialRetryDelay is the wait before the second attempt; it doubles
	// after every further failure (2s, 4s, ...).
	initialRetryDelay = 2 * time.Second
)

// importPath is the VictoriaMetrics bulk import endpoint.
const importPath = "/api/v1/import"

// Victoria delivers batches to a VictoriaMetrics installation over HTTP.
//
// Each flush is one POST of newline-joined JSON-line records. Any 2xx
// response is success. Connectivity faults and explicit rejections share
// the same retry ladder; the error from the final attempt is surfaced
// once the budget is exhausted.
type Victoria struct {
	url         string
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
	log         Logger
}

// NewVictoria creates an HTTP import client for the configured base URL.
func NewVictoria(cfg config.SinkConfig, log Logger) *Victoria {
	return &Victoria{
		url:         strings.TrimRight(cfg.URL, "/"),
		httpClient:  &http.Client{Timeout: defaultWriteTimeout},
		maxAttempts: maxDeliveryAttempts,
		retryDelay:  initialRetryDelay,
		log:         log,
	}
}

// Deliver encodes the batch as JSON lines and posts it to the import
// endpoint, retrying up to the attempt budget with a doubling delay.
//
// Retrying stops immediately on the first success. After the budget is
// exhausted the last error is returned; the caller decides whether that
// is fatal (backfill) or isolated (live feed).
func (v *Victoria) Deliver(ctx context.Context, batch *metric.Batch) error {
	if batch.IsEmpty() {
		return nil
	}

	payload, err := batch.EncodeJSONLines()
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}

	delay := v.retryDelay
	var lastErr error
	for attempt := 1; attempt <= v.maxAttempts; attempt++ {
		lastErr = v.post(ctx, payload)
		if lastErr == nil {
			v.log.Debug("batch delivered",
				"series", batch.Len(),
				"samples", batch.Samples(),
				"attempt", attempt,
			)
			return nil
		}

		v.log.Warn("delivery attempt failed",
			"attempt", attempt,
			"max_attempts", v.maxAttempts,
			"error", lastErr,
		)

		if attempt < v.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("after %d attempts: %w", v.maxAttempts, lastErr)
}

// post performs a single import POST. The request owns its connection;
// nothing is pooled across flushes.
func (v *Victoria) post(ctx context.Context, payload []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, v.url+importPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	req.Close = true
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrDeliveryRejected, resp.StatusCode, bytes.TrimSpace(body))
	}

	return nil
}

// HealthCheck probes the sink's health endpoint. Used before the
// pipeline starts; a failed probe is advisory, not fatal.
func (v *Victoria) HealthCheck(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, defaultHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, v.url+"/health", nil)
	if err != nil {
		return fmt.Errorf("sink health check: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sink health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sink health check: status %d", resp.StatusCode)
	}

	return nil
}
