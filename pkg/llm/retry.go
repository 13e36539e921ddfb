package llm

import (
	"context"
	"net/http"
	"time"
)

const (
	maxRetries       = 3
	retryBaseBackoff = 500 * time.Millisecond
)

// doWithRetry executes an HTTP request with exponential backoff on transient
// failures (network errors, 429, 5xx). The request builder is invoked fresh on
// every attempt so the body can be re-read.
func doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBaseBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			lastErr = &retryStatusError{status: resp.Status}
			resp.Body.Close()
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

type retryStatusError struct {
	status string
}

func (e *retryStatusError) Error() string {
	return "retryable status: " + e.status
}
