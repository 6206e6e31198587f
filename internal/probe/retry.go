package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// retryTransport re-sends a request when the round trip itself failed.
// Responses, whatever their status, are never retried. Only requests
// without a body go through here (checks are plain GETs).
type retryTransport struct {
	next     http.RoundTripper
	attempts uint
	backoff  time.Duration
}

func newRetryTransport(next http.RoundTripper, retries int, backoff time.Duration) *retryTransport {
	if retries < 0 {
		retries = 0
	}
	return &retryTransport{next: next, attempts: uint(retries) + 1, backoff: backoff}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := retry.Do(
		func() error {
			r, err := t.next.RoundTrip(req)
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Attempts(t.attempts),
		retry.Context(req.Context()),
		retry.Delay(t.backoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(transient),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var certErr *tls.CertificateVerificationError
	return !errors.As(err, &certErr)
}
