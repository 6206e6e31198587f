package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(opts Options) *HTTPChecker {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: opts.Timeout}).DialContext,
		TLSHandshakeTimeout: opts.Timeout,
		DisableKeepAlives:   true,
	}
	return &HTTPChecker{
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: newRetryTransport(tr, opts.Retries, opts.RetryBackoff),
		},
	}
}

// URL returns the address requested for t: scheme from the check type, the
// host as configured.
func URL(t domain.Target) string {
	scheme := "http"
	if t.Type == domain.HTTPS {
		scheme = "https"
	}
	return scheme + "://" + t.Host
}

func (h *HTTPChecker) Check(ctx context.Context, t domain.Target) domain.CheckResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, URL(t), nil)
	if err != nil {
		return fail(t, err)
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		res := fail(t, err)
		res.LatencyMS = latency
		return res
	}
	defer resp.Body.Close()

	res := ok(t)
	if resp.StatusCode != http.StatusOK {
		res = bad(t, fmt.Sprintf("status code %d", resp.StatusCode))
	}
	res.LatencyMS = latency
	return res
}
