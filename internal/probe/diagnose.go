package probe

import (
	"context"
	"net"
	"time"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

// Diagnosing appends a DNS classification to the details of FAIL results,
// e.g. "dial tcp: lookup x: no such host (dns=NXDOMAIN)".
type Diagnosing struct {
	Inner   Checker
	Timeout time.Duration

	classify func(ctx context.Context, host string, timeout time.Duration) DNSStatus
}

func (d *Diagnosing) Check(ctx context.Context, t domain.Target) domain.CheckResult {
	res := d.Inner.Check(ctx, t)
	if res.Outcome != domain.Fail {
		return res
	}
	classify := d.classify
	if classify == nil {
		classify = CheckDNS
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	st := classify(ctx, hostOnly(t.Host), timeout)
	res.Details += " (dns=" + st.Class + ")"
	return res
}

// hostOnly strips an optional port and path from a configured host.
func hostOnly(raw string) string {
	h := raw
	for i, c := range h {
		if c == '/' || c == '?' {
			h = h[:i]
			break
		}
	}
	if host, _, err := net.SplitHostPort(h); err == nil {
		return host
	}
	return h
}
