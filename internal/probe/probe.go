package probe

import (
	"time"

	"github.com/hamed0406/hostwatcher/internal/config"
	"github.com/hamed0406/hostwatcher/internal/domain"
)

// Options is the per-instance check policy. It is built from the current
// watch snapshot; nothing here is shared between checker instances.
type Options struct {
	Timeout        time.Duration // bound for one check, retries included
	Retries        int           // extra transport attempts on transient HTTP errors
	RetryBackoff   time.Duration
	PingPrivileged bool // raw ICMP socket instead of unprivileged UDP ping
	DNSDiagnose    bool
	DNSTimeout     time.Duration
}

// OptionsFor derives check options from a watch snapshot.
func OptionsFor(w *config.Watch, pingPrivileged bool) Options {
	return Options{
		Timeout:        w.ProbeTimeout(),
		Retries:        1,
		RetryBackoff:   200 * time.Millisecond,
		PingPrivileged: pingPrivileged,
		DNSDiagnose:    w.DNSDiagnose,
		DNSTimeout:     3 * time.Second,
	}
}

// New builds the checker used by the scheduler: ping and HTTP(S) behind a
// Mux, optionally wrapped with DNS diagnosis of failures.
func New(opts Options) Checker {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultCheckTimeout
	}
	httpc := NewHTTPChecker(opts)
	m := NewMux()
	m.Handle(domain.Ping, NewPinger(opts))
	m.Handle(domain.HTTP, httpc)
	m.Handle(domain.HTTPS, httpc)
	if !opts.DNSDiagnose {
		return m
	}
	return &Diagnosing{Inner: m, Timeout: opts.DNSTimeout}
}
