package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

// Pinger sends a single ICMP echo request per check.
type Pinger struct {
	Timeout    time.Duration
	Privileged bool

	resolve func(ctx context.Context, host string) (*net.IPAddr, error)
	run     func(ctx context.Context, p *probing.Pinger) (*probing.Statistics, error)
}

func NewPinger(opts Options) *Pinger {
	return &Pinger{
		Timeout:    opts.Timeout,
		Privileged: opts.PingPrivileged,
		resolve:    resolveIP,
		run:        runPinger,
	}
}

func (p *Pinger) Check(ctx context.Context, t domain.Target) domain.CheckResult {
	rctx, cancel := context.WithTimeout(ctx, p.Timeout)
	addr, err := p.resolve(rctx, t.Host)
	cancel()
	if err != nil {
		return fail(t, err)
	}

	pinger := probing.New(t.Host)
	pinger.SetIPAddr(addr)
	pinger.SetPrivileged(p.Privileged)
	pinger.Count = 1
	pinger.Timeout = p.Timeout

	// the pinger stops itself at Timeout and reports the loss; the context
	// is only a backstop.
	pctx, cancel := context.WithTimeout(ctx, p.Timeout+time.Second)
	defer cancel()
	stats, err := p.run(pctx, pinger)
	if err != nil {
		return fail(t, err)
	}
	if stats.PacketsRecv == 0 {
		return bad(t, statsText(stats))
	}
	res := ok(t)
	res.LatencyMS = float64(stats.AvgRtt) / float64(time.Millisecond)
	return res
}

func resolveIP(ctx context.Context, host string) (*net.IPAddr, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if a.IP.To4() != nil {
			return &a, nil
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("lookup %s: no addresses", host)
	}
	return &addrs[0], nil
}

func runPinger(ctx context.Context, p *probing.Pinger) (*probing.Statistics, error) {
	if err := p.RunWithContext(ctx); err != nil {
		return nil, err
	}
	return p.Statistics(), nil
}

// statsText renders the statistics block the way ping(8) prints it.
func statsText(s *probing.Statistics) string {
	return fmt.Sprintf("--- %s ping statistics --- %d packets transmitted, %d packets received, %v%% packet loss",
		s.Addr, s.PacketsSent, s.PacketsRecv, s.PacketLoss)
}
