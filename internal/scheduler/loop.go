package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/hostwatcher/internal/config"
	"github.com/hamed0406/hostwatcher/internal/domain"
	"github.com/hamed0406/hostwatcher/internal/probe"
	"github.com/hamed0406/hostwatcher/internal/repo"
	"github.com/hamed0406/hostwatcher/internal/watcher"
)

// ErrNoHosts is returned by Run when the configuration has nothing to check.
var ErrNoHosts = errors.New("hosts for check are not set")

// ConfigSource is the snapshot holder; *config.Store implements it.
type ConfigSource interface {
	Current() *config.Watch
	Reload() (*config.Watch, error)
}

// Mailer sends one message to the snapshot's recipient; *notify.Mailer
// implements it and logs its own delivery failures.
type Mailer interface {
	Send(ctx context.Context, w *config.Watch, subject, body string) error
}

// Loop runs check cycles until its context is cancelled. All fields are
// owned by the goroutine calling Run.
type Loop struct {
	Logger     *zap.Logger
	Config     ConfigSource
	Reload     *watcher.Flag
	Mailer     Mailer
	Results    repo.ResultStore // optional
	NewChecker func(*config.Watch) probe.Checker

	now     func() time.Time
	checker probe.Checker

	okStreak int
	cycles   int64
}

func NewLoop(
	logger *zap.Logger,
	cfg ConfigSource,
	reload *watcher.Flag,
	mailer Mailer,
	results repo.ResultStore,
	newChecker func(*config.Watch) probe.Checker,
) *Loop {
	if reload == nil {
		reload = &watcher.Flag{}
	}
	return &Loop{
		Logger:     logger,
		Config:     cfg,
		Reload:     reload,
		Mailer:     mailer,
		Results:    results,
		NewChecker: newChecker,
		now:        time.Now,
	}
}

// Run checks that there is something to watch, then cycles forever: one
// pass over all hosts, then a sleep of the current interval. It returns nil
// once ctx is cancelled, or ErrNoHosts without running any cycle.
func (l *Loop) Run(ctx context.Context) error {
	w := l.Config.Current()
	if w.IsEmpty() {
		l.Logger.Warn("Hosts for check are not set")
		return ErrNoHosts
	}
	l.checker = l.NewChecker(w)
	l.Logger.Info(fmt.Sprintf("Watching %d hosts every %s", len(w.Targets()), w.Interval),
		zap.Strings("ping", w.PingList),
		zap.Strings("http", w.HTTPList),
		zap.Strings("https", w.HTTPSList),
	)

	for {
		l.runCycle(ctx)
		if ctx.Err() != nil {
			break
		}
		if !sleep(ctx, l.Config.Current().Interval) {
			break
		}
	}
	l.Logger.Info("Stopping watcher", zap.Int64("cycles", l.cycles))
	return nil
}

// runCycle is one pass: pending reload first, then ping, http and https
// hosts in configured order, then the OK-streak bookkeeping.
func (l *Loop) runCycle(ctx context.Context) {
	if l.Reload.Take() {
		l.reload(ctx)
	}
	w := l.Config.Current()
	if l.checker == nil {
		l.checker = l.NewChecker(w)
	}

	// in-flight checks and mails finish even after cancellation
	work := context.WithoutCancel(ctx)

	targets := w.Targets()
	var bad, failed int
	for _, t := range targets {
		if ctx.Err() != nil {
			return
		}
		res := l.check(work, w, t)
		switch res.Outcome {
		case domain.Bad:
			bad++
		case domain.Fail:
			failed++
		}
		l.report(work, w, res)
	}
	l.cycles++

	if bad+failed == 0 && len(targets) > 0 {
		l.advanceStreak(work, w)
	}

	if l.Results != nil {
		err := l.Results.RecordCycle(work, repo.CycleStats{
			Cycles:   l.cycles,
			OKStreak: l.okStreak,
			Bad:      bad,
			Failed:   failed,
		})
		if err != nil {
			l.Logger.Debug("record cycle failed", zap.Error(err))
		}
	}
}

func (l *Loop) check(ctx context.Context, w *config.Watch, t domain.Target) domain.CheckResult {
	// backstop only; checkers bound themselves with the probe timeout
	cctx, cancel := context.WithTimeout(ctx, 2*w.ProbeTimeout()+time.Second)
	defer cancel()

	res := l.checker.Check(cctx, t)
	if res.CheckedAt.IsZero() {
		res.CheckedAt = l.now().UTC()
	}
	if l.Results != nil {
		if err := l.Results.Append(ctx, res); err != nil {
			l.Logger.Debug("store result failed",
				zap.String("host", t.Host),
				zap.String("type", string(t.Type)),
				zap.Error(err),
			)
		}
	}
	return res
}

// reload swaps in a fresh snapshot. A broken file keeps the previous one.
func (l *Loop) reload(ctx context.Context) {
	work := context.WithoutCancel(ctx)
	old := l.Config.Current()
	w, err := l.Config.Reload()
	if err != nil {
		l.event(work, old, domain.LevelError, fmt.Sprintf("Config reload failed, keeping previous settings: %v", err), "")
		return
	}

	l.checker = l.NewChecker(w)
	l.okStreak = 0
	if r, ok := l.Results.(interface {
		Retain(context.Context, []domain.Target)
	}); ok {
		r.Retain(work, w.Targets())
	}

	l.notice(work, w, fmt.Sprintf("Config reloaded: %d hosts", len(w.Targets())), w.Summary())
	if w.IsEmpty() {
		l.Logger.Warn("Hosts for check are not set")
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
