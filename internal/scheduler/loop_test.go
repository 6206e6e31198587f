package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/hostwatcher/internal/config"
	"github.com/hamed0406/hostwatcher/internal/domain"
	"github.com/hamed0406/hostwatcher/internal/probe"
	"github.com/hamed0406/hostwatcher/internal/repo/memory"
	"github.com/hamed0406/hostwatcher/internal/watcher"
)

// --- fakes ---

type fakeSource struct {
	mu   sync.Mutex
	cur  *config.Watch
	next *config.Watch
	err  error
}

func (f *fakeSource) Current() *config.Watch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *fakeSource) Reload() (*config.Watch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.cur, f.err
	}
	f.cur = f.next
	return f.cur, nil
}

type sentMail struct {
	to, subject, body string
}

type memMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	trace *[]string
}

func (m *memMailer) Send(ctx context.Context, w *config.Watch, subject, body string) error {
	if !w.MailEnabled() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: w.MailTo, subject: subject, body: body})
	if m.trace != nil {
		*m.trace = append(*m.trace, "mail:"+subject)
	}
	return nil
}

func (m *memMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// scripted returns outcomes per host; unknown hosts are OK.
type scripted struct {
	mu       sync.Mutex
	outcomes map[string]domain.CheckResult
	calls    []string
	trace    *[]string
}

func (s *scripted) Check(ctx context.Context, t domain.Target) domain.CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, t.Host)
	if s.trace != nil {
		*s.trace = append(*s.trace, "check:"+t.Host)
	}
	if r, ok := s.outcomes[t.Host]; ok {
		r.Host, r.Type = t.Host, t.Type
		return r
	}
	return domain.CheckResult{Host: t.Host, Type: t.Type, Outcome: domain.OK}
}

func (s *scripted) set(host string, o domain.Outcome, details string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcomes == nil {
		s.outcomes = map[string]domain.CheckResult{}
	}
	s.outcomes[host] = domain.CheckResult{Outcome: o, Details: details}
}

func watchWith(mutate func(w *config.Watch)) *config.Watch {
	w := config.Defaults()
	w.Interval = time.Millisecond
	mutate(w)
	return w
}

func newTestLoop(src ConfigSource, chk probe.Checker, mailer *memMailer) (*Loop, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoop(zap.New(core), src, &watcher.Flag{}, mailer, memory.New(),
		func(*config.Watch) probe.Checker { return chk })
	return l, logs
}

// --- tests ---

func TestLoop_ScenarioOneFailingHost(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.PingList = []string{"host1", "host2"}
		w.Interval = 5 * time.Second
		w.MailTo = "a@b.com"
		w.MailLevels = []domain.Level{domain.LevelError}
	})}
	chk := &scripted{}
	chk.set("host2", domain.Fail, "timeout")
	mailer := &memMailer{}
	l, logs := newTestLoop(src, chk, mailer)

	l.runCycle(context.Background())

	var results []observer.LoggedEntry
	for _, e := range logs.All() {
		if strings.Contains(e.Message, " test ") {
			results = append(results, e)
		}
	}
	if len(results) != 2 {
		t.Fatalf("want 2 result lines, got %+v", logs.All())
	}
	if results[0].Level != zapcore.InfoLevel || results[0].Message != "Ping test host1 OK" {
		t.Fatalf("unexpected first line: %v %q", results[0].Level, results[0].Message)
	}
	if results[1].Level != zapcore.ErrorLevel || results[1].Message != "Ping test host2 FAILED: timeout" {
		t.Fatalf("unexpected second line: %v %q", results[1].Level, results[1].Message)
	}
	if mailer.count() != 1 {
		t.Fatalf("want exactly 1 mail, got %+v", mailer.sent)
	}
	if !strings.Contains(mailer.sent[0].subject, "host2 PING FAIL") {
		t.Fatalf("unexpected subject: %q", mailer.sent[0].subject)
	}
	if l.okStreak != 0 {
		t.Fatalf("want streak 0, got %d", l.okStreak)
	}
}

func TestLoop_OrderPingHTTPHTTPS(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.HTTPSList = []string{"s1"}
		w.HTTPList = []string{"h1", "h2"}
		w.PingList = []string{"p1"}
	})}
	chk := &scripted{}
	l, _ := newTestLoop(src, chk, &memMailer{})
	l.runCycle(context.Background())

	if got := strings.Join(chk.calls, ","); got != "p1,h1,h2,s1" {
		t.Fatalf("unexpected order: %s", got)
	}
}

func TestLoop_SummaryAfterNHealthyCycles(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.PingList = []string{"host1"}
		w.MailTo = "a@b.com"
		w.MailAfterOKChecks = 3
	})}
	mailer := &memMailer{}
	l, logs := newTestLoop(src, &scripted{}, mailer)

	for i := 0; i < 2; i++ {
		l.runCycle(context.Background())
	}
	if mailer.count() != 0 || l.okStreak != 2 {
		t.Fatalf("after 2 cycles: mails=%d streak=%d", mailer.count(), l.okStreak)
	}
	l.runCycle(context.Background())
	if mailer.count() != 1 || mailer.sent[0].subject != "All tests OK" {
		t.Fatalf("want one summary mail, got %+v", mailer.sent)
	}
	if l.okStreak != 0 {
		t.Fatalf("streak should reset after summary, got %d", l.okStreak)
	}
	if logs.FilterMessage("All tests OK").Len() != 1 {
		t.Fatalf("summary should be logged once")
	}

	for i := 0; i < 3; i++ {
		l.runCycle(context.Background())
	}
	if mailer.count() != 2 {
		t.Fatalf("want second summary after 3 more cycles, got %d", mailer.count())
	}
}

func TestLoop_BadResetsStreak(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.PingList = []string{"host1"}
		w.HTTPList = []string{"web"}
		w.MailAfterOKChecks = 5
	})}
	chk := &scripted{}
	l, logs := newTestLoop(src, chk, &memMailer{})

	l.runCycle(context.Background())
	l.runCycle(context.Background())
	if l.okStreak != 2 {
		t.Fatalf("want streak 2, got %d", l.okStreak)
	}

	chk.set("web", domain.Bad, "status code 503")
	l.runCycle(context.Background())
	if l.okStreak != 0 {
		t.Fatalf("BAD must reset streak, got %d", l.okStreak)
	}
	if logs.FilterMessage("HTTP test web BAD: status code 503").FilterField(zap.String("outcome", "BAD")).Len() != 1 {
		t.Fatalf("BAD result should be logged at WARNING with fields")
	}
	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warn) != 1 {
		t.Fatalf("want one warning, got %+v", warn)
	}

	chk.set("web", domain.OK, "")
	l.runCycle(context.Background())
	if l.okStreak != 1 {
		t.Fatalf("streak should restart at 1, got %d", l.okStreak)
	}
}

func TestLoop_StreakDisabledWhenZero(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.PingList = []string{"host1"}
		w.MailTo = "a@b.com"
	})}
	mailer := &memMailer{}
	l, _ := newTestLoop(src, &scripted{}, mailer)
	for i := 0; i < 5; i++ {
		l.runCycle(context.Background())
	}
	if l.okStreak != 0 || mailer.count() != 0 {
		t.Fatalf("streak=%d mails=%d, want both 0", l.okStreak, mailer.count())
	}
}

func TestLoop_NoRecipientNeverMails(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.PingList = []string{"host1", "host2"}
		w.MailLevels = []domain.Level{domain.LevelInfo, domain.LevelWarning, domain.LevelError}
		w.MailAfterOKChecks = 1
	})}
	src.next = src.cur
	chk := &scripted{}
	chk.set("host2", domain.Fail, "unreachable")
	sent := 0
	mailer := &countingMailer{n: &sent}
	core, _ := observer.New(zapcore.DebugLevel)
	l := NewLoop(zap.New(core), src, &watcher.Flag{}, mailer, nil,
		func(*config.Watch) probe.Checker { return chk })

	for i := 0; i < 3; i++ {
		l.runCycle(context.Background())
	}
	chk.set("host2", domain.OK, "")
	l.Reload.Set()
	for i := 0; i < 3; i++ {
		l.runCycle(context.Background())
	}
	if sent != 0 {
		t.Fatalf("no mail-to: want 0 sends, got %d", sent)
	}
}

// countingMailer counts every call, even ones a real mailer would skip.
type countingMailer struct{ n *int }

func (c *countingMailer) Send(ctx context.Context, w *config.Watch, subject, body string) error {
	*c.n++
	return nil
}

func TestLoop_InfoLevelMailResetsStreak(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.PingList = []string{"host1"}
		w.MailTo = "a@b.com"
		w.MailLevels = []domain.Level{domain.LevelInfo}
		w.MailAfterOKChecks = 2
	})}
	mailer := &memMailer{}
	l, _ := newTestLoop(src, &scripted{}, mailer)

	l.runCycle(context.Background())
	l.runCycle(context.Background())
	// each OK result is mailed, which resets the streak before the
	// end-of-cycle increment, so the summary never fires
	if l.okStreak != 1 {
		t.Fatalf("want streak 1, got %d", l.okStreak)
	}
	for _, m := range mailer.sent {
		if m.subject == "All tests OK" {
			t.Fatalf("summary should not be sent")
		}
	}
	if mailer.count() != 2 {
		t.Fatalf("want 2 result mails, got %d", mailer.count())
	}
}

func TestLoop_EmptyConfigStopsBeforeCycling(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {})}
	chk := &scripted{}
	l, logs := newTestLoop(src, chk, &memMailer{})

	err := l.Run(context.Background())
	if !errors.Is(err, ErrNoHosts) {
		t.Fatalf("want ErrNoHosts, got %v", err)
	}
	if len(chk.calls) != 0 {
		t.Fatalf("no check should run, got %v", chk.calls)
	}
	w := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(w) != 1 || w[0].Message != "Hosts for check are not set" {
		t.Fatalf("want one warning, got %+v", logs.All())
	}
}

func TestLoop_ReloadBeforeChecks(t *testing.T) {
	var trace []string
	src := &fakeSource{
		cur: watchWith(func(w *config.Watch) {
			w.PingList = []string{"old"}
			w.MailTo = "a@b.com"
		}),
		next: watchWith(func(w *config.Watch) {
			w.PingList = []string{"new1"}
			w.HTTPList = []string{"new2"}
			w.MailTo = "a@b.com"
		}),
	}
	chk := &scripted{trace: &trace}
	mailer := &memMailer{trace: &trace}
	l, logs := newTestLoop(src, chk, mailer)
	built := 0
	l.NewChecker = func(*config.Watch) probe.Checker { built++; return chk }

	l.runCycle(context.Background())
	l.Reload.Set()
	l.runCycle(context.Background())

	want := "check:old,mail:Config reloaded: 2 hosts,check:new1,check:new2"
	if got := strings.Join(trace, ","); got != want {
		t.Fatalf("trace\n got: %s\nwant: %s", got, want)
	}
	if logs.FilterMessage("Config reloaded: 2 hosts").FilterLevelExact(zapcore.InfoLevel).Len() != 1 {
		t.Fatalf("reload should be logged at INFO")
	}
	if !strings.Contains(mailer.sent[0].body, "ping-list: new1") {
		t.Fatalf("reload mail should summarize the new config: %q", mailer.sent[0].body)
	}
	if built != 2 {
		t.Fatalf("checker should be rebuilt from the new snapshot, built=%d", built)
	}
	if l.Reload.Pending() {
		t.Fatalf("flag should be consumed")
	}
}

func TestLoop_ReloadFailureKeepsPrevious(t *testing.T) {
	src := &fakeSource{
		cur: watchWith(func(w *config.Watch) { w.PingList = []string{"old"} }),
		err: errors.New(`mandatory section "watch" absent`),
	}
	chk := &scripted{}
	l, logs := newTestLoop(src, chk, &memMailer{})

	l.Reload.Set()
	l.runCycle(context.Background())

	if got := strings.Join(chk.calls, ","); got != "old" {
		t.Fatalf("previous hosts should be checked, got %s", got)
	}
	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "Config reload failed") {
		t.Fatalf("want reload failure at ERROR, got %+v", logs.All())
	}
}

func TestLoop_CancelDuringCycleLetsCheckFinish(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.PingList = []string{"first", "second"}
		w.Interval = time.Hour
	})}
	ctx, cancel := context.WithCancel(context.Background())
	var checked []string
	var ctxErrInCheck error
	chk := probe.CheckerFunc(func(cctx context.Context, t domain.Target) domain.CheckResult {
		checked = append(checked, t.Host)
		cancel()
		ctxErrInCheck = cctx.Err()
		return domain.CheckResult{Host: t.Host, Type: t.Type, Outcome: domain.OK}
	})
	l, _ := newTestLoop(src, chk, &memMailer{})

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if ctxErrInCheck != nil {
		t.Fatalf("in-flight check must not be cancelled, got %v", ctxErrInCheck)
	}
	if strings.Join(checked, ",") != "first" {
		t.Fatalf("remaining hosts should be skipped, got %v", checked)
	}
}

func TestLoop_CancelDuringSleep(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.PingList = []string{"h"}
		w.Interval = time.Hour
	})}
	l, logs := newTestLoop(src, &scripted{}, &memMailer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop while sleeping")
	}
	if logs.FilterMessage("Stopping watcher").Len() != 1 {
		t.Fatalf("expected stop message")
	}
}

func TestLoop_RunRepeatsCycles(t *testing.T) {
	src := &fakeSource{cur: watchWith(func(w *config.Watch) {
		w.PingList = []string{"h"}
		w.Interval = 2 * time.Millisecond
	})}
	chk := &scripted{}
	store := memory.New()
	core, _ := observer.New(zapcore.InfoLevel)
	l := NewLoop(zap.New(core), src, nil, &memMailer{}, store,
		func(*config.Watch) probe.Checker { return chk })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, _ := store.Stats(context.Background())
		if st.Cycles >= 3 {
			rows, _ := store.Latest(context.Background())
			if len(rows) != 1 || rows[0].Host != "h" || rows[0].CheckedAt.IsZero() {
				t.Fatalf("unexpected stored rows: %+v", rows)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected at least 3 cycles")
}

func TestLoop_FileChangeBetweenCycles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "watch.ini")
	if err := os.WriteFile(p, []byte("[watch]\nping-list = host1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := config.NewStore(p)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	flag := &watcher.Flag{}
	fw, err := watcher.New(p, flag, zap.NewNop())
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = fw.Run(ctx) }()
	defer func() {
		cancel()
		<-fw.Done()
	}()

	chk := &scripted{}
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoop(zap.New(core), store, flag, &memMailer{}, nil,
		func(*config.Watch) probe.Checker { return chk })

	l.runCycle(context.Background())
	// replace by rename so the reload never sees a half-written file
	tmp := filepath.Join(dir, "watch.ini.new")
	if err := os.WriteFile(tmp, []byte("[watch]\nping-list = host2, host3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, p); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for !flag.Pending() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	l.runCycle(context.Background())

	if got := strings.Join(chk.calls, ","); got != "host1,host2,host3" {
		t.Fatalf("unexpected checks: %s", got)
	}
	if logs.FilterMessage("Config reloaded: 2 hosts").Len() != 1 {
		t.Fatalf("expected reload notice, got %+v", logs.All())
	}
}
