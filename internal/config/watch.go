package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

const (
	DefaultInterval     = 60 * time.Second
	DefaultCheckTimeout = 30 * time.Second
	DefaultMailFrom     = "report@watcher.tld"
	DefaultSendmailPath = "/usr/sbin/sendmail"
	DefaultSMTPAddr     = "localhost:25"

	TransportSendmail = "sendmail"
	TransportSMTP     = "smtp"
)

// Watch is one immutable snapshot of the watch file. A reload builds a new
// Watch and swaps it in whole; fields are never edited in place.
type Watch struct {
	PingList  []string
	HTTPList  []string
	HTTPSList []string

	Interval     time.Duration // "timeout" key: sleep between cycles
	CheckTimeout time.Duration // per-check network bound

	MailTo            string // empty disables mail
	MailFrom          string
	MailLevels        []domain.Level
	MailAfterOKChecks int // 0 disables the "All tests OK" summary

	DNSDiagnose bool

	MailTransport string
	SendmailPath  string
	SMTPAddr      string
	SMTPUser      string
	SMTPPassword  string
}

// Defaults returns the snapshot used for keys absent from the file.
func Defaults() *Watch {
	return &Watch{
		Interval:      DefaultInterval,
		CheckTimeout:  DefaultCheckTimeout,
		MailFrom:      DefaultMailFrom,
		MailLevels:    []domain.Level{domain.LevelWarning, domain.LevelError},
		MailTransport: TransportSendmail,
		SendmailPath:  DefaultSendmailPath,
		SMTPAddr:      DefaultSMTPAddr,
	}
}

// IsEmpty reports whether no host is configured in any list.
func (w *Watch) IsEmpty() bool {
	return len(w.PingList) == 0 && len(w.HTTPList) == 0 && len(w.HTTPSList) == 0
}

// Targets lists the cycle's checks: ping list, then http, then https,
// each in file order.
func (w *Watch) Targets() []domain.Target {
	out := make([]domain.Target, 0, len(w.PingList)+len(w.HTTPList)+len(w.HTTPSList))
	for _, h := range w.PingList {
		out = append(out, domain.Target{Host: h, Type: domain.Ping})
	}
	for _, h := range w.HTTPList {
		out = append(out, domain.Target{Host: h, Type: domain.HTTP})
	}
	for _, h := range w.HTTPSList {
		out = append(out, domain.Target{Host: h, Type: domain.HTTPS})
	}
	return out
}

func (w *Watch) MailEnabled() bool { return w.MailTo != "" }

// MailsAt reports whether a message logged at level should also be mailed.
func (w *Watch) MailsAt(level domain.Level) bool {
	return w.MailEnabled() && slices.Contains(w.MailLevels, level)
}

// ProbeTimeout is the per-check timeout, never longer than the cycle interval.
func (w *Watch) ProbeTimeout() time.Duration {
	if w.CheckTimeout <= 0 {
		return DefaultCheckTimeout
	}
	if w.Interval > 0 && w.CheckTimeout > w.Interval {
		return w.Interval
	}
	return w.CheckTimeout
}

// Summary renders the snapshot for the reload notice. Credentials are omitted.
func (w *Watch) Summary() string {
	levels := make([]string, 0, len(w.MailLevels))
	for _, l := range w.MailLevels {
		levels = append(levels, string(l))
	}
	mailTo := w.MailTo
	if mailTo == "" {
		mailTo = "(disabled)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ping-list: %s\n", strings.Join(w.PingList, ", "))
	fmt.Fprintf(&b, "http-list: %s\n", strings.Join(w.HTTPList, ", "))
	fmt.Fprintf(&b, "https-list: %s\n", strings.Join(w.HTTPSList, ", "))
	fmt.Fprintf(&b, "timeout: %d\n", int(w.Interval/time.Second))
	fmt.Fprintf(&b, "check-timeout: %d\n", int(w.ProbeTimeout()/time.Second))
	fmt.Fprintf(&b, "mail-to: %s\n", mailTo)
	fmt.Fprintf(&b, "mail-from: %s\n", w.MailFrom)
	fmt.Fprintf(&b, "mail-levels-list: %s\n", strings.Join(levels, ", "))
	fmt.Fprintf(&b, "mail-after-ok-checks: %d\n", w.MailAfterOKChecks)
	fmt.Fprintf(&b, "mail-transport: %s\n", w.MailTransport)
	return b.String()
}
