// cmd/preflight/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/hostwatcher/internal/config"
	"github.com/hamed0406/hostwatcher/internal/domain"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	env, err := config.FromEnv()
	if err != nil {
		fail(err.Error())
	}
	path := env.WatchFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	w, err := config.Load(path)
	if err != nil {
		var cerr *config.Error
		if errors.As(err, &cerr) {
			// one line per bad key
			for _, e := range multierr.Errors(cerr.Err) {
				fmt.Fprintln(os.Stderr, "✖", e)
			}
		}
		fail("cannot load " + path)
	}
	ok("loaded " + path)

	if w.IsEmpty() {
		warn("no hosts configured; hostwatcher will exit right away.")
	} else {
		ok(fmt.Sprintf("%d ping, %d http, %d https hosts every %s",
			len(w.PingList), len(w.HTTPList), len(w.HTTPSList), w.Interval))
	}
	if w.ProbeTimeout() < w.CheckTimeout {
		warn(fmt.Sprintf("check-timeout %s is longer than the interval; using %s", w.CheckTimeout, w.ProbeTimeout()))
	}

	if !w.MailEnabled() {
		warn("mail-to is empty; no mail will be sent.")
	} else {
		ok("mail-to=" + w.MailTo + " levels=" + joinLevels(w.MailLevels))
		switch w.MailTransport {
		case config.TransportSMTP:
			ok("smtp " + w.SMTPAddr)
			if w.SMTPUser != "" && w.SMTPPassword == "" {
				warn("smtp-user is set without smtp-password.")
			}
		default:
			if _, err := exec.LookPath(w.SendmailPath); err != nil {
				warn("sendmail not runnable at " + w.SendmailPath + ": " + err.Error())
			} else {
				ok("sendmail " + w.SendmailPath)
			}
		}
		if w.MailFrom == config.DefaultMailFrom {
			warn("mail-from is the placeholder " + config.DefaultMailFrom + ".")
		}
	}
	if w.MailAfterOKChecks > 0 {
		ok(fmt.Sprintf("summary mail after %d healthy cycles", w.MailAfterOKChecks))
		if w.MailsAt(domain.LevelInfo) {
			warn("INFO is in mail-levels-list; every OK result mails and resets the streak.")
		}
	}

	ok("preflight passed")
}

func joinLevels(ls []domain.Level) string {
	s := make([]string, len(ls))
	for i, l := range ls {
		s[i] = string(l)
	}
	return strings.Join(s, ",")
}
