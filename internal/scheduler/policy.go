package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/hostwatcher/internal/config"
	"github.com/hamed0406/hostwatcher/internal/domain"
	"github.com/hamed0406/hostwatcher/internal/notify"
)

// report logs a result at its severity and mails it when the level is in
// mail-levels-list. Every occurrence is mailed; there is no dedup.
func (l *Loop) report(ctx context.Context, w *config.Watch, res domain.CheckResult) {
	level := res.Outcome.Severity()
	if res.Outcome != domain.OK {
		l.okStreak = 0
	}
	l.log(level, res.Message(),
		zap.String("host", res.Host),
		zap.String("type", string(res.Type)),
		zap.String("outcome", string(res.Outcome)),
		zap.String("details", res.Details),
		zap.Float64("latency_ms", res.LatencyMS),
	)
	if w.MailsAt(level) {
		l.mail(ctx, w, res.Subject(), notify.ResultBody(res, level))
	}
}

// advanceStreak runs after a cycle without BAD/FAIL results.
func (l *Loop) advanceStreak(ctx context.Context, w *config.Watch) {
	if w.MailAfterOKChecks <= 0 {
		return
	}
	l.okStreak++
	if l.okStreak >= w.MailAfterOKChecks {
		l.notice(ctx, w, "All tests OK", "")
		l.okStreak = 0
	}
}

// notice is an INFO message mailed regardless of mail-levels-list.
func (l *Loop) notice(ctx context.Context, w *config.Watch, message, detail string) {
	l.log(domain.LevelInfo, message)
	if w.MailEnabled() {
		l.mail(ctx, w, message, notify.NoticeBody(l.now(), domain.LevelInfo, message, detail))
	}
}

// event is a message mailed only when its level is in mail-levels-list.
func (l *Loop) event(ctx context.Context, w *config.Watch, level domain.Level, message, detail string) {
	l.log(level, message)
	if w.MailsAt(level) {
		l.mail(ctx, w, message, notify.NoticeBody(l.now(), level, message, detail))
	}
}

// mail resets the OK-streak whether or not delivery succeeds; failures are
// logged by the Mailer.
func (l *Loop) mail(ctx context.Context, w *config.Watch, subject, body string) {
	_ = l.Mailer.Send(ctx, w, subject, body)
	l.okStreak = 0
}

func (l *Loop) log(level domain.Level, msg string, fields ...zap.Field) {
	switch level {
	case domain.LevelDebug:
		l.Logger.Debug(msg, fields...)
	case domain.LevelInfo:
		l.Logger.Info(msg, fields...)
	case domain.LevelWarning:
		l.Logger.Warn(msg, fields...)
	default:
		l.Logger.Error(msg, fields...)
	}
}
