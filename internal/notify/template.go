package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// ResultBody is the detail block mailed for a check result.
func ResultBody(r domain.CheckResult, level domain.Level) string {
	at := r.CheckedAt
	if at.IsZero() {
		at = time.Now()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s\n\n", at.Local().Format(timeLayout), level, r.Message())
	fmt.Fprintf(&b, "Time:    %s\n", at.Local().Format(timeLayout))
	fmt.Fprintf(&b, "Host:    %s\n", r.Host)
	fmt.Fprintf(&b, "Check:   %s\n", r.Type)
	fmt.Fprintf(&b, "Result:  %s\n", r.Outcome)
	if r.Details != "" {
		fmt.Fprintf(&b, "Details: %s\n", r.Details)
	}
	return b.String()
}

// NoticeBody is the body of mails that are not about one check result.
func NoticeBody(at time.Time, level domain.Level, message, detail string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s\n", at.Local().Format(timeLayout), level, message)
	if detail != "" {
		b.WriteString("\n" + detail)
		if !strings.HasSuffix(detail, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
