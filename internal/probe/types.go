package probe

import (
	"context"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

// Checker runs one check against one target. Implementations never return
// an error: a check that cannot complete is reported as a FAIL result.
type Checker interface {
	Check(ctx context.Context, t domain.Target) domain.CheckResult
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, t domain.Target) domain.CheckResult

func (f CheckerFunc) Check(ctx context.Context, t domain.Target) domain.CheckResult {
	return f(ctx, t)
}

func ok(t domain.Target) domain.CheckResult {
	return domain.CheckResult{Host: t.Host, Type: t.Type, Outcome: domain.OK}
}

func bad(t domain.Target, details string) domain.CheckResult {
	return domain.CheckResult{Host: t.Host, Type: t.Type, Outcome: domain.Bad, Details: details}
}

func fail(t domain.Target, err error) domain.CheckResult {
	return domain.CheckResult{Host: t.Host, Type: t.Type, Outcome: domain.Fail, Details: err.Error()}
}
