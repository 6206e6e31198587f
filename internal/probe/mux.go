package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

// Mux routes a target to the checker registered for its type.
type Mux struct {
	checkers map[domain.CheckType]Checker
	now      func() time.Time
}

func NewMux() *Mux {
	return &Mux{checkers: make(map[domain.CheckType]Checker), now: time.Now}
}

func (m *Mux) Handle(typ domain.CheckType, c Checker) {
	m.checkers[typ] = c
}

// Check always yields exactly one OK/BAD/FAIL result, even when the
// underlying checker panics.
func (m *Mux) Check(ctx context.Context, t domain.Target) (res domain.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			res = fail(t, fmt.Errorf("check panicked: %v", r))
		}
		res.Host, res.Type = t.Host, t.Type
		if res.Outcome != domain.OK && res.Outcome != domain.Bad {
			res.Outcome = domain.Fail
		}
		if res.CheckedAt.IsZero() {
			res.CheckedAt = m.now().UTC()
		}
	}()

	c, found := m.checkers[t.Type]
	if !found {
		return fail(t, fmt.Errorf("unsupported check type %q", t.Type))
	}
	return c.Check(ctx, t)
}
