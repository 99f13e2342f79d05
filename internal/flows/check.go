package flows

import (
	"context"
	"time"
)

// CheckOutcome classifies a session-validity check for root-level mapping.
type CheckOutcome int

const (
	CheckOutcomeValid CheckOutcome = iota
	CheckOutcomeExpiringSoon
	CheckOutcomeExpired
	CheckOutcomeNoSession
	CheckOutcomeMalformed
	CheckOutcomeStoreError
)

// CheckResult carries the validity decision and its supporting data.
type CheckResult struct {
	Outcome      CheckOutcome
	TimeToExpiry time.Duration
	Err          error
}

// CheckDeps captures session check dependencies.
type CheckDeps struct {
	Now           func() time.Time
	Token         func(context.Context) (string, error)
	ExpiryOf      func(string) (time.Time, error)
	RefreshWindow time.Duration
}

// RunCheck evaluates the stored token against the decision policy:
// expired (delta <= 0), expiring soon (0 < delta < RefreshWindow), or valid.
// An absent token maps to CheckOutcomeNoSession and an unparsable one to
// CheckOutcomeMalformed; both mean the session is gone and only
// re-authentication can recover it. RunCheck never refreshes or logs out
// itself; the caller acts on the outcome.
func RunCheck(ctx context.Context, deps CheckDeps) CheckResult {
	tok, err := deps.Token(ctx)
	if err != nil {
		return CheckResult{Outcome: CheckOutcomeStoreError, Err: err}
	}
	if tok == "" {
		return CheckResult{Outcome: CheckOutcomeNoSession}
	}

	expiresAt, err := deps.ExpiryOf(tok)
	if err != nil {
		return CheckResult{Outcome: CheckOutcomeMalformed, Err: err}
	}

	delta := expiresAt.Sub(deps.Now())
	switch {
	case delta <= 0:
		return CheckResult{Outcome: CheckOutcomeExpired, TimeToExpiry: delta}
	case delta < deps.RefreshWindow:
		return CheckResult{Outcome: CheckOutcomeExpiringSoon, TimeToExpiry: delta}
	default:
		return CheckResult{Outcome: CheckOutcomeValid, TimeToExpiry: delta}
	}
}
