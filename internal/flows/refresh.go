package flows

import (
	"context"
	"encoding/json"
	"fmt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNoToken
	RefreshFailureTransport
	RefreshFailureStatus
	RefreshFailureBody
	RefreshFailureClaims
	RefreshFailureStore
)

// RefreshResult carries either the adopted token pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Status  int
	Token   string
	RoleID  int
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Token     func(context.Context) (string, error)
	Post      func(ctx context.Context, bearer string) (status int, body []byte, err error)
	RoleOf    func(string) (int, error)
	SaveToken func(context.Context, string) error
	SaveRole  func(context.Context, int) error
}

// RunRefresh executes the refresh protocol: POST the soon-to-expire token as
// bearer credential, adopt the replacement token from the response body, and
// overwrite the stored pair. Any failure is terminal for the session: the
// caller must force a logout and never retry; the only recovery is
// re-authentication.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	current, err := deps.Token(ctx)
	if err != nil || current == "" {
		if err == nil {
			err = fmt.Errorf("no token to refresh")
		}
		return RefreshResult{Failure: RefreshFailureNoToken, Err: err}
	}

	status, body, err := deps.Post(ctx, current)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureTransport, Err: err}
	}
	if status < 200 || status > 299 {
		return RefreshResult{
			Failure: RefreshFailureStatus,
			Err:     fmt.Errorf("refresh endpoint returned status %d", status),
			Status:  status,
		}
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		if err == nil {
			err = fmt.Errorf("refresh response missing token field")
		}
		return RefreshResult{Failure: RefreshFailureBody, Err: err, Status: status}
	}

	roleID, err := deps.RoleOf(out.Token)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureClaims, Err: err, Status: status}
	}

	if err := deps.SaveToken(ctx, out.Token); err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err, Status: status}
	}
	if err := deps.SaveRole(ctx, roleID); err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err, Status: status}
	}

	return RefreshResult{
		Failure: RefreshFailureNone,
		Status:  status,
		Token:   out.Token,
		RoleID:  roleID,
	}
}
