package store

import "context"

// Store defines a public type used by MaxiTaxi client APIs.
//
// Store is the persisted-session contract: a bearer token and a role id kept
// as two independent entries. An absent entry is reported as the zero value
// with a nil error; errors are reserved for backend failures. Token
// replacement must be atomic at the write granularity: readers may observe
// the old pair or the new pair, never a torn one.
type Store interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, tok string) error
	RoleID(ctx context.Context) (int, error)
	SetRoleID(ctx context.Context, id int) error
	Clear(ctx context.Context) error
}
