package session

import (
	"context"
	"time"

	"tradepost.org/internal/market"
)

// Store describes session-row persistence. "Not found" is reported as
// market.ErrNotFound; everything else is a store failure surfaced to the
// caller.
type Store interface {
	InsertSession(ctx context.Context, s *market.Session) error
	FindSession(ctx context.Context, token string) (*market.Session, error)
	TouchSession(ctx context.Context, token string, at time.Time) error
	DeleteSession(ctx context.Context, token string) error
}

// AccountStore manages buyer and seller accounts. CreateAccount returns
// market.ErrConflict when the (realm, username) pair is already taken.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *market.Account) error
	FindAccount(ctx context.Context, id int64) (*market.Account, error)
	FindAccountByUsername(ctx context.Context, realm market.Realm, username string) (*market.Account, error)
}

// CartJanitor is the cross-component contract with the cart coordinator:
// when a buyer session is revoked or observed expired, the buyer's unsaved
// cart lines are deleted and their reservations released.
type CartJanitor interface {
	ReleaseUnsaved(ctx context.Context, buyerID int64) error
}
