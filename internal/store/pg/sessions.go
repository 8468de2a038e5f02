package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tradepost.org/internal/market"
)

// Session rows ------------------------------------------------------------

func (s *Store) InsertSession(ctx context.Context, sess *market.Session) error {
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(token, account_id, realm, last_active) values($1,$2,$3,$4)`,
		sess.Token, sess.AccountID, string(sess.Realm), sess.LastActive,
	)
	return storeErr(err)
}

func (s *Store) FindSession(ctx context.Context, token string) (*market.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`select token, account_id, realm, last_active from sessions where token=$1`, token)
	var (
		sess  market.Session
		realm string
	)
	if err := row.Scan(&sess.Token, &sess.AccountID, &realm, &sess.LastActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, market.ErrNotFound
		}
		return nil, storeErr(err)
	}
	sess.Realm = market.Realm(realm)
	return &sess, nil
}

func (s *Store) TouchSession(ctx context.Context, token string, at time.Time) error {
	// Touching an absent session is a no-op by contract.
	_, err := s.db.ExecContext(ctx,
		`update sessions set last_active=$2 where token=$1`, token, at)
	return storeErr(err)
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `delete from sessions where token=$1`, token)
	return storeErr(err)
}

// Account rows ------------------------------------------------------------

func (s *Store) CreateAccount(ctx context.Context, a *market.Account) error {
	err := s.db.QueryRowContext(ctx,
		`insert into accounts(realm, username, password_hash, created_at)
		 values($1,$2,$3,$4) returning id`,
		string(a.Realm), a.Username, a.PasswordHash, a.CreatedAt,
	).Scan(&a.ID)
	return storeErr(err)
}

func (s *Store) FindAccount(ctx context.Context, id int64) (*market.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`select id, realm, username, password_hash, thumbs_up, thumbs_down, created_at
		 from accounts where id=$1`, id))
}

func (s *Store) FindAccountByUsername(ctx context.Context, realm market.Realm, username string) (*market.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`select id, realm, username, password_hash, thumbs_up, thumbs_down, created_at
		 from accounts where realm=$1 and username=$2`, string(realm), username))
}

func scanAccount(row *sql.Row) (*market.Account, error) {
	var (
		a     market.Account
		realm string
	)
	err := row.Scan(&a.ID, &realm, &a.Username, &a.PasswordHash,
		&a.ThumbsUp, &a.ThumbsDown, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	a.Realm = market.Realm(realm)
	return &a, nil
}
