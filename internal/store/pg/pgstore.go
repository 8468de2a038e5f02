package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tradepost.org/internal/cart"
	"tradepost.org/internal/catalog"
	"tradepost.org/internal/checkout"
	"tradepost.org/internal/feedback"
	"tradepost.org/internal/inventory"
	"tradepost.org/internal/market"
	"tradepost.org/internal/session"
)

// Store implements every component store interface over one Postgres pool.
// The database is the only serialization point: all stock mutations are
// single conditional updates and the checkout commit is one transaction.
type Store struct {
	db *sql.DB
}

var (
	_ session.Store        = (*Store)(nil)
	_ session.AccountStore = (*Store)(nil)
	_ catalog.Store        = (*Store)(nil)
	_ inventory.Store      = (*Store)(nil)
	_ cart.Store           = (*Store)(nil)
	_ checkout.Store       = (*Store)(nil)
	_ feedback.Store       = (*Store)(nil)
)

// Open connects to Postgres via the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing pool (used by tests with sqlmock).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const uniqueViolation = "23505"

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// storeErr maps driver failures onto the shared taxonomy: unique-key
// violations become ErrConflict, everything else is fatal for the call.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return market.ErrConflict
	}
	return fmt.Errorf("%w: %v", market.ErrStoreUnavailable, err)
}
