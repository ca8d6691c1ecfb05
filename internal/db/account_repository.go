package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klevoclub/klevo/internal/game/fishing"
)

// ErrLoginTaken is returned when registering an already used login or
// nickname.
var ErrLoginTaken = errors.New("login or nickname already taken")

// Account is an authentication record. Gameplay state hangs off the
// player, not the account.
type Account struct {
	ID           int64
	Login        string
	PasswordHash string
	PlayerID     int64
}

// AccountRepository persists accounts and their player rows.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates the repository on the shared pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// CreateAccount registers the account together with its player row.
func (r *AccountRepository) CreateAccount(ctx context.Context, login, passwordHash, nickname string) (*Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	a := Account{Login: login, PasswordHash: passwordHash}
	err = tx.QueryRow(ctx,
		`INSERT INTO accounts (login, password_hash) VALUES ($1, $2) RETURNING id`,
		login, passwordHash,
	).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("creating account %q: %w", login, err)
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO players (account_id, nickname) VALUES ($1, $2) RETURNING id`,
		a.ID, nickname,
	).Scan(&a.PlayerID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("creating player %q: %w", nickname, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing account %q: %w", login, err)
	}
	return &a, nil
}

// AccountByLogin returns the account with its player id resolved.
func (r *AccountRepository) AccountByLogin(ctx context.Context, login string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx,
		`SELECT a.id, a.login, a.password_hash, p.id
		 FROM accounts a
		 JOIN players p ON p.account_id = a.id
		 WHERE a.login = $1`, login,
	).Scan(&a.ID, &a.Login, &a.PasswordHash, &a.PlayerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("account %q: %w", login, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %q: %w", login, err)
	}
	return &a, nil
}

// TouchAccount records login activity.
func (r *AccountRepository) TouchAccount(ctx context.Context, accountID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET last_active = now() WHERE id = $1`, accountID,
	)
	if err != nil {
		return fmt.Errorf("touching account %d: %w", accountID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
