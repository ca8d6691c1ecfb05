package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/klevoclub/klevo/internal/db"
)

// ErrBadCredentials is returned for an unknown login or a wrong password.
var ErrBadCredentials = errors.New("invalid login or password")

// Accounts is the slice of the account repository the auth service needs.
type Accounts interface {
	CreateAccount(ctx context.Context, login, passwordHash, nickname string) (*db.Account, error)
	AccountByLogin(ctx context.Context, login string) (*db.Account, error)
	TouchAccount(ctx context.Context, accountID int64) error
}

// Auth issues bearer tokens for password logins. Tokens live in process
// memory; a restart logs everyone out.
type Auth struct {
	accounts Accounts

	mu     sync.RWMutex
	tokens map[string]int64 // token -> player id
}

// NewAuth creates the auth service.
func NewAuth(accounts Accounts) *Auth {
	return &Auth{accounts: accounts, tokens: make(map[string]int64)}
}

// Register creates the account and logs it straight in.
func (a *Auth) Register(ctx context.Context, login, password, nickname string) (token string, playerID int64, err error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", 0, fmt.Errorf("hashing password: %w", err)
	}
	acc, err := a.accounts.CreateAccount(ctx, login, string(hash), nickname)
	if err != nil {
		return "", 0, err
	}
	return a.issue(acc.PlayerID), acc.PlayerID, nil
}

// Login verifies the password and issues a fresh token.
func (a *Auth) Login(ctx context.Context, login, password string) (token string, playerID int64, err error) {
	acc, err := a.accounts.AccountByLogin(ctx, login)
	if err != nil {
		return "", 0, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return "", 0, ErrBadCredentials
	}
	if err := a.accounts.TouchAccount(ctx, acc.ID); err != nil {
		return "", 0, err
	}
	return a.issue(acc.PlayerID), acc.PlayerID, nil
}

// Resolve maps a bearer token back to the player.
func (a *Auth) Resolve(token string) (int64, bool) {
	a.mu.RLock()
	id, ok := a.tokens[token]
	a.mu.RUnlock()
	return id, ok
}

func (a *Auth) issue(playerID int64) string {
	token := uuid.NewString()
	a.mu.Lock()
	a.tokens[token] = playerID
	a.mu.Unlock()
	return token
}
