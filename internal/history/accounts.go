package history

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type RefreshToken struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

var ErrTokenExpired = errors.New("refresh token expired")

func (d *DB) CreateAccount(username, passwordHash string) (*Account, error) {
	acc := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	_, err := d.sql.Exec(
		`INSERT INTO accounts (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		acc.ID, acc.Username, acc.PasswordHash, acc.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (d *DB) GetAccountByUsername(username string) (*Account, error) {
	var acc Account
	var createdAt int64
	err := d.sql.QueryRow(
		`SELECT id, username, password_hash, created_at FROM accounts WHERE username = ?`,
		username,
	).Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &createdAt)
	if err != nil {
		return nil, err
	}
	acc.CreatedAt = time.UnixMilli(createdAt)
	return &acc, nil
}

func (d *DB) GetAccountByID(id string) (*Account, error) {
	var acc Account
	var createdAt int64
	err := d.sql.QueryRow(
		`SELECT id, username, password_hash, created_at FROM accounts WHERE id = ?`,
		id,
	).Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &createdAt)
	if err != nil {
		return nil, err
	}
	acc.CreatedAt = time.UnixMilli(createdAt)
	return &acc, nil
}

func (d *DB) UpdateAccountPassword(id, passwordHash string) error {
	_, err := d.sql.Exec(`UPDATE accounts SET password_hash = ? WHERE id = ?`, passwordHash, id)
	return err
}

func (d *DB) HasAnyAccount() (bool, error) {
	var count int
	err := d.sql.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count)
	return count > 0, err
}

func (d *DB) CreateRefreshToken(token, accountID string, expiresAt time.Time) error {
	_, err := d.sql.Exec(
		`INSERT INTO refresh_tokens (token, account_id, expires_at, created_at) VALUES (?,?,?,?)`,
		token, accountID, expiresAt.UnixMilli(), time.Now().UnixMilli(),
	)
	return err
}

// GetRefreshToken returns a live token. Expired tokens are deleted on sight.
func (d *DB) GetRefreshToken(token string) (*RefreshToken, error) {
	var rt RefreshToken
	var expiresAt, createdAt int64
	err := d.sql.QueryRow(
		`SELECT token, account_id, expires_at, created_at FROM refresh_tokens WHERE token = ?`,
		token,
	).Scan(&rt.Token, &rt.AccountID, &expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errors.New("refresh token not found")
	}
	if err != nil {
		return nil, err
	}
	rt.ExpiresAt = time.UnixMilli(expiresAt)
	rt.CreatedAt = time.UnixMilli(createdAt)
	if time.Now().After(rt.ExpiresAt) {
		d.DeleteRefreshToken(token)
		return nil, ErrTokenExpired
	}
	return &rt, nil
}

func (d *DB) DeleteRefreshToken(token string) error {
	_, err := d.sql.Exec(`DELETE FROM refresh_tokens WHERE token = ?`, token)
	return err
}

func (d *DB) DeleteRefreshTokensByAccount(accountID string) error {
	_, err := d.sql.Exec(`DELETE FROM refresh_tokens WHERE account_id = ?`, accountID)
	return err
}
