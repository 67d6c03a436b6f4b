package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteBlacklistRepo はSQLiteを使用した失効トークンリポジトリ。
type SQLiteBlacklistRepo struct {
	db *sql.DB
}

// NewSQLiteBlacklistRepo はSQLiteBlacklistRepoを生成する。
func NewSQLiteBlacklistRepo(db *sql.DB) *SQLiteBlacklistRepo {
	return &SQLiteBlacklistRepo{db: db}
}

// Record はトークンを失効済みとして記録する。
func (r *SQLiteBlacklistRepo) Record(ctx context.Context, tokenString string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO token_blacklist (id, token, created_at) VALUES (?, ?, ?)`,
		uuid.New().String(), tokenString, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record blacklisted token: %w", err)
	}
	return nil
}

// IsBlacklisted はトークンが失効済みかどうかを返す。
func (r *SQLiteBlacklistRepo) IsBlacklisted(ctx context.Context, tokenString string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM token_blacklist WHERE token = ? LIMIT 1`,
		tokenString,
	).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return true, nil
}

// DeleteOlderThan は指定時刻より古いエントリを削除し、削除件数を返す。
func (r *SQLiteBlacklistRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM token_blacklist WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired blacklist entries: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// compile-time interface check
var _ BlacklistRepository = (*SQLiteBlacklistRepo)(nil)
