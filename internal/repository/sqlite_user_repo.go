package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/omebia/rdt/internal/model"
)

// userFields は検索に使用できるカラム名の許可リスト。
// SQLへ連結する識別子はここで検証済みのものに限る。
var userFields = map[string]bool{
	"id":    true,
	"email": true,
}

// SQLiteUserRepo はSQLiteを使用したユーザーリポジトリ。
type SQLiteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo はSQLiteUserRepoを生成する。
func NewSQLiteUserRepo(db *sql.DB) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: db}
}

// FindByField は指定フィールドでユーザーを検索する。見つからない場合はnilを返す。
func (r *SQLiteUserRepo) FindByField(ctx context.Context, field, value string) (*model.User, error) {
	if !userFields[field] {
		return nil, fmt.Errorf("field %q is not allowed for user lookup", field)
	}

	user := &model.User{}
	var createdAt string
	var image []byte

	query := fmt.Sprintf(
		`SELECT id, name, email, password, role, created_at, image FROM user WHERE %s = ?`, field)
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID, &user.Name, &user.Email, &user.Password, &user.Role, &createdAt, &image,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by %s: %w", field, err)
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		user.CreatedAt = t
	}
	user.Image = image

	return user, nil
}

// Create はユーザーを作成する。
func (r *SQLiteUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user (id, name, email, password, role, created_at, image)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Password, user.Role,
		user.CreatedAt.UTC().Format(time.RFC3339), user.Image,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update は指定IDのユーザーを部分更新する。
// 更新対象が無い場合はエラーを返す。呼び出し側で事前に検証すること。
func (r *SQLiteUserRepo) Update(ctx context.Context, id string, upd UserUpdate) error {
	if upd.IsEmpty() {
		return fmt.Errorf("no fields to update")
	}

	var sets []string
	var args []any

	if upd.Password != nil {
		sets = append(sets, "password = ?")
		args = append(args, *upd.Password)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *upd.Email)
	}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}

	query := "UPDATE user SET "
	for i, s := range sets {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdatePasswordByEmail は指定emailのユーザーのパスワードハッシュを更新する。
func (r *SQLiteUserRepo) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user SET password = ? WHERE email = ?`,
		passwordHash, email,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %s", email)
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
func (r *SQLiteUserRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*SQLiteUserRepo)(nil)
