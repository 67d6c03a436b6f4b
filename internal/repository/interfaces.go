// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/omebia/rdt/internal/model"
)

// UserUpdate はユーザー行の部分更新を表す。
// nilのフィールドは変更しない。更新は単一のUPDATE文で行う。
type UserUpdate struct {
	Email    *string
	Name     *string
	Password *string
}

// IsEmpty は更新対象のフィールドが1つもないかどうかを返す。
func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.Name == nil && u.Password == nil
}

// UserRepository はユーザーデータの永続化インターフェース。
// ユーザー行を変更できるのはこのインターフェースのみ。
type UserRepository interface {
	// FindByField は指定フィールドでユーザーを検索する。見つからない場合はnilを返す。
	// fieldは許可リスト（id, email）で検証され、リスト外はエラーになる。
	FindByField(ctx context.Context, field, value string) (*model.User, error)

	// Create はユーザーを作成する。emailのUNIQUE制約違反はエラーになる。
	Create(ctx context.Context, user *model.User) error

	// Update は指定IDのユーザーを部分更新する。単一のUPDATE文で実行する。
	Update(ctx context.Context, id string, upd UserUpdate) error

	// UpdatePasswordByEmail は指定emailのユーザーのパスワードハッシュを更新する。
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error

	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// BlacklistRepository は失効済みトークンの永続化インターフェース。
type BlacklistRepository interface {
	// Record はトークンを失効済みとして記録する。
	Record(ctx context.Context, tokenString string) error

	// IsBlacklisted はトークンが失効済みかどうかを返す。
	IsBlacklisted(ctx context.Context, tokenString string) (bool, error)

	// DeleteOlderThan は指定時刻より古いエントリを削除し、削除件数を返す。
	// その年齢のトークンは期限切れで再生できないため、削除は安全。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
