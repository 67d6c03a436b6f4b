// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
// トークンのクレームに載せて各リクエストへ伝搬する。
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ValidRole はロール文字列が定義済みロールかどうかを返す。
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User はサービス利用ユーザーを表す。
// Passwordにはargon2idのハッシュ文字列のみを保持する。平文は永続化しない。
type User struct {
	ID        string
	Email     string
	Name      string
	Password  string
	Role      Role
	Image     []byte
	CreatedAt time.Time
}

// PublicUser はAPIレスポンスに含めてよいユーザー情報のみを持つビュー。
// パスワードハッシュは含めない。
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Image []byte `json:"image,omitempty"`
}

// Public はレスポンス用の安全なビューを生成する。
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
		Image: u.Image,
	}
}

// BlacklistEntry は失効済みトークンの記録を表す。
// ローテーションで消費されたリフレッシュトークンと、
// 使用済みのパスワードリセットトークンを記録する。
// 保持期間（7日）を過ぎたエントリはクリーンアップジョブが削除する。
type BlacklistEntry struct {
	ID        string
	Token     string
	CreatedAt time.Time
}
