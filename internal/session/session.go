// Package session はアクセス+リフレッシュトークンペアの発行と
// ローテーションのライフサイクルを管理する。
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/omebia/rdt/internal/model"
	"github.com/omebia/rdt/internal/repository"
	"github.com/omebia/rdt/internal/token"
)

// Config はセッションマネージャのトークン有効期間設定。
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// Result はリフレッシュ判定の結果を表す。
// Rotatedがtrueの場合、新しいトークンペアをCookieに設定し直す必要がある。
type Result struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
	Rotated      bool
}

// Manager はリクエスト上のトークン状態から認証可否とローテーション要否を決定する。
type Manager struct {
	users     repository.UserRepository
	blacklist repository.BlacklistRepository
	codec     *token.Codec
	config    Config
}

// NewManager はManagerを生成する。
func NewManager(
	users repository.UserRepository,
	blacklist repository.BlacklistRepository,
	codec *token.Codec,
	config Config,
) *Manager {
	return &Manager{
		users:     users,
		blacklist: blacklist,
		codec:     codec,
		config:    config,
	}
}

// IssuePair はユーザーレコードからアクセス+リフレッシュトークンペアを発行する。
// クレームは常に渡されたユーザーレコードの現在値から組み立てる。
func (m *Manager) IssuePair(user *model.User) (access, refresh string, err error) {
	claims := token.Claims{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}

	refresh, err = m.codec.Issue(claims, m.config.RefreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue refresh token: %w", err)
	}
	access, err = m.codec.Issue(claims, m.config.AccessTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return access, refresh, nil
}

// Refresh はリクエストのトークン状態を判定する。
//
// 状態遷移:
//   - リフレッシュトークンなし → 401
//   - リフレッシュトークン検証失敗（署名不正・期限切れ） → 401
//   - 検証は通るが失効済み（ローテーションで消費済み） → 401
//   - リフレッシュ有効・アクセスなし → ユーザー再取得のうえ新ペアを発行し、
//     消費したリフレッシュトークンを失効させる（1回限りの使用）
//   - 両方有効 → 発行なしで認証済みとして継続
//
// 新ペアのクレームは古いクレームの転記ではなく、ユーザーレコードの
// 現在値から作り直す。ロール変更は次のローテーションで反映される。
func (m *Manager) Refresh(ctx context.Context, accessToken, refreshToken string) (*Result, error) {
	if refreshToken == "" {
		return nil, model.NewUnauthorizedError("No refresh token found")
	}

	// 署名と期限を先に検証し、その後に失効リストを照合する。
	// クレームを信用するのはどちらも通ってから。
	claims := m.codec.ParseAndVerify(refreshToken)
	if claims == nil {
		return nil, model.NewUnauthorizedError("Invalid tokens")
	}

	blacklisted, err := m.blacklist.IsBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		slog.Warn("blacklisted refresh token presented",
			slog.String("user_id", claims.ID),
		)
		return nil, model.NewUnauthorizedError("Invalid tokens")
	}

	user, err := m.users.FindByField(ctx, "id", claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError("User not found")
	}

	// アクセストークンが有効なうちは発行しない
	if accessToken != "" && m.codec.ParseAndVerify(accessToken) != nil {
		return &Result{User: user}, nil
	}

	newAccess, newRefresh, err := m.IssuePair(user)
	if err != nil {
		return nil, err
	}

	// 消費したリフレッシュトークンはローテーション境界をまたいで
	// 再利用できないよう必ず失効させる
	if err := m.blacklist.Record(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to blacklist consumed refresh token: %w", err)
	}

	slog.Info("token pair rotated", slog.String("user_id", user.ID))

	return &Result{
		User:         user,
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
		Rotated:      true,
	}, nil
}

// IssueResetToken はパスワードリセット用の短命トークンを発行する。
// クレームはemailのみで、id/roleは含めない。
func (m *Manager) IssueResetToken(email string) (string, error) {
	tok, err := m.codec.Issue(token.Claims{Email: email}, m.config.ResetTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue reset token: %w", err)
	}
	return tok, nil
}

// VerifyResetToken はリセットトークンを検証し、対象のemailを返す。
// 署名・期限の検証後に失効リストを照合する。
// アクセス・リフレッシュトークンはidクレームを持つため、リセットトークン
// として流用できない。
func (m *Manager) VerifyResetToken(ctx context.Context, tokenString string) (string, error) {
	claims := m.codec.ParseAndVerify(tokenString)
	if claims == nil || claims.Email == "" || claims.ID != "" {
		return "", model.NewUnauthorizedError("Reset token expired")
	}

	blacklisted, err := m.blacklist.IsBlacklisted(ctx, tokenString)
	if err != nil {
		return "", fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		return "", model.NewUnauthorizedError("Reset token expired")
	}

	return claims.Email, nil
}

// ConsumeResetToken は使用済みのリセットトークンを失効させる。
// パスワード更新が成功した直後に呼ぶこと。
func (m *Manager) ConsumeResetToken(ctx context.Context, tokenString string) error {
	if err := m.blacklist.Record(ctx, tokenString); err != nil {
		return fmt.Errorf("failed to blacklist reset token: %w", err)
	}
	return nil
}
