// Package token はセッショントークン（JWT）の発行と検証を提供する。
// HMAC-SHA-512の対称鍵署名を使用し、鍵はプロセス起動時に1回だけ読み込む。
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/omebia/rdt/internal/model"
)

// Claims はトークンに埋め込むセッションクレームを表す。
// アクセストークン・リフレッシュトークンはid/email/name/roleを持ち、
// パスワードリセットトークンはemailのみを持つ。
// 発行後は不変。更新時は新しいペアを発行する。
type Claims struct {
	ID    string     `json:"id,omitempty"`
	Email string     `json:"email,omitempty"`
	Name  string     `json:"name,omitempty"`
	Role  model.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Codec はトークンの署名と検証を行う。
type Codec struct {
	key []byte
}

// NewCodec は署名鍵からCodecを生成する。
// 鍵が空の場合はエラーを返す。起動時に呼び、失敗したら即座にプロセスを
// 終了させること。
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is empty")
	}
	return &Codec{key: []byte(secret)}, nil
}

// Issue はクレームに有効期限を付与して署名済みトークン文字列を返す。
// ttlが0の場合は既に期限切れのトークンを発行する（期限切れ経路の
// テスト専用の特例）。
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()

	exp := now.Add(ttl)
	if ttl == 0 {
		exp = now.Add(-10 * time.Second)
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := tok.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseAndVerify はトークンの署名と有効期限を検証し、クレームを返す。
// 署名不正・構造不正・期限切れのいずれもnilを返す。失敗理由は
// 呼び出し側から区別できない（オラクル化の防止）。
func (c *Codec) ParseAndVerify(tokenString string) *Claims {
	claims := &Claims{}

	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil || !tok.Valid {
		return nil
	}

	// 署名検証が期限を検査済みでも、多層防御として自前で再確認する
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return nil
	}

	return claims
}
