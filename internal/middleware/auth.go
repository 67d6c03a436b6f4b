package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/omebia/rdt/internal/cookie"
	"github.com/omebia/rdt/internal/model"
	"github.com/omebia/rdt/internal/token"
)

// UserFinder はユーザーの検索に必要なインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByField(ctx context.Context, field, value string) (*model.User, error)
}

// BlacklistChecker はトークンの失効確認に必要なインターフェース。
// repository.BlacklistRepositoryの部分集合として定義する。
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, tokenString string) (bool, error)
}

// NewAuthMiddleware はHTTP Only Cookieのアクセストークンを検証するミドルウェアを返す。
// 検証後にユーザーレコードを再取得し、現在値をリクエストコンテキストに注入する。
// トークンのクレームだけを信用して認可しない（削除済みユーザーの排除のため）。
//
// このミドルウェアはトークンのローテーションを一切行わない。
// アクセストークンが期限切れならクライアントはリフレッシュエンドポイントを
// 呼び直す必要がある。
func NewAuthMiddleware(
	users UserFinder,
	blacklist BlacklistChecker,
	codec *token.Codec,
	cookies cookie.Writer,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookie.AccessTokenName)
			if err != nil || c.Value == "" {
				cookies.ClearAuthPair(w)
				WriteErrorResponse(w, model.NewUnauthorizedError("No access token found"))
				return
			}

			claims := codec.ParseAndVerify(c.Value)
			if claims == nil {
				cookies.ClearAuthPair(w)
				WriteErrorResponse(w, model.NewUnauthorizedError("Invalid tokens"))
				return
			}

			blacklisted, err := blacklist.IsBlacklisted(r.Context(), c.Value)
			if err != nil {
				slog.Error("failed to check token blacklist",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if blacklisted {
				cookies.ClearAuthPair(w)
				WriteErrorResponse(w, model.NewUnauthorizedError("Invalid tokens"))
				return
			}

			// クレームではなく現在のユーザーレコードをコンテキストに載せる
			user, err := users.FindByField(r.Context(), "id", claims.ID)
			if err != nil {
				slog.Error("failed to find user",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				cookies.ClearAuthPair(w)
				WriteErrorResponse(w, model.NewUnauthorizedError("User not found"))
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
