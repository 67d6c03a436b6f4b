package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/omebia/rdt/internal/cookie"
	"github.com/omebia/rdt/internal/mailer"
	"github.com/omebia/rdt/internal/metrics"
	"github.com/omebia/rdt/internal/middleware"
	"github.com/omebia/rdt/internal/repository"
	"github.com/omebia/rdt/internal/security"
	"github.com/omebia/rdt/internal/token"
)

// Pinger はヘルスチェックに必要なデータベース接続確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ストレージ
	Users     repository.UserRepository
	Blacklist repository.BlacklistRepository
	DB        Pinger

	// トークンとセッション
	Sessions SessionManagerInterface
	Codec    *token.Codec

	// 周辺サービス
	Sanitizer security.InputSanitizerService
	Mailer    mailer.Mailer
	Metrics   metrics.MetricsCollector
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger

	// ミドルウェア依存
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string

	// Cookieとトークン有効期間
	Cookies    cookie.Writer
	AuthConfig AuthHandlerConfig
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → StatusMetrics
//
// レート制限は/logout以外の認証ルートに適用する。ログアウトはCookie削除
// だけの冪等な操作で、制限中のユーザーでも実行できる必要がある。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewStatusMetricsMiddleware(deps.Metrics.RecordHTTPStatus))

	authHandler := NewAuthHandler(
		deps.Users,
		deps.Sessions,
		deps.Sanitizer,
		deps.Mailer,
		deps.Metrics,
		deps.Cookies,
		deps.AuthConfig,
	)
	profileHandler := NewProfileHandler(deps.Users, deps.Sanitizer)

	limited := deps.RateLimiter.Middleware()
	guarded := middleware.NewAuthMiddleware(deps.Users, deps.Blacklist, deps.Codec, deps.Cookies)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limited).Post("/register", authHandler.Register)
			r.With(limited).Post("/login", authHandler.Login)
			r.With(limited).Post("/reset-password", authHandler.ResetPassword)
			r.With(limited).Post("/send-reset-email", authHandler.SendResetEmail)

			r.With(limited, guarded).Get("/auth-check", authHandler.AuthCheck)
			r.With(limited).Get("/refresh-tokens", authHandler.RefreshTokens)

			r.With(limited, guarded).Delete("/delete", authHandler.Delete)
			r.Get("/logout", authHandler.Logout)
		})

		r.Route("/profile", func(r chi.Router) {
			r.With(limited, guarded).Patch("/update", profileHandler.Update)
		})
	})

	// 運用エンドポイント（レート制限・認証の対象外）
	r.Get("/health", newHealthHandler(deps.DB))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	return r
}

// newHealthHandler はデータベース接続を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			slog.Error("healthcheck failed",
				slog.String("error", err.Error()),
			)
			middleware.WriteInternalServerError(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "")
	}
}
