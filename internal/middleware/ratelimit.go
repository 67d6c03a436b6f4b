package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/omebia/rdt/internal/cookie"
	"github.com/omebia/rdt/internal/model"
	"github.com/omebia/rdt/internal/token"
)

// RateLimiterConfig は固定ウィンドウ方式のレート制限設定を保持する。
type RateLimiterConfig struct {
	Max             int           // 1ウィンドウあたりの許可リクエスト数
	Window          time.Duration // ウィンドウ長
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 60秒あたり10リクエスト。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:             10,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// clientWindow はクライアントごとの現在ウィンドウの状態を保持する。
// blockedは一度上限を超えたらウィンドウが切り替わるまで維持される。
type clientWindow struct {
	count       int
	windowStart time.Time
	blocked     bool
}

// RateLimiter はクライアントごとの固定ウィンドウレート制限を管理する。
// キーは検証済みアクセストークンのユーザーID、未認証の場合はクライアントIP。
type RateLimiter struct {
	config RateLimiterConfig
	codec  *token.Codec

	mu      sync.Mutex
	clients map[string]*clientWindow

	// OnReject は429を返すたびに呼ばれる。メトリクス連携用で、nilなら何もしない。
	OnReject func()

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig, codec *token.Codec) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		codec:   codec,
		clients: make(map[string]*clientWindow),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware はレート制限ミドルウェアを返す。
// 上限を超えたクライアントはウィンドウが切り替わるまで429を返され続ける。
// ウィンドウ途中でリクエストを止めても解除されない。
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := rl.clientID(r)

			if !rl.allow(clientID) {
				slog.Warn("rate limit hit",
					slog.String("client_id", clientID),
					slog.String("path", r.URL.Path),
				)
				if rl.OnReject != nil {
					rl.OnReject()
				}
				WriteErrorResponse(w, model.NewRateLimitError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientCount は現在管理されているクライアントエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientID はレート制限のキーを決定する。
// 検証済みアクセストークンがあればそのユーザーID、なければクライアントIP。
// 未検証のトークンのクレームをキーに使うと偽装したIDで他人の枠を
// 消費できてしまうため、必ず検証を通す。
func (rl *RateLimiter) clientID(r *http.Request) string {
	if c, err := r.Cookie(cookie.AccessTokenName); err == nil && c.Value != "" {
		if claims := rl.codec.ParseAndVerify(c.Value); claims != nil && claims.ID != "" {
			return claims.ID
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}

// allow は現在ウィンドウ内でリクエストを許可するかを判定する。
func (rl *RateLimiter) allow(clientID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	cw, exists := rl.clients[clientID]
	if !exists || now.Sub(cw.windowStart) > rl.config.Window {
		rl.clients[clientID] = &clientWindow{
			count:       1,
			windowStart: now,
		}
		return true
	}

	cw.count++
	if cw.count > rl.config.Max {
		cw.blocked = true
	}
	return !cw.blocked
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup はウィンドウが終了してから十分時間が経ったエントリを削除する。
func (rl *RateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for clientID, cw := range rl.clients {
		if now.Sub(cw.windowStart) > rl.config.Window*2 {
			delete(rl.clients, clientID)
		}
	}
}
