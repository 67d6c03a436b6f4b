package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/omebia/rdt/internal/cookie"
	"github.com/omebia/rdt/internal/token"
)

func newTestRateLimiter(t *testing.T, config RateLimiterConfig) (*RateLimiter, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec("ratelimit-test-secret")
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	rl := NewRateLimiter(config, codec)
	t.Cleanup(rl.Stop)
	return rl, codec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	rl, _ := newTestRateLimiter(t, RateLimiterConfig{
		Max:             3,
		Window:          time.Minute,
		CleanupInterval: time.Minute,
	})
	handler := rl.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	// 上限超過
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "203.0.113.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	env := decodeEnvelope(t, w.Body.String())
	if env.Message == nil || *env.Message != "Ratelimit reached" {
		t.Errorf("message = %v, want %q", env.Message, "Ratelimit reached")
	}
	if len(env.Errors) != 1 || env.Errors[0] != "Too many requests. Please try again later." {
		t.Errorf("errors = %v", env.Errors)
	}
}

func TestRateLimiter_BlockedUntilWindowRolls(t *testing.T) {
	rl, _ := newTestRateLimiter(t, RateLimiterConfig{
		Max:             2,
		Window:          100 * time.Millisecond,
		CleanupInterval: time.Minute,
	})
	handler := rl.Middleware()(okHandler())

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	send()
	send()
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", code)
	}

	// ブロックはウィンドウ内で解除されない
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 while still blocked", code)
	}

	// ウィンドウが切り替わるとカウントがリセットされる
	time.Sleep(150 * time.Millisecond)
	if code := send(); code != http.StatusOK {
		t.Fatalf("status = %d, want 200 after window rolls", code)
	}
}

func TestRateLimiter_KeyedByVerifiedUserID(t *testing.T) {
	rl, codec := newTestRateLimiter(t, RateLimiterConfig{
		Max:             1,
		Window:          time.Minute,
		CleanupInterval: time.Minute,
	})
	handler := rl.Middleware()(okHandler())

	sendAs := func(userID string) int {
		tok, err := codec.Issue(token.Claims{ID: userID}, 15*time.Minute)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/auth-check", nil)
		req.RemoteAddr = "203.0.113.1:12345"
		req.AddCookie(&http.Cookie{Name: cookie.AccessTokenName, Value: tok})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	// 同一IPでもユーザーが異なれば枠は独立
	if code := sendAs("user-a"); code != http.StatusOK {
		t.Fatalf("user-a status = %d, want 200", code)
	}
	if code := sendAs("user-b"); code != http.StatusOK {
		t.Fatalf("user-b status = %d, want 200", code)
	}
	if code := sendAs("user-a"); code != http.StatusTooManyRequests {
		t.Fatalf("user-a second status = %d, want 429", code)
	}
}

func TestRateLimiter_UnverifiedTokenFallsBackToIP(t *testing.T) {
	rl, _ := newTestRateLimiter(t, RateLimiterConfig{
		Max:             1,
		Window:          time.Minute,
		CleanupInterval: time.Minute,
	})
	handler := rl.Middleware()(okHandler())

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = addr
		// 署名が検証できないトークンはキーとして採用されない
		req.AddCookie(&http.Cookie{Name: cookie.AccessTokenName, Value: "forged.token.value"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("203.0.113.1:1111"); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if code := send("203.0.113.1:2222"); code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 for same IP", code)
	}
	if code := send("203.0.113.2:3333"); code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for different IP", code)
	}
}

func TestRateLimiter_OnRejectHook(t *testing.T) {
	rl, _ := newTestRateLimiter(t, RateLimiterConfig{
		Max:             1,
		Window:          time.Minute,
		CleanupInterval: time.Minute,
	})

	rejected := 0
	rl.OnReject = func() { rejected++ }

	handler := rl.Middleware()(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	if rejected != 2 {
		t.Errorf("rejected = %d, want 2", rejected)
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl, _ := newTestRateLimiter(t, RateLimiterConfig{
		Max:             10,
		Window:          10 * time.Millisecond,
		CleanupInterval: time.Hour, // テストからcleanupを直接呼ぶ
	})
	handler := rl.Middleware()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "203.0.113.1:12345"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := rl.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d, want 1", got)
	}

	time.Sleep(30 * time.Millisecond)
	rl.cleanup()

	if got := rl.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0 after cleanup", got)
	}
}
