package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not found", name)
	return nil
}

func TestSetAuthPair(t *testing.T) {
	w := httptest.NewRecorder()
	cw := Writer{Secure: true}

	cw.SetAuthPair(w, "access-value", "refresh-value", 15*time.Minute, 120*time.Hour)

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("len(cookies) = %d, want 2", len(cookies))
	}

	access := findCookie(t, cookies, AccessTokenName)
	if access.Value != "access-value" {
		t.Errorf("access value = %q, want %q", access.Value, "access-value")
	}
	if access.Path != "/" {
		t.Errorf("access path = %q, want %q", access.Path, "/")
	}
	if access.MaxAge != 900 {
		t.Errorf("access MaxAge = %d, want 900", access.MaxAge)
	}

	refresh := findCookie(t, cookies, RefreshTokenName)
	if refresh.Path != "/api/v1/auth/refresh-tokens" {
		t.Errorf("refresh path = %q, want the rotation endpoint path", refresh.Path)
	}
	if refresh.MaxAge != 432000 {
		t.Errorf("refresh MaxAge = %d, want 432000", refresh.MaxAge)
	}

	for _, c := range cookies {
		if !c.HttpOnly {
			t.Errorf("cookie %q should be HttpOnly", c.Name)
		}
		if !c.Secure {
			t.Errorf("cookie %q should be Secure", c.Name)
		}
		if c.SameSite != http.SameSiteStrictMode {
			t.Errorf("cookie %q SameSite = %v, want Strict", c.Name, c.SameSite)
		}
	}
}

func TestSetAuthPair_InsecureForDevelopment(t *testing.T) {
	w := httptest.NewRecorder()
	cw := Writer{Secure: false}

	cw.SetAuthPair(w, "a", "r", time.Minute, time.Hour)

	for _, c := range w.Result().Cookies() {
		if c.Secure {
			t.Errorf("cookie %q should not be Secure in development", c.Name)
		}
	}
}

func TestClearAuthPair(t *testing.T) {
	w := httptest.NewRecorder()
	cw := Writer{}

	cw.ClearAuthPair(w)

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("len(cookies) = %d, want 2", len(cookies))
	}
	for _, c := range cookies {
		if c.Value != "" {
			t.Errorf("cookie %q value = %q, want empty", c.Name, c.Value)
		}
		if c.MaxAge >= 0 {
			t.Errorf("cookie %q MaxAge = %d, want negative for deletion", c.Name, c.MaxAge)
		}
	}

	// 削除時のパスは設定時と一致する必要がある
	refresh := findCookie(t, cookies, RefreshTokenName)
	if refresh.Path != "/api/v1/auth/refresh-tokens" {
		t.Errorf("refresh path = %q, want the rotation endpoint path", refresh.Path)
	}
}
