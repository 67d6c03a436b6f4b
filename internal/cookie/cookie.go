// Package cookie は認証トークン用のHTTP Only Cookieの設定・削除を提供する。
package cookie

import (
	"net/http"
	"time"
)

const (
	// AccessTokenName はアクセストークンCookieの名前。
	AccessTokenName = "access_token"
	// RefreshTokenName はリフレッシュトークンCookieの名前。
	RefreshTokenName = "refresh_token"

	// accessTokenPath はアクセストークンCookieのパス。全ルートに送信される。
	accessTokenPath = "/"
	// refreshTokenPath はリフレッシュトークンCookieのパス。
	// ローテーションエンドポイントにのみ送信されるようスコープを絞る。
	refreshTokenPath = "/api/v1/auth/refresh-tokens"
)

// Writer は認証Cookieの書き込み設定を保持する。
// Secureは本番環境でのみtrueにする（ローカル開発はHTTPのため）。
type Writer struct {
	Secure bool
}

// SetAuthPair はアクセス+リフレッシュトークンのCookieペアを設定する。
// 両方ともHTTP Only・SameSite=Strictで、JavaScriptからは読み取れない。
func (cw Writer) SetAuthPair(w http.ResponseWriter, access, refresh string, accessTTL, refreshTTL time.Duration) {
	http.SetCookie(w, cw.newCookie(AccessTokenName, access, accessTokenPath, int(accessTTL.Seconds())))
	http.SetCookie(w, cw.newCookie(RefreshTokenName, refresh, refreshTokenPath, int(refreshTTL.Seconds())))
}

// ClearAuthPair は両方の認証Cookieを削除する。
// 設定時と同じパスを指定しないとブラウザ側で削除されない。
func (cw Writer) ClearAuthPair(w http.ResponseWriter) {
	http.SetCookie(w, cw.newCookie(AccessTokenName, "", accessTokenPath, -1))
	http.SetCookie(w, cw.newCookie(RefreshTokenName, "", refreshTokenPath, -1))
}

func (cw Writer) newCookie(name, value, path string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cw.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
