package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/omebia/rdt/internal/cookie"
	"github.com/omebia/rdt/internal/mailer"
	"github.com/omebia/rdt/internal/metrics"
	"github.com/omebia/rdt/internal/middleware"
	"github.com/omebia/rdt/internal/model"
	"github.com/omebia/rdt/internal/password"
	"github.com/omebia/rdt/internal/repository"
	"github.com/omebia/rdt/internal/security"
	"github.com/omebia/rdt/internal/session"
)

// SessionManagerInterface は認証ハンドラーが必要とするセッション管理インターフェース。
type SessionManagerInterface interface {
	// IssuePair はユーザーレコードからトークンペアを発行する。
	IssuePair(user *model.User) (access, refresh string, err error)
	// Refresh はトークン状態を判定し、必要ならローテーションする。
	Refresh(ctx context.Context, accessToken, refreshToken string) (*session.Result, error)
	// IssueResetToken はパスワードリセット用トークンを発行する。
	IssueResetToken(email string) (string, error)
	// VerifyResetToken はリセットトークンを検証し対象emailを返す。
	VerifyResetToken(ctx context.Context, tokenString string) (string, error)
	// ConsumeResetToken は使用済みリセットトークンを失効させる。
	ConsumeResetToken(ctx context.Context, tokenString string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	FrontendURL string
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	users     repository.UserRepository
	sessions  SessionManagerInterface
	sanitizer security.InputSanitizerService
	mailer    mailer.Mailer
	metrics   metrics.MetricsCollector
	cookies   cookie.Writer
	config    AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(
	users repository.UserRepository,
	sessions SessionManagerInterface,
	sanitizer security.InputSanitizerService,
	m mailer.Mailer,
	collector metrics.MetricsCollector,
	cookies cookie.Writer,
	config AuthHandlerConfig,
) *AuthHandler {
	return &AuthHandler{
		users:     users,
		sessions:  sessions,
		sanitizer: sanitizer,
		mailer:    m,
		metrics:   collector,
		cookies:   cookies,
		config:    config,
	}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sendResetEmailRequest はリセットメール送信リクエストのボディ。
type sendResetEmailRequest struct {
	Email string `json:"email"`
}

// resetPasswordRequest はパスワードリセット実行リクエストのボディ。
type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// userResponse はログイン・リフレッシュのレスポンスデータ。
type userResponse struct {
	User *model.PublicUser `json:"user"`
}

// Register はユーザー登録を処理する。
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewBadRequestError("Invalid request body"))
		return
	}

	req.Email = h.sanitizer.SanitizeString(req.Email)
	req.Password = h.sanitizer.SanitizeString(req.Password)
	req.ConfirmPassword = h.sanitizer.SanitizeString(req.ConfirmPassword)

	if errs := validateRegister(req.Email, req.Password, req.ConfirmPassword); len(errs) > 0 {
		handleServiceError(w, model.NewValidationError(errs...))
		return
	}

	existing, err := h.users.FindByField(r.Context(), "email", req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing != nil {
		handleServiceError(w, model.NewUnauthorizedError("User already exists"))
		return
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 表示名は登録時には空で、プロフィール更新で設定する
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     req.Email,
		Password:  hashed,
		Role:      model.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordRegistration()
	slog.Info("user registered", slog.String("user_id", user.ID))

	writeJSON(w, http.StatusCreated, nil, "User registered")
}

// Login は資格情報を検証してトークンペアを発行する。
// POST /api/v1/auth/login
//
// ユーザー不在とパスワード不一致はどちらも同じレスポンスを返す。
// 登録済みemailの列挙を防ぐため区別しない。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewBadRequestError("Invalid request body"))
		return
	}

	req.Email = h.sanitizer.SanitizeString(req.Email)
	req.Password = h.sanitizer.SanitizeString(req.Password)

	if errs := validateLogin(req.Email, req.Password); len(errs) > 0 {
		handleServiceError(w, model.NewValidationError(errs...))
		return
	}

	user, err := h.users.FindByField(r.Context(), "email", req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil || !password.Verify(user.Password, req.Password) {
		h.metrics.RecordLoginFailure()
		handleServiceError(w, model.NewUnauthorizedError("Incorrect credentials"))
		return
	}

	access, refresh, err := h.sessions.IssuePair(user)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.cookies.SetAuthPair(w, access, refresh, h.config.AccessTTL, h.config.RefreshTTL)

	h.metrics.RecordLoginSuccess()
	slog.Info("user logged in", slog.String("user_id", user.ID))

	writeJSON(w, http.StatusOK, userResponse{User: user.Public()}, "User logged in")
}

// AuthCheck は認証済みユーザーの情報を返す。
// GET /api/v1/auth/auth-check（認証ミドルウェア必須）
func (h *AuthHandler) AuthCheck(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError("No access token found"))
		return
	}

	writeJSON(w, http.StatusOK, user.Public(), "")
}

// RefreshTokens はリフレッシュトークンでトークンペアをローテーションする。
// GET /api/v1/auth/refresh-tokens
//
// ローテーションを行う唯一のエンドポイント。アクセストークンがまだ
// 有効な場合は発行せず現在の認証状態を返す。
func (h *AuthHandler) RefreshTokens(w http.ResponseWriter, r *http.Request) {
	var accessToken, refreshToken string
	if c, err := r.Cookie(cookie.AccessTokenName); err == nil {
		accessToken = c.Value
	}
	if c, err := r.Cookie(cookie.RefreshTokenName); err == nil {
		refreshToken = c.Value
	}

	result, err := h.sessions.Refresh(r.Context(), accessToken, refreshToken)
	if err != nil {
		h.cookies.ClearAuthPair(w)
		handleServiceError(w, err)
		return
	}

	if result.Rotated {
		h.cookies.SetAuthPair(w, result.AccessToken, result.RefreshToken, h.config.AccessTTL, h.config.RefreshTTL)
		h.metrics.RecordTokenRotation()
	}

	writeJSON(w, http.StatusOK, userResponse{User: result.User.Public()}, "")
}

// Logout は認証Cookieを削除する。
// GET /api/v1/auth/logout
//
// トークンの有無にかかわらず常に200を返す。冪等。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearAuthPair(w)
	slog.Info("user logged out")
	writeJSON(w, http.StatusOK, nil, "Logged out")
}

// Delete は認証済みユーザー自身のアカウントを削除する。
// DELETE /api/v1/auth/delete（認証ミドルウェア必須）
func (h *AuthHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError("User not found"))
		return
	}

	if err := h.users.DeleteByID(r.Context(), user.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.cookies.ClearAuthPair(w)
	slog.Info("user deleted", slog.String("user_id", user.ID))

	writeJSON(w, http.StatusOK, nil, "User deleted")
}

// SendResetEmail はパスワードリセットメールを送信する。
// POST /api/v1/auth/send-reset-email
//
// emailが未登録でも200を返す。登録済みemailの列挙を防ぐため、
// レスポンスから送信の有無は判別できない。
func (h *AuthHandler) SendResetEmail(w http.ResponseWriter, r *http.Request) {
	var req sendResetEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewBadRequestError("Invalid request body"))
		return
	}

	req.Email = h.sanitizer.SanitizeString(req.Email)
	if !validEmail(req.Email) {
		handleServiceError(w, model.NewValidationError("Invalid email format"))
		return
	}

	user, err := h.users.FindByField(r.Context(), "email", req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if user != nil {
		resetToken, err := h.sessions.IssueResetToken(req.Email)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		link := fmt.Sprintf("%s/reset-password?token=%s", h.config.FrontendURL, resetToken)
		text := fmt.Sprintf("Reset your password here: %s", link)
		html := fmt.Sprintf(`<p>Reset your password <a href=%q>here</a></p>`, link)

		if err := h.mailer.Send(r.Context(), req.Email, "RDT Reset Password Email", text, html); err != nil {
			slog.Error("failed to send reset email",
				slog.String("error", err.Error()),
			)
			handleServiceError(w, model.NewDependencyError())
			return
		}

		slog.Info("reset email sent", slog.String("user_id", user.ID))
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent"}, "")
}

// ResetPassword はリセットトークンを検証して新しいパスワードを設定する。
// POST /api/v1/auth/reset-password
//
// 使用済みトークンは失効リストに入るため、同じトークンで二度は更新できない。
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewBadRequestError("Invalid request body"))
		return
	}

	req.Token = h.sanitizer.SanitizeString(req.Token)
	req.Password = h.sanitizer.SanitizeString(req.Password)

	if errs := validateResetPassword(req.Token, req.Password); len(errs) > 0 {
		handleServiceError(w, model.NewValidationError(errs...))
		return
	}

	email, err := h.sessions.VerifyResetToken(r.Context(), req.Token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.users.FindByField(r.Context(), "email", email)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		handleServiceError(w, model.NewUnauthorizedError("User not found"))
		return
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if err := h.users.UpdatePasswordByEmail(r.Context(), email, hashed); err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.sessions.ConsumeResetToken(r.Context(), req.Token); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("user set new password", slog.String("user_id", user.ID))

	writeJSON(w, http.StatusOK, nil, "New password created")
}
