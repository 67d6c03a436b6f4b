package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/omebia/rdt/internal/middleware"
	"github.com/omebia/rdt/internal/model"
	"github.com/omebia/rdt/internal/password"
	"github.com/omebia/rdt/internal/repository"
	"github.com/omebia/rdt/internal/security"
)

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	users     repository.UserRepository
	sanitizer security.InputSanitizerService
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(users repository.UserRepository, sanitizer security.InputSanitizerService) *ProfileHandler {
	return &ProfileHandler{
		users:     users,
		sanitizer: sanitizer,
	}
}

// updateProfileRequest はプロフィール更新リクエストのボディ。全フィールド任意。
type updateProfileRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Update は認証済みユーザーのプロフィールを部分更新する。
// PATCH /api/v1/profile/update（認証ミドルウェア必須）
//
// パスワード変更には現在のパスワードの再入力が必要。検証は保存済みの
// ハッシュに対して行い、一致しなければ何も更新しない。
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError("User not found"))
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewBadRequestError("Invalid request body"))
		return
	}

	req.Email = h.sanitizer.SanitizeString(req.Email)
	req.Name = h.sanitizer.SanitizeString(req.Name)
	req.CurrentPassword = h.sanitizer.SanitizeString(req.CurrentPassword)
	req.NewPassword = h.sanitizer.SanitizeString(req.NewPassword)

	if req.NewPassword != "" && req.CurrentPassword == "" {
		handleServiceError(w, model.NewBadRequestError("Current password required"))
		return
	}
	if errs := validateProfileUpdate(req.Email, req.Name, req.CurrentPassword, req.NewPassword); len(errs) > 0 {
		handleServiceError(w, model.NewValidationError(errs...))
		return
	}

	var update repository.UserUpdate

	if req.NewPassword != "" {
		if !password.Verify(user.Password, req.CurrentPassword) {
			handleServiceError(w, model.NewUnauthorizedError("Incorrect current password"))
			return
		}
		hashed, err := password.Hash(req.NewPassword)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		update.Password = &hashed
	}
	if req.Email != "" {
		update.Email = &req.Email
	}
	if req.Name != "" {
		update.Name = &req.Name
	}

	if update.IsEmpty() {
		handleServiceError(w, model.NewBadRequestError("Please fill in fields that you want to update"))
		return
	}

	if err := h.users.Update(r.Context(), user.ID, update); err != nil {
		handleServiceError(w, err)
		return
	}

	updated, err := h.users.FindByField(r.Context(), "id", user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if updated == nil {
		handleServiceError(w, model.NewUnauthorizedError("User not found"))
		return
	}

	slog.Info("user profile updated", slog.String("user_id", updated.ID))

	writeJSON(w, http.StatusOK, updated.Public(), "User updated")
}
