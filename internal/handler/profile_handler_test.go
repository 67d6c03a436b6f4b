package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/omebia/rdt/internal/middleware"
	"github.com/omebia/rdt/internal/model"
	"github.com/omebia/rdt/internal/password"
	"github.com/omebia/rdt/internal/repository"
	"github.com/omebia/rdt/internal/security"
)

func patchProfile(t *testing.T, h *ProfileHandler, user *model.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/profile/update", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(middleware.ContextWithUser(req.Context(), user))
	}
	w := httptest.NewRecorder()
	h.Update(w, req)
	return w
}

func profileTestUser(t *testing.T, plain string) *model.User {
	t.Helper()
	hashed, err := password.Hash(plain)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	return &model.User{
		ID:       "user-1",
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: hashed,
		Role:     model.RoleUser,
	}
}

func TestProfileUpdate_EmailAndName(t *testing.T) {
	user := profileTestUser(t, "password123")
	var gotID string
	var gotUpdate repository.UserUpdate
	users := &mockUserRepo{
		updateFunc: func(ctx context.Context, id string, upd repository.UserUpdate) error {
			gotID = id
			gotUpdate = upd
			return nil
		},
		findByFieldFunc: func(ctx context.Context, field, value string) (*model.User, error) {
			return &model.User{ID: user.ID, Email: "new@example.com", Name: "New Name", Role: user.Role}, nil
		},
	}
	h := NewProfileHandler(users, security.NewInputSanitizer())

	w := patchProfile(t, h, user, `{"email":"new@example.com","name":"New Name"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	if gotID != "user-1" {
		t.Errorf("updated ID = %q", gotID)
	}
	if gotUpdate.Email == nil || *gotUpdate.Email != "new@example.com" {
		t.Errorf("update.Email = %v", gotUpdate.Email)
	}
	if gotUpdate.Name == nil || *gotUpdate.Name != "New Name" {
		t.Errorf("update.Name = %v", gotUpdate.Name)
	}
	if gotUpdate.Password != nil {
		t.Error("update.Password should be nil when no password change requested")
	}

	env := parseEnvelope(t, w.Body.String())
	if env.Message == nil || *env.Message != "User updated" {
		t.Errorf("message = %v, want %q", env.Message, "User updated")
	}
	// レスポンスは再読込後のレコードを返す
	data := env.Data.(map[string]any)
	if data["email"] != "new@example.com" || data["name"] != "New Name" {
		t.Errorf("data = %v", data)
	}
}

func TestProfileUpdate_PasswordChange(t *testing.T) {
	user := profileTestUser(t, "password123")
	var gotUpdate repository.UserUpdate
	users := &mockUserRepo{
		updateFunc: func(ctx context.Context, id string, upd repository.UserUpdate) error {
			gotUpdate = upd
			return nil
		},
		findByFieldFunc: func(ctx context.Context, field, value string) (*model.User, error) {
			return user, nil
		},
	}
	h := NewProfileHandler(users, security.NewInputSanitizer())

	w := patchProfile(t, h, user,
		`{"currentPassword":"password123","newPassword":"newpassword456"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	if gotUpdate.Password == nil {
		t.Fatal("update.Password is nil")
	}
	if !password.Verify(*gotUpdate.Password, "newpassword456") {
		t.Error("stored hash does not verify against the new password")
	}
}

func TestProfileUpdate_IncorrectCurrentPassword(t *testing.T) {
	user := profileTestUser(t, "password123")
	updateCalled := false
	users := &mockUserRepo{
		updateFunc: func(ctx context.Context, id string, upd repository.UserUpdate) error {
			updateCalled = true
			return nil
		},
	}
	h := NewProfileHandler(users, security.NewInputSanitizer())

	w := patchProfile(t, h, user,
		`{"currentPassword":"wrongpassword","newPassword":"newpassword456"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	env := parseEnvelope(t, w.Body.String())
	if len(env.Errors) != 1 || env.Errors[0] != "Incorrect current password" {
		t.Errorf("errors = %v, want [%q]", env.Errors, "Incorrect current password")
	}
	if updateCalled {
		t.Error("Update should not be called when the current password is wrong")
	}
}

func TestProfileUpdate_NewPasswordWithoutCurrent(t *testing.T) {
	user := profileTestUser(t, "password123")
	h := NewProfileHandler(&mockUserRepo{}, security.NewInputSanitizer())

	w := patchProfile(t, h, user, `{"newPassword":"newpassword456"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	env := parseEnvelope(t, w.Body.String())
	if len(env.Errors) != 1 || env.Errors[0] != "Current password required" {
		t.Errorf("errors = %v, want [%q]", env.Errors, "Current password required")
	}
}

func TestProfileUpdate_NoFields(t *testing.T) {
	user := profileTestUser(t, "password123")
	h := NewProfileHandler(&mockUserRepo{}, security.NewInputSanitizer())

	w := patchProfile(t, h, user, `{}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	env := parseEnvelope(t, w.Body.String())
	if len(env.Errors) != 1 || env.Errors[0] != "Please fill in fields that you want to update" {
		t.Errorf("errors = %v, want [%q]", env.Errors, "Please fill in fields that you want to update")
	}
}

func TestProfileUpdate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{
			name:      "invalid email",
			body:      `{"email":"not-an-email"}`,
			wantError: "Invalid email format",
		},
		{
			name:      "short name",
			body:      `{"name":"a"}`,
			wantError: "Name must be at least 2 characters",
		},
		{
			name:      "short new password",
			body:      `{"currentPassword":"password123","newPassword":"short"}`,
			wantError: "New password must be at least 8 characters",
		},
		{
			name:      "same password",
			body:      `{"currentPassword":"password123","newPassword":"password123"}`,
			wantError: "New Password must be different from the current password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := profileTestUser(t, "password123")
			h := NewProfileHandler(&mockUserRepo{}, security.NewInputSanitizer())

			w := patchProfile(t, h, user, tt.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body: %s", w.Code, w.Body.String())
			}
			env := parseEnvelope(t, w.Body.String())
			found := false
			for _, e := range env.Errors {
				if e == tt.wantError {
					found = true
				}
			}
			if !found {
				t.Errorf("errors = %v, want to contain %q", env.Errors, tt.wantError)
			}
		})
	}
}

func TestProfileUpdate_NoUserInContext(t *testing.T) {
	h := NewProfileHandler(&mockUserRepo{}, security.NewInputSanitizer())

	w := patchProfile(t, h, nil, `{"name":"New Name"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
