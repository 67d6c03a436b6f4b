package handler

import "regexp"

// emailPattern はメールアドレスの形式検査。厳密なRFC準拠ではなく、
// 明らかな誤入力を弾くための検査。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validateLogin はログインリクエストの入力を検証する。
func validateLogin(email, password string) []string {
	var errs []string
	if !validEmail(email) {
		errs = append(errs, "Invalid email format")
	}
	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters")
	}
	return errs
}

// validateRegister は登録リクエストの入力を検証する。
func validateRegister(email, password, confirmPassword string) []string {
	errs := validateLogin(email, password)
	if password != confirmPassword {
		errs = append(errs, "Passwords do not match")
	}
	return errs
}

// validateProfileUpdate はプロフィール更新リクエストの入力を検証する。
// 全フィールド任意だが、指定されたフィールドは個別の規則を満たす必要がある。
// パスワード変更はcurrentPasswordとnewPasswordの両方が揃っていること。
func validateProfileUpdate(email, name, currentPassword, newPassword string) []string {
	var errs []string
	if email != "" && !validEmail(email) {
		errs = append(errs, "Invalid email format")
	}
	if name != "" && len(name) < 2 {
		errs = append(errs, "Name must be at least 2 characters")
	}
	if newPassword != "" && len(newPassword) < 8 {
		errs = append(errs, "New password must be at least 8 characters")
	}
	if (newPassword != "" && currentPassword == "") || (newPassword == "" && currentPassword != "") {
		errs = append(errs, "Both Current Password and New Password must be provided together")
	}
	if newPassword != "" && currentPassword != "" && newPassword == currentPassword {
		errs = append(errs, "New Password must be different from the current password")
	}
	return errs
}

// validateResetPassword はパスワードリセット実行リクエストの入力を検証する。
func validateResetPassword(token, password string) []string {
	var errs []string
	if token == "" {
		errs = append(errs, "Token is required")
	}
	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters")
	}
	return errs
}
