// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
	"strings"
)

// HTTPError はハンドラー層でHTTPステータスに変換される業務エラー。
// Messageはレスポンスのmessageフィールド、Errorsはフィールド単位の
// エラーメッセージとしてそのままクライアントへ返る。
// 内部詳細を含めてはならない（詳細はログ側にのみ残す）。
type HTTPError struct {
	Status  int
	Message string
	Errors  []string
}

// Error はerrorインターフェースを実装する。
func (e *HTTPError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("[%d] %s", e.Status, e.Message)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Status, e.Message, strings.Join(e.Errors, ", "))
}

// NewValidationError は入力検証エラー（400）を生成する。
// フィールド単位のメッセージを列挙して返す。
func NewValidationError(errs ...string) *HTTPError {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Message: "Validation error",
		Errors:  errs,
	}
}

// NewBadRequestError はその他の400エラーを生成する。
func NewBadRequestError(errs ...string) *HTTPError {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Message: "Bad Request",
		Errors:  errs,
	}
}

// NewUnauthorizedError は認証エラー（401）を生成する。
// messageフィールドは常に "Unauthorized" で、理由はerrs側に入る。
// ログインの失敗理由など列挙攻撃につながる区別を書かないこと。
func NewUnauthorizedError(errs ...string) *HTTPError {
	return &HTTPError{
		Status:  http.StatusUnauthorized,
		Message: "Unauthorized",
		Errors:  errs,
	}
}

// NewRateLimitError はレート制限超過エラー（429）を生成する。
func NewRateLimitError() *HTTPError {
	return &HTTPError{
		Status:  http.StatusTooManyRequests,
		Message: "Ratelimit reached",
		Errors:  []string{"Too many requests. Please try again later."},
	}
}

// NewDependencyError は外部依存（メール送信等）の failure を表す500エラーを生成する。
// 内部メッセージはログ専用で、クライアントには汎用メッセージのみ返る。
func NewDependencyError() *HTTPError {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Message: "Internal Server Error",
		Errors:  []string{"Something went wrong. Please try again later."},
	}
}
