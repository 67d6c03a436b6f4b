package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/omebia/rdt/internal/model"
)

// WriteErrorResponse は統一エンベロープでHTTPエラーレスポンスを書き込む。
// ミドルウェアとハンドラーの両方から使われ、全エンドポイントで
// 一貫したレスポンス形式を提供する。
func WriteErrorResponse(w http.ResponseWriter, httpErr *model.HTTPError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Status)
	json.NewEncoder(w).Encode(model.NewEnvelope(httpErr.Status, nil, httpErr.Message, httpErr.Errors))
}

// WriteInternalServerError は内部エラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, model.NewDependencyError())
}
