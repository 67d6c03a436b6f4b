// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/omebia/rdt/internal/middleware"
	"github.com/omebia/rdt/internal/model"
)

// writeJSON は統一エンベロープで成功レスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.NewEnvelope(status, data, message, nil))
}

// handleServiceError はエラーをHTTPレスポンスに変換する唯一の地点。
// *model.HTTPErrorはそのままステータスとエンベロープに写し、
// それ以外は詳細をログに残して汎用の500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	httpErr := &model.HTTPError{}
	if errors.As(err, &httpErr) {
		middleware.WriteErrorResponse(w, httpErr)
		return
	}

	slog.Error("unexpected error",
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}
