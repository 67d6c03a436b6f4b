// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizer はユーザー入力文字列をサニタイズし、
// 格納型XSSなどのセキュリティリスクからユーザーを保護する。
// 認証系の入力（メールアドレス、表示名など）にHTMLが含まれる正当な
// ケースは存在しないため、許可タグなしのStrictPolicyで全タグを除去する。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// InputSanitizerService はユーザー入力のサニタイズ機能のインターフェースを定義する。
// リクエストボディの文字列フィールドを永続化する前に適用する。
type InputSanitizerService interface {
	// SanitizeString は入力文字列からHTMLタグを全て除去して返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeString(input string) string
}

// inputSanitizer はInputSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerServiceの新しいインスタンスを生成する。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeString は入力文字列からHTMLタグを全て除去して返す。
// bluemondayはタグ除去後にエンティティエスケープを残すため、
// 平文フィールドとして保存できるようアンエスケープして返す。
func (s *inputSanitizer) SanitizeString(input string) string {
	return html.UnescapeString(s.policy.Sanitize(input))
}
