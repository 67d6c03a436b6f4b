package model

// Envelope は全APIレスポンスの統一フォーマット。
// successはHTTPステータスが2xxかどうかで決まる。
// 値のないフィールドはnullとしてシリアライズされる。
type Envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data"`
	Message *string  `json:"message"`
	Errors  []string `json:"errors"`
}

// NewEnvelope はステータスコードからsuccessを判定してEnvelopeを組み立てる。
func NewEnvelope(status int, data any, message string, errs []string) Envelope {
	var msg *string
	if message != "" {
		msg = &message
	}
	if len(errs) == 0 {
		errs = nil
	}
	return Envelope{
		Success: status >= 200 && status < 300,
		Data:    data,
		Message: msg,
		Errors:  errs,
	}
}
