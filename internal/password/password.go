// Package password はパスワードのハッシュ化と検証を提供する。
// argon2idを使用し、ハッシュごとに24バイトのランダムソルトを生成する。
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength = 24
	keyLength  = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// Hash はパスワードをargon2idでハッシュ化し、PHC形式の文字列を返す。
// ソルトは呼び出しごとに新規生成され、結果文字列に埋め込まれる。
// 形式: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify は保存済みハッシュ文字列と平文パスワードの一致を検証する。
// 不一致・不正な形式のハッシュのいずれもfalseを返す。エラーは返さない。
// 比較はsubtle.ConstantTimeCompareで行う。
func Verify(encoded, password string) bool {
	memory, time, threads, salt, want, ok := decode(encoded)
	if !ok {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1
}

// decode はPHC形式のハッシュ文字列からパラメータ・ソルト・ハッシュを取り出す。
func decode(encoded string) (memory, time uint32, threads uint8, salt, hash []byte, ok bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, false
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return 0, 0, 0, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, false
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return 0, 0, 0, nil, nil, false
	}

	return memory, time, threads, salt, hash, true
}
