// totp — движок одноразовых кодов для второго фактора.
//
// Реализует HOTP (RFC 4226) поверх HMAC-SHA1 и его времязависимый вариант
// TOTP (RFC 6238) с шагом 30 секунд и шестью цифрами. Проверка допускает
// окно в один шаг в обе стороны — этого достаточно для расхождения часов
// клиента и сервера, не ослабляя фактор заметно.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// secretLen — длина генерируемого секрета в байтах.
	secretLen = 20
	// digits — число цифр кода.
	digits = 6
	// period — длительность шага времени.
	period = 30 * time.Second
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret возвращает новый секрет: 20 криптослучайных байт
// в base32 без паддинга.
func GenerateSecret() (string, error) {
	const op = "totp.GenerateSecret"

	b := make([]byte, secretLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return b32.EncodeToString(b), nil
}

// ProvisioningURI строит стандартный otpauth-URI для приложений-аутентификаторов.
func ProvisioningURI(issuer, account, secret string) string {
	return fmt.Sprintf(
		"otpauth://totp/%s:%s?secret=%s&issuer=%s&algorithm=SHA1&digits=%d&period=%d",
		url.PathEscape(issuer),
		url.PathEscape(account),
		secret,
		url.QueryEscape(issuer),
		digits,
		int(period.Seconds()),
	)
}

// NormalizeCode убирает из пользовательского ввода все нецифровые символы
// (пробелы, дефисы и т.п.). Принимается только результат ровно из шести
// цифр; иначе — ("", false).
func NormalizeCode(input string) (string, bool) {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	code := b.String()
	if len(code) != digits {
		return "", false
	}

	return code, true
}

// Verify проверяет код против секрета на текущем шаге времени и на шаге
// назад/вперёд. Любая ошибка декодирования секрета — false.
func Verify(secret, code string) bool {
	return verifyAt(secret, code, time.Now())
}

func verifyAt(secret, code string, at time.Time) bool {
	key, err := decodeSecret(secret)
	if err != nil {
		return false
	}

	counter := uint64(at.Unix() / int64(period.Seconds()))

	// Предпочтение отстающим часам клиента, но засчитывается любое совпадение.
	for _, c := range []uint64{counter - 1, counter, counter + 1} {
		if subtle.ConstantTimeCompare([]byte(hotp(key, c)), []byte(code)) == 1 {
			return true
		}
	}

	return false
}

// decodeSecret разбирает base32-секрет: регистр и внешние пробелы
// не учитываются, паддинг допустим.
func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimSpace(secret))
	s = strings.TrimRight(s, "=")

	return b32.DecodeString(s)
}

// hotp вычисляет код RFC 4226: HMAC-SHA1 от big-endian счётчика,
// динамическое усечение по младшему полубайту последнего байта,
// сброс старшего бита, остаток по модулю 10^6 с ведущими нулями.
func hotp(key []byte, counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%06d", bin%1_000_000)
}
