// redact — помощники для безопасного логирования: секреты и персональные
// данные не должны попадать в логи в открытом виде.
package redact

import "strings"

// Email маскирует локальную часть адреса, оставляя домен.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if r := []rune(local); len(r) > 2 {
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token — заглушка вместо значения любого токена.
func Token() string { return "[REDACTED_TOKEN]" }

// Secret — заглушка вместо секрета второго фактора.
func Secret() string { return "[REDACTED_SECRET]" }
