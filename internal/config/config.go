// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл .yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	Ops      OpsConfig     `yaml:"ops"`
	Auth     AuthConfig    `yaml:"auth"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	Events   EventsConfig  `yaml:"events"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// OpsConfig — сетевые настройки служебного HTTP-листенера
// (/livez, /healthz, /metrics).
type OpsConfig struct {
	Host string `yaml:"host" env:"OPS_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_PORT" env-default:"50081"`
}

// Addr возвращает адрес в формате host:port.
func (o OpsConfig) Addr() string {
	return net.JoinHostPort(o.Host, o.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов и политику MFA.
type AuthConfig struct {
	Issuer   string   `yaml:"issuer" env:"ISSUER" env-default:"auth-service"`
	Audience []string `yaml:"audience" env:"AUDIENCE" env-default:"bizhub-api"`
	// LeewaySeconds — допуск при проверке временных claims.
	LeewaySeconds   int           `yaml:"leeway_seconds" env:"LEEWAY_SECONDS" env-default:"5"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`

	// JWKSURL — эндпоинт удалённого набора ключей. Пустое значение
	// отключает фоновое обновление.
	JWKSURL string `yaml:"jwks_url" env:"JWKS_URL"`
	// JWKSRefreshInterval — период фонового обновления; снизу ограничен минутой.
	JWKSRefreshInterval time.Duration `yaml:"jwks_refresh_interval" env:"JWKS_REFRESH_INTERVAL" env-default:"5m"`

	// LocalSigningKey — приватный ключ в PEM на случай, когда в БД нет
	// ни одного активного ключа. Только для непроизводственных стендов.
	LocalSigningKey string `yaml:"local_signing_key" env:"LOCAL_SIGNING_KEY"`

	// MFARequiredRoles — роли, для которых второй фактор обязателен.
	MFARequiredRoles []string `yaml:"mfa_required_roles" env:"MFA_REQUIRED_ROLES"`
	// MFAExemptTenants — арендаторы, освобождённые от принудительного MFA
	// (кроме пользователей с уже подтверждённым фактором).
	MFAExemptTenants []string `yaml:"mfa_exempt_tenants" env:"MFA_EXEMPT_TENANTS"`

	Cookie CookieConfig `yaml:"refresh_cookie"`
}

// Leeway возвращает допуск в виде time.Duration.
func (a AuthConfig) Leeway() time.Duration {
	return time.Duration(a.LeewaySeconds) * time.Second
}

// CookieConfig — параметры HTTP-only cookie, в которой refresh-токен
// уезжает в браузер. В JSON-теле refresh-токен не возвращается никогда.
type CookieConfig struct {
	Name   string `yaml:"name" env:"REFRESH_COOKIE_NAME" env-default:"bizhub_refresh"`
	Domain string `yaml:"domain" env:"REFRESH_COOKIE_DOMAIN"`
	Secure bool   `yaml:"secure" env:"REFRESH_COOKIE_SECURE" env-default:"true"`
	// SameSite: "lax", "strict" или "none".
	SameSite string `yaml:"same_site" env:"REFRESH_COOKIE_SAMESITE" env-default:"lax"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig — настройки кэша погашенных refresh-токенов.
// Пустой URL отключает кэш.
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
}

// EventsConfig — шина событий активности и webhook для алертов.
// Пустой список брокеров отключает публикацию.
type EventsConfig struct {
	Brokers  []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic    string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"auth.activity"`
	DLQTopic string   `yaml:"dlq_topic" env:"KAFKA_DLQ_TOPIC" env-default:"auth.activity.dlq"`
	// AlertWebhookURL — приёмник алертов о подозрительной активности.
	AlertWebhookURL string `yaml:"alert_webhook_url" env:"ALERT_WEBHOOK_URL"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
