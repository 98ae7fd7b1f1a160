package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrFetch — не удалось получить JWKS-документ: сетевая ошибка либо
// неуспешный HTTP-статус. Отличается от ErrDecode: «не дотянулись»
// против «дотянулись, но получили мусор».
var ErrFetch = errors.New("jwks fetch failed")

// defaultFetchTimeout ограничивает каждый запрос к эндпоинту ключей.
const defaultFetchTimeout = 10 * time.Second

// Client получает опубликованный набор ключей по HTTP.
type Client struct {
	url    string
	client *http.Client
}

// NewClient создаёт клиент для эндпоинта JWKS.
func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: defaultFetchTimeout},
	}
}

// URL возвращает адрес эндпоинта.
func (c *Client) URL() string { return c.url }

// Fetch скачивает и разбирает JWKS-документ.
// Любая некорректная запись делает весь результат ошибочным: ключи
// устанавливаются только целым набором.
func (c *Client) Fetch(ctx context.Context) ([]Key, error) {
	const op = "jwks.client.Fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: unexpected status %d", op, ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrFetch, err)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrDecode, err)
	}

	keys := make([]Key, 0, len(doc.Keys))
	for _, jwk := range doc.Keys {
		key, err := ParseJWK(jwk)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		keys = append(keys, key)
	}

	return keys, nil
}
