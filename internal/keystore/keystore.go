// keystore — in-process кэш публичных ключей проверки подписи (kid -> ключ).
//
// Читается конкурентно любым числом верификаций; обновление — это всегда
// целиком новый набор (ReplaceAll), частичного слияния не бывает: проверка,
// идущая параллельно с обновлением, видит либо полностью старый, либо
// полностью новый набор.
package keystore

import (
	"crypto/rsa"
	"sync"
)

// Store — потокобезопасное отображение kid -> *rsa.PublicKey.
type Store struct {
	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

// New создаёт пустой Store.
func New() *Store {
	return &Store{keys: make(map[string]*rsa.PublicKey)}
}

// Get возвращает ключ по kid и признак его наличия.
func (s *Store) Get(kid string) (*rsa.PublicKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, ok := s.keys[kid]
	return key, ok
}

// Set добавляет или заменяет один ключ.
func (s *Store) Set(kid string, key *rsa.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[kid] = key
}

// ReplaceAll атомарно заменяет весь набор ключей.
func (s *Store) ReplaceAll(keys map[string]*rsa.PublicKey) {
	next := make(map[string]*rsa.PublicKey, len(keys))
	for kid, key := range keys {
		next[kid] = key
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys = next
}

// Len возвращает текущее число ключей.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.keys)
}
