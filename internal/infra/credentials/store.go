package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fooddonation/internal/domain"
)

// Keys under which the session is persisted.
const (
	KeyToken = "userToken"
	KeyEmail = "userEmail"
)

// KeyValueStore persists opaque values under named keys. Load reports a
// missing key with found=false and a nil error; Delete of a missing key
// succeeds.
type KeyValueStore interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) (value []byte, found bool, err error)
	Delete(ctx context.Context, key string) error
}

// Session reads and writes the single stored credential.
type Session struct {
	store KeyValueStore
}

// NewSession reads and writes the credential through store.
func NewSession(store KeyValueStore) *Session {
	return &Session{store: store}
}

// Token returns the stored bearer token. An empty token counts as absent.
func (s *Session) Token(ctx context.Context) (string, bool, error) {
	return s.load(ctx, KeyToken)
}

// Email returns the email saved alongside the token.
func (s *Session) Email(ctx context.Context) (string, bool, error) {
	return s.load(ctx, KeyEmail)
}

// Save stores cred, replacing any previous credential. If either write
// fails the session is cleared, so no half-written credential is left signed
// in.
func (s *Session) Save(ctx context.Context, cred domain.Credential) error {
	token := strings.TrimSpace(cred.Token)
	if token == "" {
		return errors.New("credentials: token is required")
	}
	err := s.store.Save(ctx, KeyToken, []byte(token))
	if err == nil {
		err = s.store.Save(ctx, KeyEmail, []byte(strings.TrimSpace(cred.Email)))
	}
	if err != nil {
		return errors.Join(fmt.Errorf("credentials: save session: %w", err), s.Clear(ctx))
	}
	return nil
}

// Clear removes both the token and the email.
func (s *Session) Clear(ctx context.Context) error {
	return errors.Join(
		s.store.Delete(ctx, KeyToken),
		s.store.Delete(ctx, KeyEmail),
	)
}

func (s *Session) load(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.store.Load(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	value := strings.TrimSpace(string(raw))
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// MemoryStore is a process-local KeyValueStore.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string][]byte{}}
}

func (m *MemoryStore) Save(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
