package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// FileStore persists small secrets onto the local filesystem, one file per
// key. Files are written with owner-only permissions and, when a key is
// configured, sealed with XChaCha20-Poly1305.
type FileStore struct {
	basePath string
	aead     cipher.AEAD
}

// NewFileStore initializes a FileStore rooted at basePath. encryptionKey may
// be nil; otherwise it must be chacha20poly1305.KeySize bytes.
func NewFileStore(basePath string, encryptionKey []byte) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	store := &FileStore{basePath: basePath}
	if len(encryptionKey) > 0 {
		aead, err := chacha20poly1305.NewX(encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("storage: init cipher: %w", err)
		}
		store.aead = aead
	}
	return store, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Save writes value under key, replacing any previous value atomically.
func (s *FileStore) Save(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	data := value
	if s.aead != nil {
		nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
		if _, err := rand.Read(nonce); err != nil {
			return fmt.Errorf("storage: nonce: %w", err)
		}
		data = s.aead.Seal(nonce, nonce, value, []byte(key))
	}
	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("storage: replace file: %w", err)
	}
	return nil
}

// Load returns the value stored under key. A missing key reports found=false
// with a nil error.
func (s *FileStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	fullPath, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: read file: %w", err)
	}
	if s.aead == nil {
		return data, true, nil
	}
	if len(data) < s.aead.NonceSize() {
		return nil, false, errors.New("storage: sealed value truncated")
	}
	nonce, sealed := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, sealed, []byte(key))
	if err != nil {
		return nil, false, fmt.Errorf("storage: open sealed value: %w", err)
	}
	return plain, true, nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, cleanKey), nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root. Keys
// are flat names; separators are rejected.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." || strings.HasPrefix(key, ".tmp-") {
		return "", errors.New("storage: invalid key")
	}
	return key, nil
}
