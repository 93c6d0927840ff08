package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/bloodsight/bloodsight-api/pkg/security"
)

// Store persists uploaded report files.
type Store interface {
	Save(filename string, data []byte) (stored string, path string, err error)
	Load(path string) ([]byte, error)
	Delete(path string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// LocalStore writes files under a root directory on local disk,
// optionally encrypting them at rest.
type LocalStore struct {
	root      string
	encryptor security.Encryptor
}

// NewLocalStore ensures the root directory exists. Encryptor may be nil
// to store files in plaintext.
func NewLocalStore(root string, encryptor security.Encryptor) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{root: root, encryptor: encryptor}, nil
}

// Save writes data under a unique name derived from the original
// filename and returns both the stored name and the full path.
func (s *LocalStore) Save(filename string, data []byte) (string, string, error) {
	stored := uuid.New().String() + "_" + sanitize(filename)
	path := filepath.Join(s.root, stored)

	if s.encryptor != nil {
		encrypted, err := s.encryptor.Encrypt(data)
		if err != nil {
			return "", "", fmt.Errorf("failed to encrypt file: %w", err)
		}
		data = encrypted
	}

	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", "", fmt.Errorf("failed to write file: %w", err)
	}
	return stored, path, nil
}

// Load reads a stored file back, decrypting if the store encrypts.
func (s *LocalStore) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if s.encryptor != nil {
		decrypted, err := s.encryptor.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt file: %w", err)
		}
		data = decrypted
	}
	return data, nil
}

func (s *LocalStore) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// sanitize strips path separators and shell-unfriendly characters so a
// client-supplied filename cannot escape the upload root.
func sanitize(filename string) string {
	base := filepath.Base(filename)
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == ".." {
		base = "upload"
	}
	if len(base) > 100 {
		ext := filepath.Ext(base)
		base = base[:100-len(ext)] + ext
	}
	base = strings.TrimLeft(base, ".")
	if base == "" {
		base = "upload"
	}
	return base
}
