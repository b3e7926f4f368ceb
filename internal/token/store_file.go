package token

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

// FileStore persists the credential across process restarts, the durable
// storage analog for a client profile. Writes are atomic (tmp + rename) and
// the file is owner-only.
//
// With a 32-byte seal key the document is sealed with NaCl secretbox so a
// bearer credential never sits on disk in the clear. A corrupt or unreadable
// file reads as absent rather than failing open.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  *[32]byte
}

type fileDoc struct {
	Credential string `json:"credential,omitempty"`
	Role       string `json:"role,omitempty"`
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithSealKey enables at-rest sealing. The key must be exactly 32 bytes.
func WithSealKey(key []byte) FileStoreOption {
	return func(s *FileStore) {
		if len(key) != 32 {
			return
		}
		var k [32]byte
		copy(k[:], key)
		s.key = &k
	}
}

func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	s := &FileStore{path: path}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *FileStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	storeOps.WithLabelValues("get").Inc()
	return s.load().Credential, nil
}

func (s *FileStore) Set(_ context.Context, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	storeOps.WithLabelValues("set").Inc()
	doc := s.load()
	doc.Credential = credential
	return s.save(doc)
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	storeOps.WithLabelValues("clear").Inc()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear token file: %w", err)
	}
	return nil
}

func (s *FileStore) Role(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Role, nil
}

func (s *FileStore) SetRole(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	doc.Role = name
	return s.save(doc)
}

// load re-reads the file on every call so another process sharing the profile
// directory is picked up, mirroring storage-event behavior in browsers.
func (s *FileStore) load() fileDoc {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fileDoc{}
	}
	if s.key != nil {
		raw = s.open(raw)
		if raw == nil {
			return fileDoc{}
		}
	}
	var doc fileDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fileDoc{}
	}
	return doc
}

func (s *FileStore) save(doc fileDoc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	if s.key != nil {
		raw, err = s.seal(raw)
		if err != nil {
			return err
		}
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (s *FileStore) seal(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("seal token file: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, s.key), nil
}

func (s *FileStore) open(sealed []byte) []byte {
	if len(sealed) < 24 {
		return nil
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, s.key)
	if !ok {
		return nil
	}
	return plain
}
