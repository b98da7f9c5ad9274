package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// StubExportStorage keeps uploaded artifacts in memory. Used in tests and
// in development when no S3-compatible backend is configured.
type StubExportStorage struct {
	// BaseURL is the base URL for generated download links
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewStubExportStorage creates a new StubExportStorage
func NewStubExportStorage() *StubExportStorage {
	return &StubExportStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
	}
}

// Upload stores an artifact in memory
func (s *StubExportStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.objects[key] = copied

	return nil
}

// DownloadURL generates a stub download link
func (s *StubExportStorage) DownloadURL(_ context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	return s.BaseURL + "/download/" + key, expiresAt, nil
}

// Delete removes an artifact from memory
func (s *StubExportStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)

	return nil
}

// Object returns a stored artifact, for test assertions
func (s *StubExportStorage) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}
