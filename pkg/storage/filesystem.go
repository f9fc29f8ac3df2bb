package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CleanupStatus describes the result of a single best-effort file removal.
type CleanupStatus string

const (
	CleanupDeleted  CleanupStatus = "deleted"
	CleanupNotFound CleanupStatus = "not_found"
	CleanupFailed   CleanupStatus = "failed"
)

// CleanupOutcome reports what happened to one file during compensation cleanup.
type CleanupOutcome struct {
	File   string        `json:"file"`
	Status CleanupStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// UploadStore persists uploaded files (package images, signature scans) on
// disk under a base directory.
type UploadStore struct {
	baseDir string
}

// NewUploadStore ensures the base directory exists and returns a handle.
func NewUploadStore(baseDir string) (*UploadStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &UploadStore{baseDir: baseDir}, nil
}

// SaveStream stores the reader contents under a generated name inside subdir
// and returns the relative path used as the stored file reference.
func (s *UploadStore) SaveStream(subdir, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	rel := filepath.Join(subdir, uuid.NewString()+ext)
	path := s.resolve(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// Open returns a read-only handle for the stored file.
func (s *UploadStore) Open(relPath string) (*os.File, error) {
	file, err := os.Open(s.resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Remove deletes a stored file and reports the outcome instead of failing the
// caller. The record store stays authoritative; orphans are tolerated.
func (s *UploadStore) Remove(relPath string) CleanupOutcome {
	outcome := CleanupOutcome{File: relPath}
	err := os.Remove(s.resolve(relPath))
	switch {
	case err == nil:
		outcome.Status = CleanupDeleted
	case os.IsNotExist(err):
		outcome.Status = CleanupNotFound
	default:
		outcome.Status = CleanupFailed
		outcome.Reason = err.Error()
	}
	return outcome
}

func (s *UploadStore) resolve(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(relPath))
}
