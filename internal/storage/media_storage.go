// Package storage archives outbound media uploads on the local filesystem
// before they are forwarded to the messaging provider, so a provider
// failure never loses the agent's file.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Security errors
var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrFileNotFound  = errors.New("file not found")
	ErrFileTooLarge  = errors.New("file exceeds size limit")
	ErrBlockedExt    = errors.New("file extension is blocked")
)

// MaxMediaSize is the maximum allowed upload size (16 MB, the provider's
// media message limit)
const MaxMediaSize = 16 * 1024 * 1024

// BlockedExtensions contains file extensions that are never forwarded
var BlockedExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true,
	".pif": true, ".scr": true, ".vbs": true, ".js": true,
	".jar": true, ".ps1": true, ".sh": true, ".bash": true,
	".msi": true, ".dll": true, ".sys": true,
}

// MediaStorage defines the interface for media file operations
type MediaStorage interface {
	Save(filename string, content io.Reader) (string, error)
	Get(filePath string) (io.ReadCloser, error)
	Delete(filePath string) error
}

// localStorage implements MediaStorage using the local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath string) (MediaStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &localStorage{basePath: basePath}, nil
}

// validatePath ensures path is within basePath (prevents traversal)
func (s *localStorage) validatePath(filePath string) (string, error) {
	cleanPath := filepath.Clean(filePath)

	if filepath.IsAbs(cleanPath) {
		return "", ErrPathTraversal
	}
	if strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}

	fullPath := filepath.Join(s.basePath, cleanPath)

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) &&
		absPath != absBase {
		return "", ErrPathTraversal
	}

	return absPath, nil
}

// ValidateUpload checks file extension and size before anything is stored
func ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))

	if BlockedExtensions[ext] {
		return ErrBlockedExt
	}
	if size > MaxMediaSize {
		return ErrFileTooLarge
	}
	return nil
}

// Save streams an upload to disk under a generated name and returns the
// relative path. Uploads are sharded into subdirectories by the first two
// characters of the generated name.
func (s *localStorage) Save(filename string, content io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	uniqueName := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	subDir := uniqueName[:2]
	dirPath := filepath.Join(s.basePath, subDir)

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	filePath := filepath.Join(subDir, uniqueName)
	fullPath := filepath.Join(s.basePath, filePath)

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// Get retrieves a stored media file by its relative path
func (s *localStorage) Get(filePath string) (io.ReadCloser, error) {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes a stored media file by its relative path
func (s *localStorage) Delete(filePath string) error {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
