package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalProvider stores files under a base directory on the local filesystem.
type LocalProvider struct {
	basePath string
}

// NewLocalProvider creates a new local storage provider, creating basePath and any
// missing parents.
func NewLocalProvider(basePath string) (*LocalProvider, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base directory is empty")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", basePath)
	}
	return &LocalProvider{basePath: basePath}, nil
}

// OpenLocalProvider wraps an existing directory without touching the filesystem.
func OpenLocalProvider(basePath string) *LocalProvider {
	return &LocalProvider{basePath: basePath}
}

// Path returns the filesystem path of name under the base directory.
func (p *LocalProvider) Path(name string) string {
	return filepath.Join(p.basePath, name)
}

// Upload saves a file to the local filesystem, replacing any existing file of the
// same name, and returns its path.
func (p *LocalProvider) Upload(ctx context.Context, file io.Reader, name string) (string, error) {
	fullPath := p.Path(name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to write file content: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return fullPath, nil
}

// Append adds p to the end of name, creating it if needed.
func (p *LocalProvider) Append(name string, data []byte) error {
	f, err := os.OpenFile(p.Path(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Delete removes a file; a missing file is not an error.
func (p *LocalProvider) Delete(ctx context.Context, name string) error {
	err := os.Remove(p.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Size returns the size in bytes of a regular file.
func (p *LocalProvider) Size(ctx context.Context, name string) (int64, error) {
	info, err := os.Stat(p.Path(name))
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file", name)
	}
	return info.Size(), nil
}
