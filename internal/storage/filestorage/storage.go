package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideBaseDir = errors.New("path escapes base directory")

// FileStorage файлы, которые сервис генерирует сам: sitemap.xml для статики,
// резервные выгрузки регистраций.
type FileStorage interface {
	Write(ctx context.Context, relPath string, r io.Reader) (filePath string, fileSize int64, err error)
	Delete(ctx context.Context, relPath string) error
	GetFullPath(relativePath string) string
	BaseURL() string
	GetBaseDir() string
}

// LocalFileStorage реализация для локальной файловой системы
type LocalFileStorage struct {
	baseDir string // Базовый каталог (например: "./public")
	baseURL string // URL, по которому каталог раздаётся (например: "https://example.org")
}

func NewLocalFileStorage(baseDir, baseURL string) (*LocalFileStorage, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Write атомарно заменяет файл: пишет во временный рядом и переименовывает,
// чтобы веб-сервер никогда не отдал недописанный sitemap.
func (s *LocalFileStorage) Write(ctx context.Context, relPath string, r io.Reader) (string, int64, error) {
	const op = "filestorage.Write"

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	fullPath, err := s.resolve(relPath)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("%s: failed to create directories: %w", op, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return "", 0, fmt.Errorf("%s: failed to create temp file: %w", op, err)
	}
	tmpName := tmp.Name()

	done := make(chan struct{})
	var size int64
	var copyErr error

	go func() {
		size, copyErr = io.Copy(tmp, r)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		<-done
		copyErr = ctx.Err()
	}

	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(tmpName)
		return "", 0, fmt.Errorf("%s: failed to write file: %w", op, copyErr)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		return "", 0, fmt.Errorf("%s: failed to replace file: %w", op, err)
	}

	return filepath.Clean(relPath), size, nil
}

// Delete удаляет файл из хранилища
func (s *LocalFileStorage) Delete(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	return os.Remove(fullPath)
}

// GetFullPath возвращает полный путь к файлу на диске
func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, relativePath)
}

// BaseURL возвращает базовый URL для доступа к файлам
func (s *LocalFileStorage) BaseURL() string {
	return s.baseURL
}

func (s *LocalFileStorage) GetBaseDir() string {
	return s.baseDir
}

func (s *LocalFileStorage) resolve(relPath string) (string, error) {
	clean := filepath.Clean(relPath)
	if relPath == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideBaseDir, relPath)
	}

	return filepath.Join(s.baseDir, clean), nil
}
