package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// Uploader - хранилище картинок: принимает файл, возвращает долговечный URL.
// Для ядра это черный ящик, реализацию можно заменить на внешний CDN.
type Uploader interface {
	Upload(name string, data []byte) (url string, err error)
	Remove(url string) error
}

// LocalUploader складывает файлы на диск и раздает их по baseURL
type LocalUploader struct {
	Dir     string
	BaseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if dir == "" {
		dir = "uploads"
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalUploader{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (u *LocalUploader) Upload(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file")
	}
	ext := filepath.Ext(name)
	fileName := xid.New().String() + ext
	if err := os.WriteFile(filepath.Join(u.Dir, fileName), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return u.BaseURL + "/" + fileName, nil
}

func (u *LocalUploader) Remove(url string) error {
	fileName := filepath.Base(url)
	if fileName == "." || fileName == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(u.Dir, fileName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GlobalUploader инициализируется на старте сервера
var GlobalUploader Uploader

func InitUploader(dir, baseURL string) error {
	up, err := NewLocalUploader(dir, baseURL)
	if err != nil {
		return err
	}
	GlobalUploader = up
	return nil
}
