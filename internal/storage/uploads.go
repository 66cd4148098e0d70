// Package storage writes uploaded blobs to disk under random names so the
// user-supplied filename never touches the filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileType = errors.New("file type not allowed")
	ErrTooLarge = errors.New("file exceeds the size limit")
)

// allowedExtensions mirrors the accepted upload set: images, PDF, common
// office formats, and plain text.
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".txt":  true,
}

type Store struct {
	dir      string
	maxBytes int64
}

// Stored describes a blob that was written to disk.
type Stored struct {
	Filename string // random on-disk name
	Path     string // relative path for static serving, e.g. "uploads/<name>"
	MimeType string
	Size     int64
}

func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save validates and writes an uploaded file, keeping the original extension
// on a uuid-based name.
func (s *Store) Save(file *multipart.FileHeader) (*Stored, error) {
	if file.Size > s.maxBytes {
		return nil, ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))

	if !allowedExtensions[ext] {
		return nil, ErrFileType
	}

	name := uuid.NewString() + ext

	src, err := file.Open()

	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))

	if err != nil {
		return nil, fmt.Errorf("failed to create blob: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)

	if err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return nil, fmt.Errorf("failed to write blob: %w", err)
	}

	return &Stored{
		Filename: name,
		Path:     path.Join("uploads", name),
		MimeType: file.Header.Get("Content-Type"),
		Size:     written,
	}, nil
}

// Remove deletes a blob by its stored name. A missing blob is not an error:
// metadata cleanup must proceed regardless.
func (s *Store) Remove(filename string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(filename)))

	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
