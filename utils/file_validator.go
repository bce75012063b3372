package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/princinho/drivequiz/config"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileExtension   = errors.New("invalid file extension")
	ErrFileContentType = errors.New("invalid file type")
	ErrFileUnreadable  = errors.New("failed to read file")
)

// FileValidator checks uploads by size, extension and sniffed content type.
// The client-supplied Content-Type header is never trusted.
type FileValidator struct {
	allowedExt  map[string]bool
	allowedMime map[string]bool
	maxSize     int64
}

func NewFileValidator(cfg config.UploadConfig) *FileValidator {
	allowedExt := make(map[string]bool)
	for _, ext := range cfg.AllowedExtensions {
		if ext = strings.TrimSpace(strings.ToLower(ext)); ext != "" {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			allowedExt[ext] = true
		}
	}

	allowedMime := make(map[string]bool)
	for _, m := range cfg.AllowedMimeTypes {
		if m = strings.TrimSpace(strings.ToLower(m)); m != "" {
			allowedMime[m] = true
		}
	}

	sizeMB := cfg.MaxSizeMB
	if sizeMB <= 0 {
		sizeMB = 5
	}

	return &FileValidator{
		allowedExt:  allowedExt,
		allowedMime: allowedMime,
		maxSize:     int64(sizeMB) << 20,
	}
}

func (v *FileValidator) MaxSize() int64 { return v.maxSize }

// ValidateFile returns the detected MIME type of an acceptable upload.
func (v *FileValidator) ValidateFile(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > v.maxSize {
		return "", fmt.Errorf("%w (max %d MB)", ErrFileTooLarge, v.maxSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !v.allowedExt[ext] {
		return "", ErrFileExtension
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", ErrFileUnreadable
	}
	defer file.Close()

	return v.sniff(file)
}

func (v *FileValidator) sniff(r io.Reader) (string, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(r, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", ErrFileUnreadable
	}

	detected := strings.ToLower(http.DetectContentType(buffer[:n]))
	if !v.allowedMime[detected] {
		return "", ErrFileContentType
	}
	return detected, nil
}
