// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload validates image attachments before they reach the chat
// session and manages their local preview files.
//
// Validation happens at selection time, before any network call: a rejected
// file never consumes a send slot. A selected image gets a temp-file preview
// reference that must be released exactly once, whether the send succeeds,
// fails, or is cancelled.
package upload

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MaxImageBytes is the largest accepted attachment size (5 MiB).
const MaxImageBytes = 5 << 20

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotAnImage indicates the selected file is not an image type.
	ErrNotAnImage = errors.New("please select an image file")

	// ErrTooLarge indicates the selected image exceeds MaxImageBytes.
	ErrTooLarge = errors.New("image size should be less than 5MB")
)

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks an attachment's declared MIME type and size. Both checks
// apply; type is checked first.
func Validate(mimeType string, size int64) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return ErrNotAnImage
	}
	if size > MaxImageBytes {
		return ErrTooLarge
	}
	return nil
}

// DetectMIME guesses a MIME type from the file extension. Unknown extensions
// yield an empty string, which Validate rejects.
func DetectMIME(path string) string {
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
}

// =============================================================================
// IMAGE TYPE
// =============================================================================

// Image is a validated attachment ready to send. It owns a temp-file preview
// that callers must release with ReleasePreview when the image leaves scope.
type Image struct {
	Name string
	MIME string
	Size int64
	Data []byte

	previewPath string
	releaseOnce sync.Once
}

// Open reads and validates an image file from disk, creating a preview.
func Open(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mimeType := DetectMIME(path)
	if err := Validate(mimeType, info.Size()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img := &Image{
		Name: filepath.Base(path),
		MIME: mimeType,
		Size: info.Size(),
		Data: data,
	}
	if err := img.createPreview(); err != nil {
		return nil, err
	}
	return img, nil
}

// createPreview writes the image bytes to a temp file that the UI can
// reference while the attachment is pending.
func (i *Image) createPreview() error {
	f, err := os.CreateTemp("", "mediguide-preview-*"+filepath.Ext(i.Name))
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(i.Data); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to create preview: %w", err)
	}
	i.previewPath = f.Name()
	return nil
}

// PreviewURL returns the local preview reference, or empty after release.
func (i *Image) PreviewURL() string {
	return i.previewPath
}

// ReleasePreview removes the preview file. Safe to call more than once;
// only the first call has effect.
func (i *Image) ReleasePreview() {
	i.releaseOnce.Do(func() {
		if i.previewPath != "" {
			os.Remove(i.previewPath)
			i.previewPath = ""
		}
	})
}
