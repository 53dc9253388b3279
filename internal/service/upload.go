package service

import (
	"fmt"
	"net/http"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

// MaxImageSize is the per-file upload limit.
const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ValidateImage rejects oversized or non JPEG/PNG content. Empty data means
// the file was not provided and is accepted.
func ValidateImage(field string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if len(data) > MaxImageSize {
		return errors.InvalidInput(field, fmt.Sprintf("%s exceeds the %d MB limit", field, MaxImageSize>>20))
	}
	if !allowedImageTypes[ImageContentType(data)] {
		return errors.InvalidInput(field, "only JPEG/PNG images are allowed")
	}
	return nil
}

// ImageContentType sniffs the MIME type of an image blob.
func ImageContentType(data []byte) string {
	return http.DetectContentType(data)
}

// validateImages checks every provided image, keyed by field name.
func validateImages(images map[string][]byte) error {
	for field, data := range images {
		if err := ValidateImage(field, data); err != nil {
			return err
		}
	}
	return nil
}
