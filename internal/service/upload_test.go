package service

import (
	"bytes"
	"testing"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

func TestValidateImage(t *testing.T) {
	jpeg := append([]byte("\xff\xd8\xff\xe0"), make([]byte, 32)...)
	huge := append(bytes.Clone(pngBytes), make([]byte, MaxImageSize)...)

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"absent", nil, false},
		{"png", pngBytes, false},
		{"jpeg", jpeg, false},
		{"gif", []byte("GIF89a......"), true},
		{"text", []byte("hello"), true},
		{"too large", huge, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage("photo", tt.data)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("code = %s", errors.CodeOf(err))
			}
		})
	}
}
