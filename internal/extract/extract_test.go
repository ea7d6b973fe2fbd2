package extract

import (
	"errors"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		mimeType string
		want     string
		wantErr  error
	}{
		{"plain text", []byte("hello world"), "text/plain", "hello world", nil},
		{"charset parameter", []byte("hello"), "text/plain; charset=utf-8", "hello", nil},
		{"markdown", []byte("# Title"), "text/markdown", "# Title", nil},
		{"undeclared type", []byte("content"), "", "content", nil},
		{"surrounding whitespace trimmed", []byte("  body \n"), "text/plain", "body", nil},
		{"empty after extraction", []byte("   \n  "), "text/plain", "", ErrEmptyDocument},
		{"unsupported type", []byte("%PDF-1.4"), "application/pdf", "", ErrUnsupportedType},
		{"invalid utf8", []byte{0xff, 0xfe, 0x00}, "text/plain", "", ErrUnsupportedType},
	}

	var e Plaintext
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractPlainText(tt.data, tt.mimeType)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractPlainText: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
