package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 2048)), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		file    string
		maxSize int64
		wantErr string
	}{
		{name: "readable file", file: path},
		{name: "within limit", file: path, maxSize: 4096},
		{name: "too large", file: path, maxSize: 1024, wantErr: "larger than the 1.0 KB limit"},
		{name: "empty name", file: "", wantErr: "filename cannot be empty"},
		{name: "missing", file: filepath.Join(dir, "nope.txt"), wantErr: "file does not exist"},
		{name: "directory", file: dir, wantErr: "path is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputFile(tt.file, tt.maxSize)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFileKinds(t *testing.T) {
	if !IsTextFile("cv.MD") || IsTextFile("cv.docx") {
		t.Error("IsTextFile misclassified")
	}
	if !IsDocumentFile("cv.DOCX") || !IsDocumentFile("cv.pdf") || IsDocumentFile("cv.txt") {
		t.Error("IsDocumentFile misclassified")
	}
}

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for size, want := range cases {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", size, got, want)
		}
	}
}
