package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsResumeFile(t *testing.T) {
	tests := map[string]bool{
		"cv.pdf":     true,
		"CV.PDF":     true,
		"cv.docx":    true,
		"cv.doc":     false,
		"cv.txt":     false,
		"resume":     false,
		"a.pdf.json": false,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, IsResumeFile(name))
		})
	}
}

func TestValidateUploadSize(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.pdf")
	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(small, make([]byte, 100), 0600))
	require.NoError(t, os.WriteFile(empty, nil, 0600))

	assert.NoError(t, ValidateUploadSize(small, 1024))
	assert.NoError(t, ValidateUploadSize(small, 0))
	assert.ErrorContains(t, ValidateUploadSize(small, 50), "larger than the 50 B limit")
	assert.ErrorContains(t, ValidateUploadSize(empty, 1024), "file is empty")
	assert.Error(t, ValidateUploadSize(filepath.Join(dir, "missing.pdf"), 1024))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.5 KB", FormatFileSize(1536))
	assert.Equal(t, "10.0 MB", FormatFileSize(10*1024*1024))
}

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, ValidateInputFile(""))
	assert.Error(t, ValidateInputFile(dir))
	assert.Error(t, ValidateInputFile(filepath.Join(dir, "nope.txt")))

	f := filepath.Join(dir, "jd.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0600))
	assert.NoError(t, ValidateInputFile(f))
	assert.True(t, IsTextFile(f))
}
