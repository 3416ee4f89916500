package common

import (
	"fmt"
	"os"
	"path/filepath"

	"resumetailor/internal/errors"
	"resumetailor/internal/utils"

	"golang.org/x/text/unicode/norm"
)

// FileProcessor reads résumé and job description inputs and writes command
// output. Failures come back as AppErrors.
type FileProcessor struct {
	logger *errors.Logger
}

func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads a plain text input such as a job description, normalized
// to NFC. Files without a text extension are read anyway with a warning.
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	if !utils.IsTextFile(filename) && fp.logger != nil {
		fp.logger.Warn("File may not be plain text", "filename", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	return norm.NFC.String(string(data)), nil
}

// ReadResume reads a .pdf or .docx document for upload, enforcing maxSize.
func (fp *FileProcessor) ReadResume(filename string, maxSize int64) ([]byte, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	if !utils.IsResumeFile(filename) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported resume format %q, expected .pdf or .docx", utils.GetFileExtension(filename)), nil)
	}
	if err := utils.ValidateUploadSize(filename, maxSize); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	if fp.logger != nil {
		fp.logger.Debug("Read resume", "filename", filename, "size", utils.FormatFileSize(int64(len(data))))
	}
	return data, nil
}

// WriteFile writes formatted output, creating parent directories.
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := fp.ValidateOutputFile(filename); err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotWritable,
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// WriteBinary stores a downloaded document as dir/name and returns the
// path. Only the base of name is used.
func (fp *FileProcessor) WriteBinary(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotWritable,
			fmt.Sprintf("Cannot create directory: %s", dir), err)
	}
	target := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(target, data, 0600); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotWritable,
			fmt.Sprintf("Cannot write file: %s", target), err)
	}
	return target, nil
}

// ValidateOutputFile prepares the directory for filename. An empty name
// means stdout.
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
