// Package filex contains small filesystem helpers: working-directory
// subdirectories and attachment loading for multipart uploads.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// Attachment is a file payload ready to be written into a multipart form.
type Attachment struct {
	// Name is the base file name sent to the server.
	Name string

	// Data is the raw file content.
	Data []byte
}

// LoadAttachment reads path into an Attachment. The attachment name is the
// file's base name.
func LoadAttachment(path string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &Attachment{Name: filepath.Base(path), Data: data}, nil
}

// EnsureSubDir creates dirName under the current working directory if needed
// and returns its absolute path.
func EnsureSubDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
