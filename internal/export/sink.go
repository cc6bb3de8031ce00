package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/atotto/clipboard"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename returns "release-notes-<version>.<ext>", using "draft" when the
// version is empty.
func Filename(e Release, ext string) string {
	version := unsafeName.ReplaceAllString(e.Version, "-")
	if version == "" {
		version = "draft"
	}
	return fmt.Sprintf("release-notes-%s.%s", version, ext)
}

// WriteFile writes data to dir/name and returns the written path.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

var (
	writeClipboard     = clipboard.WriteAll
	clipboardAvailable = func() bool { return !clipboard.Unsupported }
)

// Copy places text on the system clipboard.
func Copy(text string) error {
	if !clipboardAvailable() {
		return fmt.Errorf("copy export: clipboard is not available on this system")
	}
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("copy export: %w", err)
	}
	return nil
}
