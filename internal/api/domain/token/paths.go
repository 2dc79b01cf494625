package token

import (
	"fmt"
	"strings"
)

// ValidateFilePath accepts only relative paths that stay inside the download root.
func ValidateFilePath(p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return fmt.Errorf("%w: file path is required", ErrValidation)
	case strings.ContainsRune(p, 0):
		return fmt.Errorf("%w: file path contains NUL", ErrValidation)
	case strings.Contains(p, `\`):
		return fmt.Errorf("%w: file path contains a backslash", ErrValidation)
	case strings.HasPrefix(p, "/"):
		return fmt.Errorf("%w: file path must be relative", ErrValidation)
	case strings.Contains(p, "//"):
		return fmt.Errorf("%w: file path contains an empty segment", ErrValidation)
	}

	for _, segment := range strings.Split(p, "/") {
		if segment == ".." {
			return fmt.Errorf("%w: file path escapes the download root", ErrValidation)
		}
	}
	return nil
}
