package transfer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// guardPaths rejects invalid requests before any filesystem mutation.
// It returns the cleaned source and target paths on success.
func guardPaths(src, dst string) (string, string, error) {
	if src == "" || dst == "" {
		return "", "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if !filepath.IsAbs(src) {
		return "", "", fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, src)
	}
	if !filepath.IsAbs(dst) {
		return "", "", fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, dst)
	}

	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	if src == dst {
		return "", "", fmt.Errorf("%w: %s", ErrSamePath, src)
	}
	if isDescendant(src, dst) {
		return "", "", fmt.Errorf("%w: %s is inside %s", ErrDestinationInsideSource, dst, src)
	}
	return src, dst, nil
}

// isDescendant reports whether child is a strict descendant of parent.
// Both paths must be cleaned.
func isDescendant(parent, child string) bool {
	if parent == string(filepath.Separator) {
		return child != parent
	}
	return strings.HasPrefix(child, parent+string(filepath.Separator))
}
