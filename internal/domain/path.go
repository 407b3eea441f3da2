package domain

import (
	"fmt"
	"path"
	"strings"
)

// DefaultSavePath is used when the user leaves the location empty.
const DefaultSavePath = "download/image_01.png"

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// NormalizeSavePath cleans a user supplied location. Absolute paths and
// parent traversal are rejected; a missing image extension gets ".png".
func NormalizeSavePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		p = DefaultSavePath
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, p)
	}

	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q leaves the output directory", ErrInvalidPath, p)
	}

	ext := strings.ToLower(path.Ext(clean))
	known := false
	for _, e := range imageExtensions {
		if ext == e {
			known = true
			break
		}
	}
	if !known {
		clean += ".png"
	}
	return clean, nil
}
