package ingest

import (
	"fmt"
	"path"
	"strings"
)

// NormalizePath converts a watcher-reported path into the stored form:
// forward slashes, no leading "./", no empty or dot segments. Absolute paths
// and paths escaping the storage root are rejected.
func NormalizePath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
	if p == "" {
		return "", ErrInvalidPath.WithDetails("path is empty")
	}
	if strings.HasPrefix(p, "/") || hasDriveLetter(p) {
		return "", ErrInvalidPath.WithDetails(fmt.Sprintf("%q is absolute", p))
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath.WithDetails(fmt.Sprintf("%q leaves the storage root", p))
		}
	}
	clean := path.Clean(p)
	if clean == "." {
		return "", ErrInvalidPath.WithDetails(fmt.Sprintf("%q names no file", p))
	}
	return clean, nil
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
