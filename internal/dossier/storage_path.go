package dossier

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidLink is returned when a document link cannot be mapped to a
// stored object.
var ErrInvalidLink = errors.New("invalid document link")

// StoragePath derives the object path inside a bucket from a public document
// URL. Files are stored as "<folder>/<file>", so the path is the last two
// segments of the URL path.
func StoragePath(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-1] == "" || segments[len(segments)-2] == "" {
		return "", fmt.Errorf("%w: %q has no folder/file path", ErrInvalidLink, link)
	}

	return strings.Join(segments[len(segments)-2:], "/"), nil
}
