package github

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AvatarStore writes fetched avatar images to disk. Files are named
// <username>.<subtype>, the subtype taken from the image content type.
type AvatarStore struct {
	dir string
}

func NewAvatarStore(dir string) *AvatarStore {
	return &AvatarStore{dir: dir}
}

// Save writes the avatar bytes and returns the stored file name.
func (s *AvatarStore) Save(username, contentType string, body []byte) (string, error) {
	slash := strings.Index(contentType, "/")
	if slash < 0 {
		return "", fmt.Errorf("invalid content-type %q", contentType)
	}
	subtype := contentType[slash+1:]
	if semi := strings.Index(subtype, ";"); semi >= 0 {
		subtype = strings.TrimSpace(subtype[:semi])
	}
	if subtype == "" {
		return "", fmt.Errorf("invalid content-type %q", contentType)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}

	name := username + "." + subtype
	if err := os.WriteFile(filepath.Join(s.dir, name), body, 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return name, nil
}

// Find locates a stored avatar by username prefix, whatever its
// image subtype turned out to be.
func (s *AvatarStore) Find(username string) (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("read avatar dir: %w", err)
	}
	prefix := username + "."
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		return filepath.Join(s.dir, entry.Name()), nil
	}
	return "", fmt.Errorf("avatar for %q not found", username)
}
