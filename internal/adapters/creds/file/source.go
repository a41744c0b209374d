package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vouchsec/vouch/internal/ports"
)

var ErrKeyFileNotFound = errors.New("api key file not found")

// Source reads the provider API key from a file, typically a mounted secret.
type Source struct {
	Path string
}

var _ ports.CredentialSource = (*Source)(nil)

func NewSource(path string) *Source {
	return &Source{Path: filepath.Clean(path)}
}

func (s *Source) APIKey(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if s.Path == "" || s.Path == "." {
		return "", errors.New("api key file path is empty")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrKeyFileNotFound, s.Path)
		}
		return "", fmt.Errorf("read api key file: %w", err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("api key file %s is empty", s.Path)
	}

	return key, nil
}
