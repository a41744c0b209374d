package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vouchsec/vouch/internal/ports"
)

var ErrKeyNotSet = errors.New("api key environment variable not set")

// Source reads the provider API key from an environment variable.
type Source struct {
	Variable string
}

var _ ports.CredentialSource = (*Source)(nil)

func NewSource(variable string) *Source {
	return &Source{Variable: variable}
}

func (s *Source) APIKey(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if s.Variable == "" {
		return "", errors.New("environment variable name is empty")
	}

	value := strings.TrimSpace(os.Getenv(s.Variable))
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrKeyNotSet, s.Variable)
	}

	return value, nil
}
