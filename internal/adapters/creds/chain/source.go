package chain

import (
	"context"
	"errors"
	"fmt"

	envsource "github.com/vouchsec/vouch/internal/adapters/creds/env"
	filesource "github.com/vouchsec/vouch/internal/adapters/creds/file"
	"github.com/vouchsec/vouch/internal/ports"
)

// Source resolves the API key from an ordered pair of sources: environment
// variable first, key file as fallback.
type Source struct {
	primary  ports.CredentialSource
	fallback ports.CredentialSource
}

var _ ports.CredentialSource = (*Source)(nil)

var (
	errNilPrimarySource  = errors.New("primary credential source is nil")
	errNilFallbackSource = errors.New("fallback credential source is nil")
)

func NewSource(primary ports.CredentialSource, fallback ports.CredentialSource) (*Source, error) {
	if primary == nil {
		return nil, errNilPrimarySource
	}
	if fallback == nil {
		return nil, errNilFallbackSource
	}

	return &Source{primary: primary, fallback: fallback}, nil
}

func NewEnvFirstWithFileFallback(variable string, keyFilePath string) (*Source, error) {
	return NewSource(envsource.NewSource(variable), filesource.NewSource(keyFilePath))
}

func (s *Source) APIKey(ctx context.Context) (string, error) {
	key, err := s.primary.APIKey(ctx)
	if err == nil {
		return key, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackKey, fallbackErr := s.fallback.APIKey(ctx)
	if fallbackErr == nil {
		return fallbackKey, nil
	}

	return "", fmt.Errorf("primary credential source failed: %w; fallback credential source failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
