package ports

import "context"

// CredentialSource resolves the upstream provider API key.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}
