package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchsec/vouch/internal/domain"
)

type staticCreds string

func (s staticCreds) APIKey(context.Context) (string, error) {
	return string(s), nil
}

func discoveryServer(t *testing.T, calls *atomic.Int64, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolvePrefersFastVariants(t *testing.T) {
	t.Parallel()

	server := discoveryServer(t, nil, `{"models":[
		{"name":"models/gemini-2.0-pro","supportedGenerationMethods":["generateContent"]},
		{"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent"]},
		{"name":"models/text-embedding-004","supportedGenerationMethods":["embedContent"]}
	]}`)

	resolver := &Resolver{
		API:        API{BaseURL: server.URL},
		Creds:      staticCreds("test-key"),
		HTTPClient: server.Client(),
	}

	id, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", id)
}

func TestResolveDemotesPreviewVariants(t *testing.T) {
	t.Parallel()

	server := discoveryServer(t, nil, `{"models":[
		{"name":"models/gemini-3.0-flash-preview","supportedGenerationMethods":["generateContent"]},
		{"name":"models/gemini-2.0-pro","supportedGenerationMethods":["generateContent"]}
	]}`)

	resolver := &Resolver{
		API:        API{BaseURL: server.URL},
		Creds:      staticCreds("test-key"),
		HTTPClient: server.Client(),
	}

	id, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-pro", id)
}

func TestResolveBreaksTiesByListingOrder(t *testing.T) {
	t.Parallel()

	server := discoveryServer(t, nil, `{"models":[
		{"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent"]},
		{"name":"models/gemini-2.5-flash","supportedGenerationMethods":["generateContent"]}
	]}`)

	resolver := &Resolver{
		API:        API{BaseURL: server.URL},
		Creds:      staticCreds("test-key"),
		HTTPClient: server.Client(),
	}

	id, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", id)
}

func TestResolveCachesUntilInvalidated(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := discoveryServer(t, &calls, `{"models":[
		{"name":"models/gemini-2.0-flash","supportedGenerationMethods":["generateContent"]}
	]}`)

	resolver := &Resolver{
		API:        API{BaseURL: server.URL},
		Creds:      staticCreds("test-key"),
		HTTPClient: server.Client(),
	}

	_, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())

	resolver.Invalidate()

	_, err = resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestResolveFailsWhenNoCandidateSupportsGeneration(t *testing.T) {
	t.Parallel()

	server := discoveryServer(t, nil, `{"models":[
		{"name":"models/text-embedding-004","supportedGenerationMethods":["embedContent"]}
	]}`)

	resolver := &Resolver{
		API:        API{BaseURL: server.URL},
		Creds:      staticCreds("test-key"),
		HTTPClient: server.Client(),
	}

	_, err := resolver.Resolve(context.Background())
	require.ErrorIs(t, err, domain.ErrNoCompatibleModel)
}

func TestResolveReportsDiscoveryUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	resolver := &Resolver{
		API:        API{BaseURL: server.URL},
		Creds:      staticCreds("test-key"),
		HTTPClient: server.Client(),
	}

	_, err := resolver.Resolve(context.Background())
	require.ErrorIs(t, err, domain.ErrDiscoveryUnreachable)
}
