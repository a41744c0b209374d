package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vouchsec/vouch/internal/domain"
	"github.com/vouchsec/vouch/internal/ports"
)

const (
	defaultModelsPath     = "/v1beta/models"
	generateCapability    = "generateContent"
	maxDiscoveryRespBytes = 4 << 20
)

// preferenceRule matches a class of model identifiers. Rules are applied in
// order: a candidate matching an earlier rule outranks one matching only a
// later rule, and the provider's listing order breaks ties.
type preferenceRule struct {
	label string
	match func(id string) bool
}

var modelPreferences = []preferenceRule{
	{label: "fast", match: func(id string) bool {
		return strings.Contains(id, "flash") || strings.Contains(id, "lite")
	}},
	{label: "general", match: func(id string) bool {
		return !strings.Contains(id, "preview") && !strings.Contains(id, "exp")
	}},
}

func rankModel(id string) int {
	for i, rule := range modelPreferences {
		if rule.match(id) {
			// Preview/experimental variants never outrank a stable one even
			// when a rule matches them.
			if i == 0 && (strings.Contains(id, "preview") || strings.Contains(id, "exp")) {
				continue
			}
			return i
		}
	}
	return len(modelPreferences)
}

// Resolver discovers which upstream generation endpoint to call and caches
// the answer for the process lifetime. Invalidate drops the cache so the next
// Resolve performs a fresh discovery; this is how the system heals when the
// provider retires the cached model.
type Resolver struct {
	API            API
	Creds          ports.CredentialSource
	HTTPClient     *http.Client
	RequestTimeout time.Duration

	cached atomic.Pointer[string]
}

type modelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if cached := r.cached.Load(); cached != nil {
		return *cached, nil
	}

	id, err := r.discover(ctx)
	if err != nil {
		return "", err
	}

	// Last writer wins: concurrent discoveries are idempotent.
	r.cached.Store(&id)
	return id, nil
}

func (r *Resolver) Invalidate() {
	r.cached.Store(nil)
}

func (r *Resolver) discover(ctx context.Context) (string, error) {
	endpoint, err := buildAPIURL(r.API.BaseURL, r.modelsPath())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDiscoveryUnreachable, err)
	}

	requestCtx, cancel := requestContext(ctx, r.RequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create discovery request: %w", err)
	}

	apiKey, err := r.Creds.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve api key: %w", err)
	}
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := httpClient(r.HTTPClient).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDiscoveryUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: discovery status %d", domain.ErrDiscoveryUnreachable, resp.StatusCode)
	}

	var payload modelsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDiscoveryRespBytes)).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode discovery response: %v", domain.ErrDiscoveryUnreachable, err)
	}

	best := ""
	bestRank := len(modelPreferences) + 1
	for _, model := range payload.Models {
		if !supportsGeneration(model.SupportedGenerationMethods) {
			continue
		}
		id := strings.TrimPrefix(model.Name, "models/")
		if rank := rankModel(id); rank < bestRank {
			best = id
			bestRank = rank
		}
	}

	if best == "" {
		return "", domain.ErrNoCompatibleModel
	}
	return best, nil
}

func (r *Resolver) modelsPath() string {
	if r.API.ModelsPath != "" {
		return r.API.ModelsPath
	}
	return defaultModelsPath
}

func supportsGeneration(methods []string) bool {
	for _, method := range methods {
		if method == generateCapability {
			return true
		}
	}
	return false
}

func httpClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return http.DefaultClient
}

func requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
