package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vouchsec/vouch/internal/domain"
	"github.com/vouchsec/vouch/internal/ports"
)

const maxGenerateRespBytes = 4 << 20

// replyContract is appended to the final respondent part of every turn. The
// interview script already demands JSON output; repeating the contract next
// to the newest input keeps long conversations from drifting into prose.
const replyContract = "\n\nReply with exactly one JSON object of the form " +
	`{"message":"...","status":"ACTIVE"|"APPROVED"|"REJECTED","risk":true|false}` +
	" and nothing else. No code fences, no commentary."

const frameContract = "\n\nReply with exactly one JSON object of the form " +
	`{"face_visible":true|false,"camera_blocked":true|false,"environment":"...","warning":"..."}` +
	" and nothing else. Use an empty warning string when nothing is wrong."

// frameInstructions is the fixed instruction payload for single-frame
// environment checks. It shares the gateway and parser with the interview but
// carries no conversation history.
const frameInstructions = "You review a single webcam frame captured during a remote " +
	"identity interview. Report whether a human face is clearly visible, whether the " +
	"camera appears covered or blocked, and classify the surroundings (home, office, " +
	"vehicle, public place, call-center, unknown). If anything suggests a coached or " +
	"supervised respondent, an additional person, or a screen being read from, say so " +
	"in the warning."

type API struct {
	BaseURL    string
	ModelsPath string
}

// Gateway sends interview turns to the upstream provider and coerces the
// reply into a structured decision. It classifies upstream failures but never
// retries; retry and fallback policy belong to the caller.
type Gateway struct {
	API            API
	Resolver       *Resolver
	Creds          ports.CredentialSource
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	// DefaultModel is used when discovery fails, keeping the interview
	// available in degraded form.
	DefaultModel string
	Logger       zerolog.Logger
}

var _ ports.InterviewModel = (*Gateway)(nil)

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Gateway) Converse(ctx context.Context, turns []domain.Turn) (domain.Decision, error) {
	req := encodeTurns(turns)

	raw, err := g.generate(ctx, req)
	if err != nil {
		return domain.Decision{}, err
	}

	decision, err := ParseDecision(raw)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	return decision, nil
}

func (g *Gateway) Inspect(ctx context.Context, image []byte, mimeType string) (domain.FrameVerdict, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	req := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: frameInstructions}}},
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: "Assess this frame." + frameContract},
			},
		}},
	}

	raw, err := g.generate(ctx, req)
	if err != nil {
		return domain.FrameVerdict{}, err
	}

	verdict, err := ParseFrameVerdict(raw)
	if err != nil {
		return domain.FrameVerdict{}, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	return verdict, nil
}

// encodeTurns maps the typed history onto provider roles: instruction turns
// become the system instruction, investigator turns the "model" side,
// respondent turns the "user" side. The reply contract rides on the last
// respondent part.
func encodeTurns(turns []domain.Turn) generateRequest {
	var req generateRequest
	lastRespondent := -1
	for i, turn := range turns {
		if turn.Role == domain.RoleRespondent {
			lastRespondent = i
		}
	}

	for i, turn := range turns {
		if turn.Kind == domain.TurnInstruction {
			if req.SystemInstruction == nil {
				req.SystemInstruction = &content{}
			}
			req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, part{Text: turn.Text})
			continue
		}

		role := "model"
		text := turn.Text
		if turn.Role == domain.RoleRespondent {
			role = "user"
			if i == lastRespondent {
				text += replyContract
			}
		}
		req.Contents = append(req.Contents, content{Role: role, Parts: []part{{Text: text}}})
	}

	return req
}

func (g *Gateway) generate(ctx context.Context, payload generateRequest) (string, error) {
	model, err := g.Resolver.Resolve(ctx)
	if err != nil {
		if g.DefaultModel == "" {
			return "", fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
		}
		g.Logger.Warn().Err(err).Str("fallback_model", g.DefaultModel).
			Msg("model discovery failed, using fallback model")
		model = g.DefaultModel
	}

	endpoint, err := buildAPIURL(g.API.BaseURL, "/v1beta/models/"+model+":generateContent")
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	requestCtx, cancel := requestContext(ctx, g.RequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	apiKey, err := g.Creds.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve api key: %w", err)
	}
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := httpClient(g.HTTPClient).Do(req)
	if err != nil {
		// Timeouts and transport errors are indistinguishable from an
		// unreachable upstream for policy purposes.
		return "", fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: status 429", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		// The cached model no longer exists upstream. Drop the cache so the
		// next call re-discovers.
		g.Resolver.Invalidate()
		g.Logger.Warn().Str("model", model).Msg("model vanished upstream, cache invalidated")
		return "", fmt.Errorf("%w: model %s not found", domain.ErrUnreachable, model)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: status %d", domain.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return "", fmt.Errorf("%w: status %d", domain.ErrUnreachable, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxGenerateRespBytes)).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode generate response: %v", domain.ErrMalformed, err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidate list", domain.ErrMalformed)
	}

	var text string
	for _, p := range decoded.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, nil
}
