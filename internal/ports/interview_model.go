package ports

import (
	"context"

	"github.com/vouchsec/vouch/internal/domain"
)

// InterviewModel is the upstream generative model the interview runs against.
// Converse failures are classified into the domain sentinels (ErrRateLimited,
// ErrUnreachable, ErrUnauthorized, ErrMalformed); callers decide recovery.
type InterviewModel interface {
	// Converse sends the accumulated history plus the newest respondent
	// utterance and returns the model's structured decision.
	Converse(ctx context.Context, turns []domain.Turn) (domain.Decision, error)

	// Inspect submits a single frame with a fixed instruction set and returns
	// an environment verdict. No conversation history is involved.
	Inspect(ctx context.Context, image []byte, mimeType string) (domain.FrameVerdict, error)
}
