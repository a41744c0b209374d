package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vouchsec/vouch/internal/domain"
	"github.com/vouchsec/vouch/internal/ports"
)

// VisionService runs the advisory single-frame environment check. It never
// blocks or gates the interview: any failure yields no verdict, and a warning
// only lands in the session's environment log, never in its status.
type VisionService struct {
	repo   ports.SessionRepository
	model  ports.InterviewModel
	clock  ports.Clock
	logger zerolog.Logger
}

func NewVisionService(repo ports.SessionRepository, model ports.InterviewModel, clock ports.Clock, logger zerolog.Logger) *VisionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &VisionService{
		repo:   repo,
		model:  model,
		clock:  clock,
		logger: logger,
	}
}

// Analyze returns the frame verdict, or nil when no verdict could be
// obtained.
func (v *VisionService) Analyze(ctx context.Context, id domain.SessionID, image []byte, mimeType string) *domain.FrameVerdict {
	verdict, err := v.model.Inspect(ctx, image, mimeType)
	if err != nil {
		v.logger.Warn().Err(err).Str("session_id", string(id)).
			Msg("frame inspection failed, no verdict")
		return nil
	}

	if verdict.Warning != "" {
		v.recordWarning(ctx, id, verdict)
	}

	return &verdict
}

func (v *VisionService) recordWarning(ctx context.Context, id domain.SessionID, verdict domain.FrameVerdict) {
	mu := lockForSession(id)
	mu.Lock()
	defer mu.Unlock()

	session, err := v.repo.GetByID(ctx, id)
	if err != nil {
		v.logger.Warn().Err(err).Str("session_id", string(id)).
			Msg("cannot attach environment warning to session")
		return
	}

	session.Environment = append(session.Environment, domain.EnvironmentEvent{
		At:   v.clock.Now(),
		Kind: verdict.EventKind(),
		Note: verdict.Warning,
	})
	session.UpdatedAt = v.clock.Now()

	if err := v.repo.Save(ctx, session); err != nil {
		v.logger.Warn().Err(err).Str("session_id", string(id)).
			Msg("cannot persist environment warning")
	}
}
