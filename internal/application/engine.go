package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vouchsec/vouch/internal/domain"
	"github.com/vouchsec/vouch/internal/ports"
)

// Turns within one session must be strictly ordered: history append order is
// the conversation. The registry hands out one mutex per session id so
// concurrent Process calls on the same session serialize while distinct
// sessions proceed in parallel. Entries are never evicted: one mutex lives per
// session id seen, for the process lifetime.
var (
	lockRegistryMu sync.Mutex
	sessionLockMap = map[domain.SessionID]*sync.Mutex{}
)

func lockForSession(id domain.SessionID) *sync.Mutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := sessionLockMap[id]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	sessionLockMap[id] = mu
	return mu
}

// Engine drives the interview protocol: deterministic start, one model call
// per respondent utterance, monotonic terminal status, and a safe fallback
// decision whenever the upstream fails. Infrastructure failures are never
// translated into a verdict in either direction.
type Engine struct {
	repo   ports.SessionRepository
	model  ports.InterviewModel
	clock  ports.Clock
	logger zerolog.Logger
}

func NewEngine(repo ports.SessionRepository, model ports.InterviewModel, clock ports.Clock, logger zerolog.Logger) *Engine {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Engine{
		repo:   repo,
		model:  model,
		clock:  clock,
		logger: logger,
	}
}

// Start creates a session and returns it with the opening prompt as the last
// turn. The opening question is fixed per locale and never model-generated,
// so an interview always starts even when the upstream is down.
func (e *Engine) Start(ctx context.Context, language string) (domain.Session, error) {
	now := e.clock.Now()
	session := domain.Session{
		ID:        domain.SessionID(uuid.New().String()),
		Language:  normalizeLanguage(language),
		Status:    domain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		Turns: []domain.Turn{
			{Role: domain.RoleInvestigator, Kind: domain.TurnInstruction, Text: scriptFor(language), At: now},
			{Role: domain.RoleInvestigator, Kind: domain.TurnPrompt, Text: openingPromptFor(language), At: now},
		},
	}

	if err := e.repo.Save(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("save new session: %w", err)
	}

	return session, nil
}

// OpeningPrompt returns the text the caller plays back after Start.
func OpeningPrompt(session domain.Session) string {
	for i := len(session.Turns) - 1; i >= 0; i-- {
		if session.Turns[i].Kind == domain.TurnPrompt {
			return session.Turns[i].Text
		}
	}
	return ""
}

// Process records a respondent utterance, consults the model, and applies the
// resulting decision to the session. Exactly two turns are appended per call.
func (e *Engine) Process(ctx context.Context, id domain.SessionID, utterance string) (domain.Decision, error) {
	mu := lockForSession(id)
	mu.Lock()
	defer mu.Unlock()

	session, err := e.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Decision{}, domain.ErrSessionNotFound
		}
		return domain.Decision{}, fmt.Errorf("get session: %w", err)
	}
	if session.Status.Terminal() {
		return domain.Decision{}, domain.ErrSessionTerminal
	}

	now := e.clock.Now()
	session.Turns = append(session.Turns, domain.Turn{
		Role: domain.RoleRespondent,
		Kind: domain.TurnUtterance,
		Text: utterance,
		At:   now,
	})

	decision, err := e.model.Converse(ctx, session.Turns)
	if err != nil {
		// Upstream trouble must look like a mishearing, never like a
		// verdict. Status stays ACTIVE and the risk flag is untouched.
		e.logger.Warn().Err(err).Str("session_id", string(id)).
			Msg("model call failed, returning fallback decision")
		decision = domain.Decision{
			Message: fallbackPromptFor(session.Language),
			Status:  domain.StatusActive,
			Risk:    session.RiskFlag,
		}
	} else if !decision.Status.Valid() {
		decision.Status = domain.StatusActive
	}

	now = e.clock.Now()
	session.Turns = append(session.Turns, domain.Turn{
		Role:     domain.RoleInvestigator,
		Kind:     domain.TurnDecision,
		Text:     decision.Message,
		Decision: &decision,
		At:       now,
	})
	session.Status = decision.Status
	session.RiskFlag = decision.Risk
	session.UpdatedAt = now

	if err := e.repo.Save(ctx, session); err != nil {
		return domain.Decision{}, fmt.Errorf("save session turn: %w", err)
	}

	return decision, nil
}

// Get returns a session for read-only inspection. Terminal sessions remain
// inspectable.
func (e *Engine) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	session, err := e.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (e *Engine) List(ctx context.Context) ([]domain.Session, error) {
	sessions, err := e.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// AttachRecording stores a reference to a completed recording. This is a side
// channel: it works for terminal sessions too and never touches the verdict.
func (e *Engine) AttachRecording(ctx context.Context, id domain.SessionID, ref string) error {
	mu := lockForSession(id)
	mu.Lock()
	defer mu.Unlock()

	session, err := e.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("get session: %w", err)
	}

	session.RecordingRef = ref
	session.UpdatedAt = e.clock.Now()

	if err := e.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("save recording reference: %w", err)
	}
	return nil
}
