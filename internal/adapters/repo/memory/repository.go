package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vouchsec/vouch/internal/domain"
	"github.com/vouchsec/vouch/internal/ports"
)

// Repository is the non-durable session store. Running without a configured
// file store is a supported mode, not an error.
type Repository struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]domain.Session
}

var _ ports.SessionRepository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{sessions: map[domain.SessionID]domain.Session{}}
}

func (r *Repository) GetByID(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]domain.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, cloneSession(session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (r *Repository) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = cloneSession(session)
	return nil
}

// cloneSession copies the slices so callers never alias stored state.
func cloneSession(session domain.Session) domain.Session {
	cloned := session
	cloned.Turns = make([]domain.Turn, len(session.Turns))
	copy(cloned.Turns, session.Turns)
	for i, turn := range cloned.Turns {
		if turn.Decision != nil {
			decision := *turn.Decision
			cloned.Turns[i].Decision = &decision
		}
	}
	cloned.Environment = make([]domain.EnvironmentEvent, len(session.Environment))
	copy(cloned.Environment, session.Environment)
	return cloned
}
