package toml

import (
	"fmt"
	"time"

	"github.com/vouchsec/vouch/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported sessions schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	ID           string              `toml:"id"`
	Language     string              `toml:"language"`
	Status       string              `toml:"status"`
	RiskFlag     bool                `toml:"risk_flag"`
	RecordingRef string              `toml:"recording_ref,omitempty"`
	CreatedAt    string              `toml:"created_at"`
	UpdatedAt    string              `toml:"updated_at"`
	Turns        []turnSchema        `toml:"turns"`
	Environment  []environmentSchema `toml:"environment,omitempty"`
}

type turnSchema struct {
	Role     string          `toml:"role"`
	Kind     string          `toml:"kind"`
	Text     string          `toml:"text"`
	Decision *decisionSchema `toml:"decision,omitempty"`
	At       string          `toml:"at"`
}

type decisionSchema struct {
	Message string `toml:"message"`
	Status  string `toml:"status"`
	Risk    bool   `toml:"risk"`
}

type environmentSchema struct {
	At   string `toml:"at"`
	Kind string `toml:"kind"`
	Note string `toml:"note"`
}

func toSchema(session domain.Session) sessionSchema {
	turns := make([]turnSchema, 0, len(session.Turns))
	for _, turn := range session.Turns {
		encoded := turnSchema{
			Role: string(turn.Role),
			Kind: string(turn.Kind),
			Text: turn.Text,
			At:   formatTime(turn.At),
		}
		if turn.Decision != nil {
			encoded.Decision = &decisionSchema{
				Message: turn.Decision.Message,
				Status:  string(turn.Decision.Status),
				Risk:    turn.Decision.Risk,
			}
		}
		turns = append(turns, encoded)
	}

	environment := make([]environmentSchema, 0, len(session.Environment))
	for _, event := range session.Environment {
		environment = append(environment, environmentSchema{
			At:   formatTime(event.At),
			Kind: string(event.Kind),
			Note: event.Note,
		})
	}

	return sessionSchema{
		ID:           string(session.ID),
		Language:     session.Language,
		Status:       string(session.Status),
		RiskFlag:     session.RiskFlag,
		RecordingRef: session.RecordingRef,
		CreatedAt:    formatTime(session.CreatedAt),
		UpdatedAt:    formatTime(session.UpdatedAt),
		Turns:        turns,
		Environment:  environment,
	}
}

func fromSchema(session sessionSchema) domain.Session {
	turns := make([]domain.Turn, 0, len(session.Turns))
	for _, turn := range session.Turns {
		decoded := domain.Turn{
			Role: domain.Role(turn.Role),
			Kind: domain.TurnKind(turn.Kind),
			Text: turn.Text,
			At:   parseTime(turn.At),
		}
		if turn.Decision != nil {
			decoded.Decision = &domain.Decision{
				Message: turn.Decision.Message,
				Status:  domain.Status(turn.Decision.Status),
				Risk:    turn.Decision.Risk,
			}
		}
		turns = append(turns, decoded)
	}

	environment := make([]domain.EnvironmentEvent, 0, len(session.Environment))
	for _, event := range session.Environment {
		environment = append(environment, domain.EnvironmentEvent{
			At:   parseTime(event.At),
			Kind: domain.EnvironmentEventKind(event.Kind),
			Note: event.Note,
		})
	}

	return domain.Session{
		ID:           domain.SessionID(session.ID),
		Language:     session.Language,
		Status:       domain.Status(session.Status),
		RiskFlag:     session.RiskFlag,
		RecordingRef: session.RecordingRef,
		CreatedAt:    parseTime(session.CreatedAt),
		UpdatedAt:    parseTime(session.UpdatedAt),
		Turns:        turns,
		Environment:  environment,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
