package domain

import "time"

type SessionID string

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether no further interview turns are accepted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusApproved || s == StatusRejected
}

type Role string

const (
	RoleInvestigator Role = "investigator"
	RoleRespondent   Role = "respondent"
)

type TurnKind string

const (
	// TurnInstruction is the fixed interview script seeded at session start.
	TurnInstruction TurnKind = "instruction"
	// TurnPrompt is a question spoken by the investigator.
	TurnPrompt TurnKind = "prompt"
	// TurnUtterance is a respondent answer.
	TurnUtterance TurnKind = "utterance"
	// TurnDecision is a prior model decision kept in structured form.
	TurnDecision TurnKind = "decision"
)

// Turn is one role-tagged entry of a session's conversation history.
// Insertion order is the model's context window.
type Turn struct {
	Role     Role
	Kind     TurnKind
	Text     string
	Decision *Decision
	At       time.Time
}

type EnvironmentEventKind string

const (
	EnvironmentFaceMissing   EnvironmentEventKind = "face_missing"
	EnvironmentCameraBlocked EnvironmentEventKind = "camera_blocked"
	EnvironmentSuspicious    EnvironmentEventKind = "suspicious_environment"
)

type EnvironmentEvent struct {
	At   time.Time
	Kind EnvironmentEventKind
	Note string
}

// Session is one bounded interview. Language is fixed at creation and never
// altered by a turn result, regardless of what the model returns.
type Session struct {
	ID           SessionID
	Language     string
	Turns        []Turn
	Status       Status
	RiskFlag     bool
	Environment  []EnvironmentEvent
	RecordingRef string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
