package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vouchsec/vouch/internal/domain"
)

// Model output is rarely a clean JSON document: it tends to arrive wrapped in
// code fences or surrounded by prose. The parser trims to the outermost brace
// pair and decodes that substring. Anything deeper than this heuristic is
// reported, never guessed at.

func extractRecord(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w: no JSON object in output", domain.ErrParse)
	}
	return raw[start : end+1], nil
}

type decisionRecord struct {
	Message *string `json:"message"`
	Status  *string `json:"status"`
	Risk    bool    `json:"risk"`
}

// ParseDecision coerces raw model text into a decision. A decision must carry
// a next-prompt string and a valid status enum; anything less is a parse
// failure the caller recovers from.
func ParseDecision(raw string) (domain.Decision, error) {
	record, err := extractRecord(raw)
	if err != nil {
		return domain.Decision{}, err
	}

	var decoded decisionRecord
	if err := json.Unmarshal([]byte(record), &decoded); err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	if decoded.Message == nil || *decoded.Message == "" {
		return domain.Decision{}, fmt.Errorf("%w: decision missing message", domain.ErrParse)
	}
	if decoded.Status == nil {
		return domain.Decision{}, fmt.Errorf("%w: decision missing status", domain.ErrParse)
	}

	status := domain.Status(strings.ToUpper(strings.TrimSpace(*decoded.Status)))
	if !status.Valid() {
		return domain.Decision{}, fmt.Errorf("%w: unknown status %q", domain.ErrParse, *decoded.Status)
	}

	return domain.Decision{
		Message: *decoded.Message,
		Status:  status,
		Risk:    decoded.Risk,
	}, nil
}

type frameRecord struct {
	FaceVisible   bool    `json:"face_visible"`
	CameraBlocked bool    `json:"camera_blocked"`
	Environment   string  `json:"environment"`
	Warning       *string `json:"warning"`
}

// ParseFrameVerdict coerces raw model text into an environment verdict. The
// warning classification must be present (it may be empty, meaning no
// warning).
func ParseFrameVerdict(raw string) (domain.FrameVerdict, error) {
	record, err := extractRecord(raw)
	if err != nil {
		return domain.FrameVerdict{}, err
	}

	var decoded frameRecord
	if err := json.Unmarshal([]byte(record), &decoded); err != nil {
		return domain.FrameVerdict{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	if decoded.Warning == nil {
		return domain.FrameVerdict{}, fmt.Errorf("%w: verdict missing warning classification", domain.ErrParse)
	}

	return domain.FrameVerdict{
		FaceVisible:   decoded.FaceVisible,
		CameraBlocked: decoded.CameraBlocked,
		Environment:   decoded.Environment,
		Warning:       *decoded.Warning,
	}, nil
}
