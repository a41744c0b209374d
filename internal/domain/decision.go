package domain

// Decision is the structured result of one model turn: the next question to
// speak, the interview status after this turn, and an advisory risk flag.
type Decision struct {
	Message string `json:"message"`
	Status  Status `json:"status"`
	Risk    bool   `json:"risk"`
}

// FrameVerdict is the result of a single-frame environment check. It is
// advisory only and never gates the interview.
type FrameVerdict struct {
	FaceVisible   bool   `json:"face_visible"`
	CameraBlocked bool   `json:"camera_blocked"`
	Environment   string `json:"environment"`
	Warning       string `json:"warning"`
}

// EventKind maps a verdict to the event kind recorded in the
// session's environment log. Returns "" when the verdict carries no warning.
func (v FrameVerdict) EventKind() EnvironmentEventKind {
	switch {
	case v.Warning == "":
		return ""
	case v.CameraBlocked:
		return EnvironmentCameraBlocked
	case !v.FaceVisible:
		return EnvironmentFaceMissing
	default:
		return EnvironmentSuspicious
	}
}
