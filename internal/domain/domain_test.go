package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, StatusActive.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, Status("UNSURE").Terminal())
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusApproved.Valid())
	assert.True(t, StatusRejected.Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("active").Valid())
}

func TestFrameVerdictEventKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		verdict FrameVerdict
		want    EnvironmentEventKind
	}{
		{"no warning", FrameVerdict{FaceVisible: true}, ""},
		{"camera blocked wins", FrameVerdict{CameraBlocked: true, Warning: "covered"}, EnvironmentCameraBlocked},
		{"face missing", FrameVerdict{FaceVisible: false, Warning: "no face"}, EnvironmentFaceMissing},
		{"suspicious environment", FrameVerdict{FaceVisible: true, Environment: "street", Warning: "odd"}, EnvironmentSuspicious},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.verdict.EventKind())
		})
	}
}
