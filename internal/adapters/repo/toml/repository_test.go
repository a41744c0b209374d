package toml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchsec/vouch/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sessions.toml")
	cfg := viper.New()
	cfg.Set(sessionsPathKey, path)

	repo, err := NewRepository(cfg)
	require.NoError(t, err)
	return repo, path
}

func sampleSession(id domain.SessionID) domain.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.Session{
		ID:       id,
		Language: "en",
		Status:   domain.StatusActive,
		Turns: []domain.Turn{
			{Role: domain.RoleInvestigator, Kind: domain.TurnInstruction, Text: "script", At: now},
			{Role: domain.RoleInvestigator, Kind: domain.TurnPrompt, Text: "Why?", At: now},
			{Role: domain.RoleRespondent, Kind: domain.TurnUtterance, Text: "Rent.", At: now},
			{
				Role: domain.RoleInvestigator,
				Kind: domain.TurnDecision,
				At:   now,
				Decision: &domain.Decision{
					Message: "Thank you, you are verified.",
					Status:  domain.StatusApproved,
				},
			},
		},
		Environment: []domain.EnvironmentEvent{
			{At: now, Kind: domain.EnvironmentFaceMissing, Note: "no face in frame"},
		},
		RecordingRef: "s3://recordings/abc",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestSaveRoundTripsFullSession(t *testing.T) {
	repo, _ := newTestRepository(t)
	session := sampleSession("s-1")

	require.NoError(t, repo.Save(context.Background(), session))

	got, err := repo.GetByID(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, session.Language, got.Language)
	assert.Equal(t, session.Status, got.Status)
	assert.Equal(t, session.RecordingRef, got.RecordingRef)
	require.Len(t, got.Turns, len(session.Turns))
	for i := range session.Turns {
		assert.Equal(t, session.Turns[i].Role, got.Turns[i].Role)
		assert.Equal(t, session.Turns[i].Kind, got.Turns[i].Kind)
		assert.Equal(t, session.Turns[i].Text, got.Turns[i].Text)
		assert.True(t, session.Turns[i].At.Equal(got.Turns[i].At))
	}
	require.NotNil(t, got.Turns[3].Decision)
	assert.Equal(t, domain.StatusApproved, got.Turns[3].Decision.Status)
	require.Len(t, got.Environment, 1)
	assert.Equal(t, domain.EnvironmentFaceMissing, got.Environment[0].Kind)
}

func TestSaveUpdatesExistingEntry(t *testing.T) {
	repo, _ := newTestRepository(t)
	session := sampleSession("s-1")
	require.NoError(t, repo.Save(context.Background(), session))

	session.Status = domain.StatusRejected
	require.NoError(t, repo.Save(context.Background(), session))

	sessions, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.StatusRejected, sessions[0].Status)
}

func TestGetByIDUnknown(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestListOnMissingFileIsEmpty(t *testing.T) {
	repo, _ := newTestRepository(t)

	sessions, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSaveRestrictsFilePermissions(t *testing.T) {
	repo, path := newTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), sampleSession("s-1")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(sessionsFileMode), info.Mode().Perm())
}

func TestSaveLeavesNoTempFilesBehind(t *testing.T) {
	repo, path := newTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), sampleSession("s-1")))
	require.NoError(t, repo.Save(context.Background(), sampleSession("s-2")))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestReadRejectsUnknownSchemaVersion(t *testing.T) {
	repo, path := newTestRepository(t)
	require.NoError(t, os.WriteFile(path, []byte("version = 99\n"), 0o600))

	_, err := repo.List(context.Background())
	require.Error(t, err)
}
