package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vouchsec/vouch/internal/version"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeKeyFixture(home))

	stdout, stderr, err := runVouch(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, version.Version, strings.TrimSpace(stdout))

	stdout, stderr, err = runVouch(t, binaryPath, home, "sessions", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Equal(t, "[]", strings.TrimSpace(stdout))
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "vouch-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/vouch")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build vouch binary: %s", string(output))
	return binaryPath
}

func runVouch(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home, "VOUCH_API_KEY=")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeKeyFixture(home string) error {
	configDir := filepath.Join(home, ".vouch")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "api_key"), []byte("test-key\n"), 0o600)
}
