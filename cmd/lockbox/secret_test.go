package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func init() {
	keyring.MockInit()
}

// run executes the CLI against the mock keyring and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	base := []string{
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--backend", "keyring",
		"--namespace", "com.lockbox.clitest",
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(base, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLISecretLifecycle(t *testing.T) {
	out, err := run(t, "set", "db/password", "hunter2", "--accessibility", "after-first-unlock")
	require.NoError(t, err)
	assert.Contains(t, out, `Secret "db/password" stored`)

	out, err = run(t, "get", "db/password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2\n", out)

	out, err = run(t, "has", "db/password")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = run(t, "access", "db/password")
	require.NoError(t, err)
	assert.Equal(t, "after-first-unlock\n", out)

	_, err = run(t, "rm", "db/password")
	require.NoError(t, err)

	out, err = run(t, "has", "db/password")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	_, err = run(t, "get", "db/password")
	assert.ErrorIs(t, err, errSecretMissing)
}

func TestCLISetJSON(t *testing.T) {
	_, err := run(t, "set", "--json", "api/creds", `{"user":"svc","token":"abc"}`)
	require.NoError(t, err)
	setRawJSON = false

	out, err := run(t, "get", "api/creds")
	require.NoError(t, err)
	assert.Contains(t, out, `"user": "svc"`)

	_, err = run(t, "set", "--json", "api/bad", `{not json`)
	assert.Error(t, err)
	setRawJSON = false
}

func TestCLIClearRequiresConfirmation(t *testing.T) {
	_, err := run(t, "set", "a", "1")
	require.NoError(t, err)
	_, err = run(t, "set", "b", "2")
	require.NoError(t, err)

	_, err = run(t, "clear")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "--yes"))

	_, err = run(t, "clear", "--yes")
	require.NoError(t, err)
	clearConfirmed = false

	out, err := run(t, "has", "a")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestCLIRejectsUnknownBackend(t *testing.T) {
	_, err := run(t, "has", "k", "--backend", "vault")
	assert.Error(t, err)
}

func TestCLIReportsEveryInvalidFlag(t *testing.T) {
	_, err := run(t, "has", "k", "--backend", "vault", "--namespace", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "namespace must not be empty")
	assert.Contains(t, err.Error(), "backend must be one of")
}
