package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CODEGEN_TEST_ENV_VALUE=from-file\n"), 0o600))
	t.Setenv("CODEGEN_TEST_ENV_VALUE", "")
	require.NoError(t, os.Unsetenv("CODEGEN_TEST_ENV_VALUE"))

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("CODEGEN_TEST_ENV_VALUE"))
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CODEGEN_TEST_ENV_KEEP=from-file\n"), 0o600))
	t.Setenv("CODEGEN_TEST_ENV_KEEP", "from-env")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("CODEGEN_TEST_ENV_KEEP"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "nope.env")))
	assert.NoError(t, loadEnvFile(""))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "codegen version")
}

func TestConfigValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("apiVersion: codestream.altairalabs.ai/v1alpha1\nkind: ClientConfig\nspec:\n  generation:\n    maxVariants: 3\n"), 0o600))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("apiVersion: codestream.altairalabs.ai/v1alpha1\nkind: ClientConfig\nspec:\n  generation:\n    stack: cobol\n"), 0o600))

	var out bytes.Buffer
	configValidateCmd.SetOut(&out)
	require.NoError(t, runConfigValidate(configValidateCmd, good))
	assert.Contains(t, out.String(), "good.yaml is valid")

	assert.Error(t, runConfigValidate(configValidateCmd, bad))
	assert.Error(t, runConfigValidate(configValidateCmd, filepath.Join(dir, "missing.yaml")))
}
