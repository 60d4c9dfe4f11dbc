package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantaflow/mantaflow/internal/config"
)

func TestRootCmd_Version(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version, strings.TrimSpace(out.String()))
}

func TestRootCmd_HasServe(t *testing.T) {
	cmd := NewRootCmd()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())
	assert.NotNil(t, serve.Flags().Lookup("port"))
	assert.NotNil(t, serve.Flags().Lookup("store"))
	assert.Nil(t, serve.Flags().Lookup("secret"), "secret must only come from the environment")
}

func TestRunServe_RejectsInvalidConfig(t *testing.T) {
	cfg, err := config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)

	err = runServe(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.SecretEnv)
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store:        config.StoreSQLite,
		DatabasePath: t.TempDir() + "/test.db",
	}

	repo, closeStore, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
