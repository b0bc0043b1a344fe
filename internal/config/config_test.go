package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDeployment() *Deployment {
	return &Deployment{
		Name:        "stress-24",
		Env:         "stress-24",
		Region:      "eu-west-1",
		PrimaryRole: "manager",
		DaemonPort:  8000,
		SSH:         SSH{User: "deck", Port: 22, KeyPath: "~/.ssh/id_ed25519"},
		Nodes: []Node{
			{Name: "node-1", Role: "manager"},
			{Name: "node-2", Role: "worker"},
			{Name: "node-3", Role: "worker"},
		},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := &Store{BaseDir: t.TempDir()}
	require.NoError(t, store.Save(sampleDeployment()))

	loaded, err := store.Load("stress-24")
	require.NoError(t, err)
	assert.Equal(t, sampleDeployment(), loaded)
}

func TestStore_LoadYAML(t *testing.T) {
	store := &Store{BaseDir: t.TempDir()}
	dir := filepath.Join(store.BaseDir, "deployments", "yml-env")
	require.NoError(t, os.MkdirAll(dir, 0700))

	record := `
name: yml-env
env: yml-env
region: us-east-1
nodes:
  - name: node-1
    role: manager
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployment.yaml"), []byte(record), 0600))

	loaded, err := store.Load("yml-env")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", loaded.Region)
	assert.Equal(t, map[string][]string{"manager": {"node-1"}}, loaded.NodesByRole())
}

func TestStore_MissingIsNotFound(t *testing.T) {
	store := &Store{BaseDir: t.TempDir()}

	_, err := store.Load("nope")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.Name)
}

func TestStore_UnparseableIsNotFound(t *testing.T) {
	store := &Store{BaseDir: t.TempDir()}
	dir := filepath.Join(store.BaseDir, "deployments", "broken")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployment.json"), []byte("{oops"), 0600))

	_, err := store.Load("broken")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.ErrorContains(t, err, "broken")
}

func TestStore_InvalidRecordIsNotFound(t *testing.T) {
	store := &Store{BaseDir: t.TempDir()}
	dir := filepath.Join(store.BaseDir, "deployments", "empty")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deployment.json"), []byte(`{"name":"empty"}`), 0600))

	_, err := store.Load("empty")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	store := &Store{BaseDir: t.TempDir()}
	err := store.Save(&Deployment{Name: "incomplete"})
	assert.Error(t, err)

	var notFound *NotFoundError
	assert.False(t, errors.As(err, &notFound), "save failure is a real error, not a miss")
}
