package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.True(t, cfg.PropagateInputTypeFields)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schema: [schema/*.graphql]
documents:
  - queries
output: out/subset.graphql
propagateInputTypeFields: false
log:
  level: debug
server:
  timeout: 3s
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.Schema = []string{"schema/*.graphql"}
	want.Documents = []string{"queries"}
	want.Output = "out/subset.graphql"
	want.PropagateInputTypeFields = false
	want.Log.Level = "debug"
	want.Server.Timeout = 3 * time.Second
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema: [unterminated"), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "parse")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.ErrorContains(t, cfg.Validate(), "schema pattern")

	cfg.Schema = []string{"schema.graphql"}
	cfg.Log.Level = "loud"
	require.ErrorContains(t, cfg.Validate(), "loud")

	cfg.Log.Level = "WARN"
	require.NoError(t, cfg.Validate())
}
