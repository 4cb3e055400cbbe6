package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrebarritra/inviwo/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.True(t, cfg.Linking.Enabled)
}

func TestLoadJSON(t *testing.T) {
	payload := `{
		"version": "1.2.0",
		"nats": {"url": "nats://example:4222", "reconnect_wait": "5s"},
		"workspace": {"dir": "/var/lib/inviwo", "use_kv": true},
		"linking": {"enabled": true, "classes": ["org.inviwo.FloatProperty"]}
	}`
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "nats://example:4222", cfg.NATS.URL)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait.Std())
	assert.True(t, cfg.Workspace.UseKV)
	assert.True(t, cfg.Linking.IsLinkable("org.inviwo.FloatProperty"))
	assert.False(t, cfg.Linking.IsLinkable("org.inviwo.IntProperty"))
}

func TestLoadYAML(t *testing.T) {
	payload := `
version: "2.0.0"
nats:
  url: nats://yaml:4222
  timeout: 10s
linking:
  enabled: false
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", cfg.Version)
	assert.Equal(t, "nats://yaml:4222", cfg.NATS.URL)
	assert.Equal(t, 10*time.Second, cfg.NATS.Timeout.Std())
	assert.False(t, cfg.Linking.IsLinkable("anything"))
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().NATS.URL, cfg.NATS.URL)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INVIWO_NATS_URL", "nats://env:4222")
	t.Setenv("INVIWO_WORKSPACE_DIR", "/tmp/ws")
	t.Setenv("INVIWO_NATS_TIMEOUT", "7s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, "/tmp/ws", cfg.Workspace.Dir)
	assert.Equal(t, 7*time.Second, cfg.NATS.Timeout.Std())
}

func TestValidateCatchesMissingSettings(t *testing.T) {
	cfg := Default()
	cfg.Workspace.UseKV = true
	cfg.NATS.URL = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)

	cfg = Default()
	cfg.Gateway.Enabled = true
	cfg.Gateway.Addr = ""
	require.Error(t, cfg.Validate())
}

func TestLinkingGate(t *testing.T) {
	l := LinkingConfig{Enabled: true}
	assert.True(t, l.IsLinkable("org.inviwo.IntProperty"))

	l.Classes = []string{"org.inviwo.FloatProperty"}
	assert.False(t, l.IsLinkable("org.inviwo.IntProperty"))
	assert.True(t, l.IsLinkable("org.inviwo.FloatProperty"))

	l.Enabled = false
	assert.False(t, l.IsLinkable("org.inviwo.FloatProperty"))
}

func TestSafeConfig(t *testing.T) {
	sc := NewSafeConfig(nil)
	assert.True(t, sc.IsLinkable("org.inviwo.IntProperty"))

	next := Default()
	next.Linking.Enabled = false
	require.NoError(t, sc.Update(next))
	assert.False(t, sc.IsLinkable("org.inviwo.IntProperty"))

	// The copy handed out does not alias the stored config.
	got := sc.Get()
	got.Linking.Enabled = true
	assert.False(t, sc.IsLinkable("org.inviwo.IntProperty"))

	require.Error(t, sc.Update(nil))
}
