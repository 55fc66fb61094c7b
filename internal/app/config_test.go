package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
)

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	home := t.TempDir()
	cfg, err := LoadConfig(home)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(home), cfg)

	g, err := cfg.Group()
	require.NoError(t, err)
	assert.Equal(t, crypto.GroupMODP2048, g.Name())
}

func TestConfig_SaveLoad(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig(home)
	cfg.PeerID = "alice"
	cfg.DHGroup = crypto.GroupX25519
	cfg.ManualAccept = true
	cfg.HTTPTimeout = 3 * time.Second
	cfg.LogLevel = "debug"
	require.NoError(t, cfg.Save())

	got, err := LoadConfig(home)
	require.NoError(t, err)
	assert.Equal(t, cfg.PeerID, got.PeerID)
	assert.Equal(t, crypto.GroupX25519, got.DHGroup)
	assert.True(t, got.ManualAccept)
	assert.Equal(t, 3*time.Second, got.HTTPTimeout)
	assert.Equal(t, logrus.DebugLevel, got.Logger().GetLevel())
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, configFilename), []byte("peer_id: bob\n"), 0o600))

	cfg, err := LoadConfig(home)
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.PeerID)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.RelayURL)
	assert.Equal(t, uint64(3), cfg.SendRetries)
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown group":    "dh_group: nope\n",
		"bad level":        "log_level: loud\n",
		"custom no params": "dh_group: custom\n",
		"not yaml":         "peer_id: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			home := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(home, configFilename), []byte(body), 0o600))
			_, err := LoadConfig(home)
			assert.Error(t, err)
		})
	}
}
