package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classifier.json")
	payload := `{
		"retail_sites": ["Meridian Store"],
		"wholesale_sites": ["Meridian B2B"],
		"primary_sites": ["Meridian Store", "Meridian B2B"],
		"series_rules": [{"Match": "aurora", "Series": "Aurora"}],
		"multipliers": {"Aurora": {"wholesale": 6}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Equal(t, ChannelRetail, cfg.ChannelType("Meridian Store"))
	require.Equal(t, BrandPrimary, cfg.BrandGroup("Meridian B2B"))
	require.Equal(t, 6.0, cfg.Multiplier("Aurora", ChannelWholesale))
	require.Equal(t, 1.0, cfg.Multiplier("Aurora", ChannelRetail))
}

func TestLoadConfigFileEmptyPath(t *testing.T) {
	cfg, err := LoadConfigFile("")
	require.NoError(t, err)
	require.Equal(t, ChannelNone, cfg.ChannelType("Meridian Store"))
}

func TestLoadConfigFileRejectsBadMultiplier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classifier.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"multipliers": {"Aurora": {"retail": 0}}}`), 0o600))
	_, err := LoadConfigFile(path)
	require.Error(t, err)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
