package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerBaseURL)
	assert.Equal(t, "llama-3.3-70b-instruct", cfg.Model)
	assert.Equal(t, "ecdsa", cfg.SigningAlgo)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "enclavechat.db", cfg.DatabasePath)
	assert.Empty(t, cfg.APIKey)
}

func TestLoadConfig_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv("ENCLAVECHAT_API_KEY", "env-key")

	cfg := LoadConfig()
	assert.Equal(t, "env-key", cfg.APIKey)
}

func TestJsonConfig_Unmarshal(t *testing.T) {
	data := `{
		"server_base_url": "https://inference.example.com",
		"model": "custom-model",
		"request_timeout": "30s",
		"sweep_interval": 120000000000
	}`

	var jc JsonConfig
	require.NoError(t, json.Unmarshal([]byte(data), &jc))

	assert.Equal(t, "https://inference.example.com", jc.ServerBaseURL)
	assert.Equal(t, "custom-model", jc.Model)
	assert.Equal(t, 30*time.Second, jc.RequestTimeout.Duration)
	assert.Equal(t, 2*time.Minute, jc.SweepInterval.Duration)
}
