package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/enclavechat/internal/flagx"
	"github.com/dmitrijs2005/enclavechat/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "15s" or as integer nanoseconds.
type JsonConfig struct {
	ServerBaseURL  string         `json:"server_base_url"`
	Model          string         `json:"model"`
	SigningAlgo    string         `json:"signing_algo"`
	APIKey         string         `json:"api_key"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	SweepInterval  timex.Duration `json:"sweep_interval"`
	DatabasePath   string         `json:"database_path"`
}

// parseJson overlays Config with values loaded from a JSON file selected
// via the -c or -config flags. Empty JSON fields leave the current value
// in place. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.Model != "" {
		cfg.Model = jc.Model
	}
	if jc.SigningAlgo != "" {
		cfg.SigningAlgo = jc.SigningAlgo
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.SweepInterval.Duration != 0 {
		cfg.SweepInterval = jc.SweepInterval.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
}
