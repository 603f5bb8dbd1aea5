package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type serverJSON struct {
	Address         *string `json:"address"`
	Upstream        *string `json:"upstream"`
	ClientIPHeader  *string `json:"client_ip_header"`
	MetricsAddress  *string `json:"metrics_address"`
	ShutdownTimeout *string `json:"shutdown_timeout"` // "10s"
	Debug           *bool   `json:"debug"`
}

func loadServerJSON(path string) (*serverJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg serverJSON
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseDurationSeconds rounds up to whole seconds so "500ms" keeps a grace period.
func parseDurationSeconds(s string) (int, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return int((d + time.Second - 1) / time.Second), nil
}
