package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/edge-gatekeeper/internal/gatekeeper"
)

var envKeys = []string{
	"ADDRESS", "UPSTREAM_URL", "CLIENT_IP_HEADER", "METRICS_ADDRESS",
	"SHUTDOWN_TIMEOUT", "DEBUG", "CONFIG",
}

func setEnvAndRun(t *testing.T, env map[string]string, fn func()) {
	t.Helper()

	// clear everything the loader reads so the host environment cannot leak in
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	fn()
}

func withFreshFlagSet(t *testing.T, args []string, fn func()) {
	t.Helper()
	oldSet, oldArgs := flag.CommandLine, os.Args
	flag.CommandLine = flag.NewFlagSet("gatekeeper", flag.ContinueOnError)
	os.Args = append([]string{"gatekeeper"}, args...)
	defer func() { flag.CommandLine, os.Args = oldSet, oldArgs }()
	fn()
}

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadServerEnvironment(t *testing.T) {
	env := map[string]string{
		"ADDRESS":          "127.0.0.1:9999",
		"UPSTREAM_URL":     "http://origin:9000",
		"CLIENT_IP_HEADER": "X-Real-IP",
		"METRICS_ADDRESS":  ":9100",
		"SHUTDOWN_TIMEOUT": "3",
		"DEBUG":            "true",
	}

	setEnvAndRun(t, env, func() {
		cfg := &ServerConfig{}
		readServerEnvironment(cfg)

		require.Equal(t, "127.0.0.1:9999", cfg.Addr)
		require.Equal(t, "http://origin:9000", cfg.Upstream)
		require.Equal(t, "X-Real-IP", cfg.ClientIPHeader)
		require.Equal(t, ":9100", cfg.MetricsAddr)
		require.Equal(t, 3, cfg.ShutdownTimeout)
		require.True(t, cfg.Debug)
	})
}

func TestReadServerEnvironment_Invalid(t *testing.T) {
	env := map[string]string{
		"SHUTDOWN_TIMEOUT": "bad",
		"DEBUG":            "nope",
	}
	setEnvAndRun(t, env, func() {
		cfg := &ServerConfig{ShutdownTimeout: 7, Debug: true}
		readServerEnvironment(cfg)
		require.Equal(t, 7, cfg.ShutdownTimeout)
		require.True(t, cfg.Debug)
	})
}

func TestNewServerConfig_Defaults(t *testing.T) {
	setEnvAndRun(t, nil, func() {
		withFreshFlagSet(t, nil, func() {
			cfg := NewServerConfig()
			require.NotNil(t, cfg.Logger)
			require.Equal(t, "localhost:8080", cfg.Addr)
			require.Equal(t, "http://127.0.0.1:8081", cfg.Upstream)
			require.Equal(t, gatekeeper.DefaultHeader, cfg.ClientIPHeader)
			require.Empty(t, cfg.MetricsAddr)
			require.Equal(t, 10, cfg.ShutdownTimeout)
			require.False(t, cfg.Debug)
			require.NoError(t, cfg.Validate())
		})
	})
}

func TestNewServerConfig_Flags(t *testing.T) {
	setEnvAndRun(t, nil, func() {
		args := []string{"-a", ":8443", "-u", "https://origin.example", "-H", "X-Real-IP", "-m", ":9100", "-s", "2", "-debug"}
		withFreshFlagSet(t, args, func() {
			cfg := NewServerConfig()
			require.Equal(t, ":8443", cfg.Addr)
			require.Equal(t, "https://origin.example", cfg.Upstream)
			require.Equal(t, "X-Real-IP", cfg.ClientIPHeader)
			require.Equal(t, ":9100", cfg.MetricsAddr)
			require.Equal(t, 2, cfg.ShutdownTimeout)
			require.True(t, cfg.Debug)
		})
	})
}

func TestNewServerConfig_Priority(t *testing.T) {
	path := writeJSON(t, `{
		"address": "json:1",
		"upstream": "http://json-origin",
		"client_ip_header": "X-Json-IP",
		"metrics_address": "json:9100",
		"shutdown_timeout": "4s",
		"debug": true
	}`)

	// flag beats JSON, env beats flag, JSON fills the rest
	env := map[string]string{"UPSTREAM_URL": "http://env-origin"}
	setEnvAndRun(t, env, func() {
		args := []string{"-c", path, "-a", "flag:1", "-u", "http://flag-origin"}
		withFreshFlagSet(t, args, func() {
			cfg := NewServerConfig()
			require.Equal(t, "flag:1", cfg.Addr)
			require.Equal(t, "http://env-origin", cfg.Upstream)
			require.Equal(t, "X-Json-IP", cfg.ClientIPHeader)
			require.Equal(t, "json:9100", cfg.MetricsAddr)
			require.Equal(t, 4, cfg.ShutdownTimeout)
			require.True(t, cfg.Debug)
		})
	})
}

func TestNewServerConfig_ConfigFromEnv(t *testing.T) {
	path := writeJSON(t, `{"address": "json:2"}`)
	setEnvAndRun(t, map[string]string{"CONFIG": path}, func() {
		withFreshFlagSet(t, nil, func() {
			require.Equal(t, "json:2", NewServerConfig().Addr)
		})
	})
}

func TestNewServerConfig_BrokenConfigFileIgnored(t *testing.T) {
	path := writeJSON(t, `{not json`)
	setEnvAndRun(t, nil, func() {
		withFreshFlagSet(t, []string{"-config", path}, func() {
			require.Equal(t, "localhost:8080", NewServerConfig().Addr)
		})
	})
}

func TestValidate(t *testing.T) {
	valid := func() *ServerConfig {
		return &ServerConfig{
			Addr:           ":8080",
			Upstream:       "http://127.0.0.1:8081",
			ClientIPHeader: gatekeeper.DefaultHeader,
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Addr = " "
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Upstream = "origin:8081"
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.ClientIPHeader = ""
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.ShutdownTimeout = -1
	require.Error(t, cfg.Validate())
}

func TestShutdownTimeoutDuration(t *testing.T) {
	cfg := &ServerConfig{ShutdownTimeout: 3}
	require.Equal(t, "3s", cfg.ShutdownTimeoutDuration().String())
}

func TestParseDurationSeconds(t *testing.T) {
	v, err := parseDurationSeconds("1m30s")
	require.NoError(t, err)
	require.Equal(t, 90, v)

	v, err = parseDurationSeconds("500ms")
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = parseDurationSeconds("0s")
	require.NoError(t, err)
	require.Equal(t, 0, v)

	_, err = parseDurationSeconds("-1s")
	require.Error(t, err)

	_, err = parseDurationSeconds("soon")
	require.Error(t, err)
}

func TestFlagTypes(t *testing.T) {
	var i intFlag
	require.Error(t, i.Set("x"))
	require.NoError(t, i.Set("5"))
	require.Equal(t, "5", i.String())
	require.True(t, i.set)

	var b boolFlag
	require.True(t, b.IsBoolFlag())
	require.Error(t, b.Set("maybe"))
	require.NoError(t, b.Set("true"))
	require.Equal(t, "true", b.String())
}
