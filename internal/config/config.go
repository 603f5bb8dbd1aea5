// Package config provides application configuration structures and helpers.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/and161185/edge-gatekeeper/internal/gatekeeper"
	"github.com/and161185/edge-gatekeeper/internal/upstream"
)

// ServerConfig holds the configuration settings for the gatekeeper server.
// The allow list itself is compiled in and not configurable here.
type ServerConfig struct {
	Addr            string // Listen address of the gated proxy
	Upstream        string // Origin URL passed requests are forwarded to
	ClientIPHeader  string // Header carrying the original client address
	MetricsAddr     string // Listen address for /metrics, empty disables it
	ShutdownTimeout int    // Graceful shutdown timeout (in seconds)
	Debug           bool   // Debug logging, includes blocked requests
	Logger          *zap.SugaredLogger
}

// NewServerConfig creates and returns a new ServerConfig from, in increasing
// priority, defaults, JSON config file, flags and environment variables.
// A .env file in the working directory is loaded into the environment first.
func NewServerConfig() *ServerConfig {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	// 0) defaults
	cfg := &ServerConfig{
		Addr:            "localhost:8080",
		Upstream:        "http://127.0.0.1:8081",
		ClientIPHeader:  gatekeeper.DefaultHeader,
		ShutdownTimeout: 10,
	}

	// 1) flags
	fAddr := strFlag{v: cfg.Addr}
	fUpstream := strFlag{v: cfg.Upstream}
	fHeader := strFlag{v: cfg.ClientIPHeader}
	var fMetrics strFlag
	fShutdown := intFlag{v: cfg.ShutdownTimeout}
	var fDebug boolFlag
	var fConf strFlag // -c / -config

	flag.Var(&fAddr, "a", "HTTP listen address")
	flag.Var(&fUpstream, "u", "upstream origin URL")
	flag.Var(&fHeader, "H", "client address header")
	flag.Var(&fMetrics, "m", "metrics listen address (empty disables)")
	flag.Var(&fShutdown, "s", "shutdown timeout (seconds)")
	flag.Var(&fDebug, "debug", "debug logging")
	flag.Var(&fConf, "c", "Path to JSON config file")
	flag.Var(&fConf, "config", "Path to JSON config file (alias)")
	flag.Parse()

	cfg.Addr = fAddr.v
	cfg.Upstream = fUpstream.v
	cfg.ClientIPHeader = fHeader.v
	cfg.MetricsAddr = fMetrics.v
	cfg.ShutdownTimeout = fShutdown.v
	cfg.Debug = fDebug.v

	// 2) JSON fills only what flags left unset
	if fConf.v == "" {
		if v := os.Getenv("CONFIG"); v != "" {
			fConf.v = v
		}
	}

	if fConf.v != "" {
		js, err := loadServerJSON(fConf.v)
		if err != nil {
			log.Printf("failed to load config file %s: %v", fConf.v, err)
		} else {
			if js.Address != nil && !fAddr.set {
				cfg.Addr = *js.Address
			}
			if js.Upstream != nil && !fUpstream.set {
				cfg.Upstream = *js.Upstream
			}
			if js.ClientIPHeader != nil && !fHeader.set {
				cfg.ClientIPHeader = *js.ClientIPHeader
			}
			if js.MetricsAddress != nil && !fMetrics.set {
				cfg.MetricsAddr = *js.MetricsAddress
			}
			if js.ShutdownTimeout != nil && !fShutdown.set {
				if sec, err := parseDurationSeconds(*js.ShutdownTimeout); err == nil {
					cfg.ShutdownTimeout = sec
				} else {
					log.Printf("invalid shutdown_timeout in config file: %v", err)
				}
			}
			if js.Debug != nil && !fDebug.set {
				cfg.Debug = *js.Debug
			}
		}
	}

	// 3) env
	readServerEnvironment(cfg)

	cfg.Logger = newLogger(cfg.Debug)
	return cfg
}

func readServerEnvironment(cfg *ServerConfig) {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.Addr = addr
	}

	if up := os.Getenv("UPSTREAM_URL"); up != "" {
		cfg.Upstream = up
	}

	if h := os.Getenv("CLIENT_IP_HEADER"); h != "" {
		cfg.ClientIPHeader = h
	}

	if m := os.Getenv("METRICS_ADDRESS"); m != "" {
		cfg.MetricsAddr = m
	}

	shutdownEnv := os.Getenv("SHUTDOWN_TIMEOUT")
	if shutdownEnv != "" {
		v, err := strconv.Atoi(shutdownEnv)
		if err == nil {
			cfg.ShutdownTimeout = v
		} else {
			log.Printf("invalid SHUTDOWN_TIMEOUT env var: %v", err)
		}
	}

	debugEnv := os.Getenv("DEBUG")
	if debugEnv != "" {
		v, err := strconv.ParseBool(debugEnv)
		if err == nil {
			cfg.Debug = v
		} else {
			log.Printf("invalid DEBUG env var: %v", err)
		}
	}
}

// Validate reports the first setting that cannot be used to start the server.
func (cfg *ServerConfig) Validate() error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return errors.New("listen address is empty")
	}
	if _, err := upstream.ParseTarget(cfg.Upstream); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.ClientIPHeader) == "" {
		return errors.New("client address header is empty")
	}
	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout %d is negative", cfg.ShutdownTimeout)
	}
	return nil
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (cfg *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(cfg.ShutdownTimeout) * time.Second
}

func newLogger(debug bool) *zap.SugaredLogger {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stdout"}
	if debug {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zap.Must(logCfg.Build()).Sugar()
}
