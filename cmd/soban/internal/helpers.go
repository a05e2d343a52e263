package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/soban-bot/soban/pkg/config"
	"github.com/soban-bot/soban/pkg/logger"
)

const Logo = "⭕"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// ConfigPath is set by the --config flag.
var ConfigPath string

// GetConfigPath prefers --config, then SOBAN_CONFIG, then
// ~/.soban/config.json.
func GetConfigPath() string {
	if ConfigPath != "" {
		return ConfigPath
	}
	if p := os.Getenv("SOBAN_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".soban", "config.json")
}

func LoadConfig() (*config.Config, error) {
	return config.LoadConfig(GetConfigPath())
}

// SetupLogging applies the log section of cfg. debug forces DEBUG level.
func SetupLogging(cfg config.LogConfig, debug bool) error {
	logger.Configure(os.Stderr, cfg.Format)

	if debug {
		logger.SetLevel(logger.DEBUG)
		return nil
	}

	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return nil
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

func GetVersion() string {
	return version
}
