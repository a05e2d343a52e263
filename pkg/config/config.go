package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Osu      OsuConfig      `json:"osu"`
	Beatmaps BeatmapsConfig `json:"beatmaps"`
	IRC      IRCConfig      `json:"irc"`
	Matrix   MatrixConfig   `json:"matrix"`
	Log      LogConfig      `json:"log"`
	Tracing  TracingConfig  `json:"tracing"`
}

type OsuConfig struct {
	ClientID     uint64 `json:"client_id" env:"OSU_CLIENT_ID"`
	ClientSecret string `json:"client_secret" env:"OSU_CLIENT_SECRET"`
	BaseURL      string `json:"base_url" env:"OSU_BASE_URL"`
}

type BeatmapsConfig struct {
	// CacheDir holds downloaded .osu files, one per beatmap id.
	CacheDir    string `json:"cache_dir" env:"OSU_MAP_PATH"`
	DownloadURL string `json:"download_url" env:"OSU_MAP_DOWNLOAD_URL"`
}

type IRCConfig struct {
	Enabled  bool     `json:"enabled" env:"IRC_ENABLED"`
	Server   string   `json:"server" env:"IRC_SERVER"`
	TLS      bool     `json:"tls" env:"IRC_TLS"`
	Nickname string   `json:"nickname" env:"IRC_NICKNAME"`
	Password string   `json:"password" env:"IRC_PASSWORD"`
	Channels []string `json:"channels" env:"IRC_CHANNELS" envSeparator:","`
	// MessagesPerSecond throttles outgoing PRIVMSGs so the server does not
	// disconnect the bot for flooding.
	MessagesPerSecond float64 `json:"messages_per_second" env:"IRC_MESSAGES_PER_SECOND"`
	Burst             int     `json:"burst" env:"IRC_BURST"`
}

type MatrixConfig struct {
	Enabled      bool   `json:"enabled" env:"MATRIX_ENABLED"`
	Homeserver   string `json:"homeserver" env:"MATRIX_HOMESERVER"`
	Username     string `json:"username" env:"MATRIX_USER"`
	Password     string `json:"password" env:"MATRIX_PASSWORD"`
	UserID       string `json:"user_id" env:"MATRIX_USER_ID"`
	AccessToken  string `json:"access_token" env:"MATRIX_ACCESS_TOKEN"`
	DeviceID     string `json:"device_id" env:"MATRIX_DEVICE_ID"`
	JoinOnInvite bool   `json:"join_on_invite" env:"MATRIX_JOIN_ON_INVITE"`
}

type LogConfig struct {
	Level  string `json:"level" env:"SOBAN_LOG_LEVEL"`
	Format string `json:"format" env:"SOBAN_LOG_FORMAT"`
}

type TracingConfig struct {
	Enabled     bool   `json:"enabled" env:"SOBAN_TRACING_ENABLED"`
	Endpoint    string `json:"endpoint" env:"SOBAN_TRACING_ENDPOINT"`
	ServiceName string `json:"service_name" env:"SOBAN_TRACING_SERVICE_NAME"`
}

func DefaultConfig() *Config {
	return &Config{
		Osu: OsuConfig{
			BaseURL: "https://osu.ppy.sh",
		},
		Beatmaps: BeatmapsConfig{
			CacheDir:    "~/.soban/maps",
			DownloadURL: "https://osu.ppy.sh/osu",
		},
		IRC: IRCConfig{
			Enabled:           true,
			Server:            "irc.lea.moe:6697",
			TLS:               true,
			Nickname:          "soban",
			Channels:          []string{"#general", "#osu"},
			MessagesPerSecond: 2,
			Burst:             4,
		},
		Matrix: MatrixConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "soban",
		},
	}
}

// LoadConfig reads path (a missing file yields the defaults), then applies
// environment overrides. A .env file in the working directory, if present,
// is loaded into the environment first.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Beatmaps.CacheDir = expandHome(cfg.Beatmaps.CacheDir)

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate reports every missing setting needed by the enabled backends.
func (c *Config) Validate() error {
	var errs []error

	if c.Osu.ClientID == 0 {
		errs = append(errs, errors.New("osu.client_id (OSU_CLIENT_ID) is required"))
	}
	if c.Osu.ClientSecret == "" {
		errs = append(errs, errors.New("osu.client_secret (OSU_CLIENT_SECRET) is required"))
	}
	if c.Beatmaps.CacheDir == "" {
		errs = append(errs, errors.New("beatmaps.cache_dir (OSU_MAP_PATH) is required"))
	}

	if c.IRC.Enabled {
		if c.IRC.Server == "" {
			errs = append(errs, errors.New("irc.server is required when irc is enabled"))
		}
		if c.IRC.Nickname == "" {
			errs = append(errs, errors.New("irc.nickname is required when irc is enabled"))
		}
	}

	if c.Matrix.Enabled {
		if c.Matrix.Homeserver == "" {
			errs = append(errs, errors.New("matrix.homeserver (MATRIX_HOMESERVER) is required when matrix is enabled"))
		}
		if c.Matrix.AccessToken == "" && (c.Matrix.Username == "" || c.Matrix.Password == "") {
			errs = append(errs, errors.New("matrix needs either access_token or username and password"))
		}
	}

	if !c.IRC.Enabled && !c.Matrix.Enabled {
		errs = append(errs, errors.New("no backend enabled"))
	}

	return errors.Join(errs...)
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		return home
	}
	return strings.Replace(path, "~", home, 1)
}
