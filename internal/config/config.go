package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// MENUBOARD_API_BASE_URL for api.base_url.
const EnvPrefix = "MENUBOARD"

const defaultFooter = `Contact us
Phone: (555) 010-2024
Email: hello@menuboard.example
Open daily 11:00 - 22:00`

// Config is the fully resolved configuration. It is loaded once by the
// command layer and handed to every component that needs a piece of it.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Server    ServerConfig    `mapstructure:"server"`
	View      ViewConfig      `mapstructure:"view"`
	Owner     OwnerConfig     `mapstructure:"owner"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Live      LiveConfig      `mapstructure:"live"`
	Output    OutputConfig    `mapstructure:"output"`

	// Dir is the directory holding the user config file.
	Dir string `mapstructure:"-"`
	// File is the user config file that was (or would have been) read.
	File string `mapstructure:"-"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Secret  string `mapstructure:"secret"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	Env            string   `mapstructure:"env"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Footer         string   `mapstructure:"footer"`
}

type ViewConfig struct {
	TruncateAt          int     `mapstructure:"truncate_at"`
	VisibilityThreshold float64 `mapstructure:"visibility_threshold"`
}

type OwnerConfig struct {
	Param string `mapstructure:"param"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type LiveConfig struct {
	RedisURL string `mapstructure:"redis_url"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// Options controls where Load looks.
type Options struct {
	// Path overrides the user config file location.
	Path string
	// EnvFile is a dotenv file; missing files are ignored. Defaults to ".env".
	EnvFile string
	// SkipSystem disables /etc lookups (used by tests).
	SkipSystem bool
	// Overrides win over every other layer; the command layer puts
	// explicitly set flags here.
	Overrides map[string]any
}

// Load resolves the configuration from defaults, the system config, the user
// config, a dotenv file, MENUBOARD_* environment variables and overrides, in
// that order of increasing precedence.
func Load(opts Options) (*Config, error) {
	dir, file, err := userConfigPath(opts.Path)
	if err != nil {
		return nil, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overwrites variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v, dir)

	if !opts.SkipSystem {
		for _, p := range systemConfigPaths() {
			if _, err := os.Stat(p); err == nil {
				v.SetConfigFile(p)
				if err := v.MergeInConfig(); err != nil {
					return nil, fmt.Errorf("failed to read %s: %w", p, err)
				}
				break
			}
		}
	}

	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
	} else if opts.Path != "" {
		return nil, fmt.Errorf("config file %s: %w", file, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api.secret", EnvPrefix+"_API_SECRET", "MENU_SECRET")

	for k, val := range opts.Overrides {
		v.Set(k, val)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Dir = dir
	cfg.File = file
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with nothing but defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v, ".")
	cfg := &Config{Dir: "."}
	_ = v.Unmarshal(cfg)
	return cfg
}

// Validate checks values that would otherwise fail far from where they
// were configured.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.View.TruncateAt <= 0 {
		return fmt.Errorf("view.truncate_at must be positive, got %d", c.View.TruncateAt)
	}
	if c.View.VisibilityThreshold < 0 || c.View.VisibilityThreshold > 1 {
		return fmt.Errorf("view.visibility_threshold must be within [0, 1], got %g", c.View.VisibilityThreshold)
	}
	if c.Owner.Param == "" {
		return errors.New("owner.param must not be empty")
	}
	switch c.Output.Format {
	case "text", "json", "table":
	default:
		return fmt.Errorf("output.format must be text, json or table, got %q", c.Output.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("telemetry.sampling_rate must be within [0, 1], got %g", c.Telemetry.SamplingRate)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("api.base_url", "http://localhost:3001/api/menu")
	v.SetDefault("api.secret", "")

	v.SetDefault("server.addr", ":5174")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.footer", defaultFooter)

	v.SetDefault("view.truncate_at", 290)
	v.SetDefault("view.visibility_threshold", 0.1)
	v.SetDefault("owner.param", "owner")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dir, "menuboard.log"))

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("live.redis_url", "")
	v.SetDefault("output.format", "text")
}

// userConfigPath returns the platform-specific config directory and file.
func userConfigPath(override string) (string, string, error) {
	if override != "" {
		return filepath.Dir(override), override, nil
	}

	var dir string
	if runtime.GOOS == "windows" {
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", "", err
			}
			appData = home
		}
		dir = filepath.Join(appData, "menuboard")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		dir = filepath.Join(home, ".config", "menuboard")
	}
	return dir, filepath.Join(dir, "config.toml"), nil
}

func systemConfigPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{filepath.Join(os.Getenv("ProgramFiles"), "menuboard", "config.toml")}
	}
	return []string{
		"/etc/menuboard/config.toml",
		"/usr/local/etc/menuboard/config.toml",
	}
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
