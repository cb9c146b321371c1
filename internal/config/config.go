package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ThandieOps/muda/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the tool settings. Flags given on the command line
// override these.
type Config struct {
	Version int           `mapstructure:"version" yaml:"version" validate:"min=1"`
	Build   BuildConfig   `mapstructure:"build" yaml:"build"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// BuildConfig holds the defaults of `muda build`
type BuildConfig struct {
	// Compiler forces a toolchain: cl, clang or gcc. Empty picks one.
	Compiler     string `mapstructure:"compiler" yaml:"compiler" validate:"omitempty,compiler"`
	Optimize     bool   `mapstructure:"optimize" yaml:"optimize"`
	ShowCommands bool   `mapstructure:"show_commands" yaml:"show_commands"`
	// Plugins enables loading .muda/plugin from the root directory
	Plugins    bool   `mapstructure:"plugins" yaml:"plugins"`
	PluginPath string `mapstructure:"plugin_path" yaml:"plugin_path,omitempty"`
}

// WatchConfig holds settings of `muda watch`
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" validate:"gte=0"`
	// Schedule is a cron expression for periodic rebuilds, e.g. "@hourly"
	Schedule string `mapstructure:"schedule" yaml:"schedule,omitempty"`
	// Ignore lists directory names whose changes never trigger a build
	Ignore []string `mapstructure:"ignore" yaml:"ignore"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"required,loglevel"`
	JSON   bool   `mapstructure:"json" yaml:"json"`
	ToFile bool   `mapstructure:"to_file" yaml:"to_file"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// EnvPrefix prefixes every environment override, e.g. MUDA_BUILD_COMPILER
const EnvPrefix = "MUDA"

// Default returns the settings used when no file exists
func Default() *Config {
	return &Config{
		Version: 1,
		Build: BuildConfig{
			Plugins: true,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
			Ignore:   []string{".git", "bin", "int"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("version", d.Version)
	v.SetDefault("build.compiler", d.Build.Compiler)
	v.SetDefault("build.optimize", d.Build.Optimize)
	v.SetDefault("build.show_commands", d.Build.ShowCommands)
	v.SetDefault("build.plugins", d.Build.Plugins)
	v.SetDefault("build.plugin_path", d.Build.PluginPath)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("watch.schedule", d.Watch.Schedule)
	v.SetDefault("watch.ignore", d.Watch.Ignore)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.json", d.Logging.JSON)
	v.SetDefault("logging.to_file", d.Logging.ToFile)
	v.SetDefault("logging.file", d.Logging.File)
}

// DefaultDir is the directory holding settings.yml and the user-wide
// config.muda
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, "muda")
}

// DefaultPath is the settings file written by `muda init --settings`
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "settings.yml")
}

// Load reads settings from path, or from the default location when path is
// empty. A missing default file is not an error; a missing explicit file is.
// MUDA_* environment variables override both.
func Load(path string) (*Config, error) {
	return load(path, DefaultDir())
}

func load(path, searchDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("settings")
		v.SetConfigType("yaml")
		if searchDir != "" {
			v.AddConfigPath(searchDir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("compiler", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseCompiler(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "debug", "info", "warn", "warning", "error":
			return true
		}
		return false
	})
	return v
}

// Validate checks the values viper cannot type-check
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid setting %s: %q fails %q", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Write saves cfg as YAML at path, creating its directory
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, yamlData, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
