// Package config loads server settings from flags, environment, an optional
// .env file and an optional YAML config file.
//
// Environment variables use the LANDCOVER_ prefix with dots replaced by
// underscores (models.dir -> LANDCOVER_MODELS_DIR). PORT is honoured for
// server.port.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Brownie44l1/landcover-api/internal/registry"
)

// Config is the resolved server configuration.
type Config struct {
	Port              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	UploadDir      string
	MaxUploadBytes int64

	ModelsDir    string
	OnnxLibrary  string
	DefaultModel registry.Variant
	Overrides    map[registry.Variant]registry.Override

	AllowedOrigins []string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_bytes", int64(16<<20))
	v.SetDefault("models.dir", "models")
	v.SetDefault("models.onnx_library", "")
	v.SetDefault("models.default", registry.RGB.String())
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load reads configuration into a Config. file may be empty, in which case
// landcover.yaml is looked up in ./config and the working directory and is
// optional.
func Load(v *viper.Viper, file string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix("LANDCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "LANDCOVER_SERVER_PORT", "PORT"); err != nil {
		return Config{}, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("landcover")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		notFound := viper.ConfigFileNotFoundError{}
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	def, err := registry.ParseVariant(v.GetString("models.default"))
	if err != nil {
		return Config{}, fmt.Errorf("models.default: %w", err)
	}

	cfg := Config{
		Port:              v.GetString("server.port"),
		ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
		ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		UploadDir:         v.GetString("upload.dir"),
		MaxUploadBytes:    v.GetInt64("upload.max_bytes"),
		ModelsDir:         v.GetString("models.dir"),
		OnnxLibrary:       v.GetString("models.onnx_library"),
		DefaultModel:      def,
		Overrides:         make(map[registry.Variant]registry.Override),
		AllowedOrigins:    v.GetStringSlice("cors.allowed_origins"),
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("upload.max_bytes must be positive, got %d", cfg.MaxUploadBytes)
	}

	for _, variant := range registry.Variants {
		prefix := "models." + variant.String() + "."
		o := registry.Override{
			Path:       v.GetString(prefix + "path"),
			InputName:  v.GetString(prefix + "input"),
			OutputName: v.GetString(prefix + "output"),
		}
		if o != (registry.Override{}) {
			cfg.Overrides[variant] = o
		}
	}
	return cfg, nil
}

// Registry builds the model registry described by cfg.
func (c Config) Registry() *registry.Registry {
	return registry.New(c.ModelsDir, c.Overrides)
}
