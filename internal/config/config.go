// Package config loads the YAML run configuration shared by the CLI commands.
package config

import (
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Schema and Documents are glob patterns; directories expand to the
	// GraphQL files below them.
	Schema                   []string `yaml:"schema"`
	Documents                []string `yaml:"documents"`
	Output                   string   `yaml:"output"`
	PropagateInputTypeFields bool     `yaml:"propagateInputTypeFields"`

	Log    Log    `yaml:"log"`
	OTel   OTel   `yaml:"otel"`
	Server Server `yaml:"server"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// OTel configures trace export. An empty endpoint disables tracing.
type OTel struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

type Server struct {
	Addr         string        `yaml:"addr"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
}

func Default() *Config {
	return &Config{
		PropagateInputTypeFields: true,
		Log:                      Log{Level: "info"},
		OTel:                     OTel{Service: "schemasubset"},
		Server: Server{
			Addr:         ":8080",
			Timeout:      10 * time.Second,
			MaxBodyBytes: 4 << 20,
		},
	}
}

// Load reads path over the defaults. An empty path, or a path that does not
// exist, yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the settings a subset run cannot do without.
func (c *Config) Validate() error {
	if len(c.Schema) == 0 {
		return errors.New("config: at least one schema pattern is required")
	}
	level := strings.ToLower(c.Log.Level)
	for _, l := range logLevels {
		if level == l {
			return nil
		}
	}
	return errors.Errorf("config: unknown log level %q", c.Log.Level)
}
