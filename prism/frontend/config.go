// Copyright 2025 go-prism Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package frontend

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-prism/prism/ddebug"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvConfig         = "PRISM_CONFIG"
	EnvBackends       = "PRISM_BACKENDS"
	EnvOptions        = "PRISM_OPTIONS"
	EnvDDebugInclude  = "PRISM_DDEBUG_INCLUDE"
	EnvDDebugExclude  = "PRISM_DDEBUG_EXCLUDE"
	EnvDDebugGenerate = "PRISM_DDEBUG_GENERATE"
	EnvLogLevel       = "PRISM_LOG_LEVEL"
)

// Config describes a Runtime: which backends to load with which arguments,
// the option string and the delta-debug files.
type Config struct {
	// Options is a comma-separated option list, see ParseOptions.
	Options string `yaml:"options" json:"options"`

	// Backends are loaded in order through interflop.Lookup.
	Backends []BackendConfig `yaml:"backends" json:"backends"`

	// DDebug names the delta-debug files. A non-empty path enables the
	// filter.
	DDebug ddebug.Config `yaml:"ddebug" json:"ddebug"`

	// LogLevel is debug, info, warn or error. Empty keeps the default
	// logger.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Logger overrides LogLevel when set.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// BackendConfig names one backend and its arguments.
type BackendConfig struct {
	Name string   `yaml:"name" json:"name"`
	Args []string `yaml:"args" json:"args"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("frontend: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("frontend: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigFromEnv builds a Config from PRISM_CONFIG, if set, with the other
// PRISM_ variables overriding the file.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if path := os.Getenv(EnvConfig); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if v := os.Getenv(EnvBackends); v != "" {
		cfg.Backends = ParseBackends(v)
	}
	if v := os.Getenv(EnvOptions); v != "" {
		cfg.Options = v
	}
	if v := os.Getenv(EnvDDebugInclude); v != "" {
		cfg.DDebug.Include = v
	}
	if v := os.Getenv(EnvDDebugExclude); v != "" {
		cfg.DDebug.Exclude = v
	}
	if v := os.Getenv(EnvDDebugGenerate); v != "" {
		cfg.DDebug.Generate = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// ParseBackends parses a backend list such as "prism --mode=ud; ieee".
// Backends are separated by semicolons; the first word of each is the name
// and the rest are its arguments.
func ParseBackends(s string) []BackendConfig {
	return lo.FilterMap(strings.Split(s, ";"), func(spec string, _ int) (BackendConfig, bool) {
		fields := strings.Fields(spec)
		if len(fields) == 0 {
			return BackendConfig{}, false
		}
		return BackendConfig{Name: fields[0], Args: fields[1:]}, true
	})
}

func (cfg Config) logger() (*slog.Logger, error) {
	if cfg.Logger != nil {
		return cfg.Logger, nil
	}
	if cfg.LogLevel == "" {
		return slog.Default(), nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("frontend: log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// Open loads the configured backends and returns a Runtime. Backend
// initialization errors are returned and meant to be fatal; backends loaded
// before the failure are finalized first.
func Open(cfg Config) (*Runtime, error) {
	logger, err := cfg.logger()
	if err != nil {
		return nil, err
	}

	reg := NewRegistry()
	for _, b := range cfg.Backends {
		if err := reg.Load(b.Name, b.Args); err != nil {
			return nil, errors.Join(err, reg.finalize())
		}
		logger.Info("backend loaded", "name", b.Name, "args", b.Args)
	}
	if reg.Len() == 0 {
		logger.Warn("no backends loaded; instrumented operations return NaN")
	}

	opts := []Option{
		WithLogger(logger),
		WithOptions(ParseOptions(cfg.Options, logger)),
	}
	d := cfg.DDebug
	if d.Include != "" || d.Exclude != "" || d.Generate != "" {
		filter, err := ddebug.NewFilter(d)
		if err != nil {
			return nil, errors.Join(err, reg.finalize())
		}
		opts = append(opts, WithFilter(filter))
	}
	return New(reg, opts...), nil
}

var (
	defaultOnce    sync.Once
	defaultRuntime *Runtime
)

// Default returns the process-wide Runtime, configured from the environment
// on first use. Backends must have registered themselves by then, usually
// through a blank import. It panics if the configuration cannot be loaded.
func Default() *Runtime {
	defaultOnce.Do(func() {
		cfg, err := ConfigFromEnv()
		if err == nil {
			defaultRuntime, err = Open(cfg)
		}
		if err != nil {
			panic(fmt.Sprintf("prism: %v", err))
		}
	})
	return defaultRuntime
}
