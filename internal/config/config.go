// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the runtime configuration of a condition stack from
// a TOML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"

	"code.hybscloud.com/cond"
	"code.hybscloud.com/cond/internal/logging"
)

// FileName is the conventional config file name.
const FileName = "cond.toml"

// Config is the decoded configuration.
//
//	[warnings]
//	policy = "deferred"   # deferred | immediate | ignore | error
//	max = 50
//
//	[messages]
//	output = "stderr"     # stderr | stdout | discard
//
//	[log]
//	level = "info"        # debug | info | warn | error
type Config struct {
	Warnings WarningsConfig `toml:"warnings"`
	Messages MessagesConfig `toml:"messages"`
	Log      LogConfig      `toml:"log"`
}

type WarningsConfig struct {
	Policy string `toml:"policy"`
	Max    int    `toml:"max"`
}

type MessagesConfig struct {
	Output string `toml:"output"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Warnings: WarningsConfig{Policy: cond.WarnDeferred.String(), Max: cond.DefaultMaxWarnings},
		Messages: MessagesConfig{Output: "stderr"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := ParsePolicy(c.Warnings.Policy); err != nil {
		return err
	}
	if c.Warnings.Max < 0 {
		return fmt.Errorf("warnings.max must not be negative, got %d", c.Warnings.Max)
	}
	switch c.Messages.Output {
	case "stderr", "stdout", "discard":
	default:
		return fmt.Errorf("messages.output: unknown output %q", c.Messages.Output)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ParsePolicy maps a policy name to a warning policy.
func ParsePolicy(s string) (cond.WarningPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "deferred":
		return cond.WarnDeferred, nil
	case "immediate":
		return cond.WarnImmediate, nil
	case "ignore":
		return cond.WarnIgnore, nil
	case "error":
		return cond.WarnError, nil
	default:
		return cond.WarnDeferred, fmt.Errorf("warnings.policy: unknown policy %q", s)
	}
}

// Streams are the destinations the config may select between. Messages go
// to Stdout or Stderr per messages.output; the logger writes to Log.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
	Log    io.Writer
}

// Options converts the config into stack options.
func (c Config) Options(streams Streams) ([]cond.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	policy, _ := ParsePolicy(c.Warnings.Policy)
	level, _ := logging.ParseLevel(c.Log.Level)

	var out io.Writer
	switch c.Messages.Output {
	case "stdout":
		out = streams.Stdout
	case "discard":
		out = io.Discard
	default:
		out = streams.Stderr
	}

	return []cond.Option{
		cond.WithWarningPolicy(policy),
		cond.WithMaxWarnings(c.Warnings.Max),
		cond.WithMessageWriter(out),
		cond.WithLogger(logger(streams.Log, level)),
	}, nil
}

func logger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		return logging.NewNop()
	}
	return logging.NewWriter(w, level)
}
