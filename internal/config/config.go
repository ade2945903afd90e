// Package config loads the gemledger CUE configuration file.
//
// The file is unified with an embedded #Config schema, so defaults come from
// the schema and unknown fields are rejected. Errors keep CUE positions.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// DefaultPath is read when --config is not given.
const DefaultPath = "gemledger.cue"

// Config is the decoded configuration.
type Config struct {
	Owner    string   `json:"owner"`
	Database Database `json:"database"`
	Server   Server   `json:"server"`
	Log      Log      `json:"log"`
	Host     Host     `json:"host"`
}

// Database selects the call log backend.
type Database struct {
	Driver string `json:"driver"` // "sqlite" | "postgres"
	DSN    string `json:"dsn"`
}

// Server configures the HTTP binding.
type Server struct {
	Listen string `json:"listen"`
}

// Log configures slog.
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Host configures the execution host.
type Host struct {
	AutoMine bool `json:"auto_mine"`
}

// Overrides are command-line values that win over the file.
// Empty fields leave the file value alone.
type Overrides struct {
	Owner string
	DSN   string
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	return Resolve(path, true, Overrides{})
}

// FromString validates CUE source. name is used in error positions.
func FromString(src, name string) (*Config, error) {
	return build([]byte(src), name, Overrides{})
}

// Resolve loads path and applies overrides. When the file does not exist and
// required is false, the configuration is built from defaults and overrides
// alone, which still needs an owner.
func Resolve(path string, required bool, ov Overrides) (*Config, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !required:
		data, path = nil, "<defaults>"
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	return build(data, path, ov)
}

func build(src []byte, name string, ov Overrides) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}

	file := ctx.CompileBytes(src, cue.Filename(name))
	if err := file.Err(); err != nil {
		return nil, formatErr(err)
	}

	ownerPath := cue.ParsePath("owner")
	if ov.Owner != "" && !file.LookupPath(ownerPath).Exists() {
		file = file.FillPath(ownerPath, ov.Owner)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(file)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatErr(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if ov.Owner != "" {
		cfg.Owner = ov.Owner
	}
	if ov.DSN != "" {
		cfg.Database.DSN = ov.DSN
	}
	return &cfg, nil
}

// formatErr flattens a CUE error list into one error with positions.
func formatErr(err error) error {
	return fmt.Errorf("invalid config:\n%s", cueerrors.Details(err, nil))
}

// NewLogger builds the process logger from the log section.
func NewLogger(l Log, w io.Writer) *slog.Logger {
	var level slog.Level
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
