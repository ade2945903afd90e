package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gemledger.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestFromString_Defaults(t *testing.T) {
	cfg, err := FromString(`owner: "ST1OWNER"`, "test.cue")
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Owner:    "ST1OWNER",
		Database: Database{Driver: "sqlite", DSN: "gemledger.db"},
		Server:   Server{Listen: ":8080"},
		Log:      Log{Level: "info", Format: "text"},
		Host:     Host{AutoMine: true},
	}, cfg)
}

func TestFromString_FullFile(t *testing.T) {
	src := `
owner: "ST1OWNER"
database: {
	driver: "postgres"
	dsn:    "postgres://localhost/gemledger"
}
server: listen: "127.0.0.1:9000"
log: {
	level:  "debug"
	format: "json"
}
host: auto_mine: false
`
	cfg, err := FromString(src, "full.cue")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/gemledger", cfg.Database.DSN)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, Log{Level: "debug", Format: "json"}, cfg.Log)
	assert.False(t, cfg.Host.AutoMine)
}

func TestFromString_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing owner", `server: listen: ":1"`},
		{"empty owner", `owner: ""`},
		{"unknown driver", `owner: "o", database: driver: "mysql"`},
		{"unknown field", `owner: "o", colour: "blue"`},
		{"bad level", `owner: "o", log: level: "trace"`},
		{"wrong type", `owner: "o", host: auto_mine: "yes"`},
		{"syntax", `owner: "o`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromString(tt.src, "bad.cue")
			require.Error(t, err)
		})
	}
}

func TestFromString_ErrorHasPosition(t *testing.T) {
	_, err := FromString("owner: \"o\"\nlog: level: \"trace\"\n", "pos.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pos.cue")
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `owner: "ST1OWNER", database: dsn: "ledger.db"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ST1OWNER", cfg.Owner)
	assert.Equal(t, "ledger.db", cfg.Database.DSN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_OverridesWin(t *testing.T) {
	path := writeConfig(t, `owner: "ST1FILE", database: dsn: "file.db"`)

	cfg, err := Resolve(path, true, Overrides{Owner: "ST1FLAG", DSN: "flag.db"})
	require.NoError(t, err)
	assert.Equal(t, "ST1FLAG", cfg.Owner)
	assert.Equal(t, "flag.db", cfg.Database.DSN)
}

func TestResolve_OwnerFillsMissingField(t *testing.T) {
	path := writeConfig(t, `server: listen: ":9999"`)

	cfg, err := Resolve(path, true, Overrides{Owner: "ST1FLAG"})
	require.NoError(t, err)
	assert.Equal(t, "ST1FLAG", cfg.Owner)
	assert.Equal(t, ":9999", cfg.Server.Listen)
}

func TestResolve_OptionalMissingFile(t *testing.T) {
	absent := filepath.Join(t.TempDir(), "absent.cue")

	cfg, err := Resolve(absent, false, Overrides{Owner: "ST1FLAG", DSN: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "ST1FLAG", cfg.Owner)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
	assert.Equal(t, "sqlite", cfg.Database.Driver)

	_, err = Resolve(absent, false, Overrides{})
	require.Error(t, err, "owner is still required")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Log{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "stone_id", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"stone_id":7`)

	buf.Reset()
	NewLogger(Log{Level: "debug", Format: "text"}, &buf).Debug("trace", "seq", 3)
	assert.Contains(t, buf.String(), "msg=trace seq=3")
}
