package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	output, input, err := cfg.Budget.Limits()
	require.NoError(t, err)
	require.Zero(t, output)
	require.Zero(t, input)
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("COLCHUNK_BUDGET_OUTPUT", "64MiB")
	t.Setenv("COLCHUNK_BUDGET_INPUT", "1 GB")
	t.Setenv("COLCHUNK_LOG_LEVEL", "debug")
	t.Setenv("COLCHUNK_S3_PATH_STYLE", "true")
	t.Setenv("COLCHUNK_S3_ENDPOINT", "http://localhost:9000")

	cfg, err := Load("")
	require.NoError(t, err)

	output, input, err := cfg.Budget.Limits()
	require.NoError(t, err)
	require.Equal(t, int64(64<<20), output)
	require.Equal(t, int64(1_000_000_000), input)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)

	opts := cfg.S3.ClientOptions()
	require.True(t, opts.UsePathStyle)
	require.Equal(t, "http://localhost:9000", opts.Endpoint)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colchunk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
budget:
  output: 8MiB
log:
  format: json
  file: /tmp/colchunk.log
s3:
  region: eu-west-1
`), 0o600))
	t.Setenv("COLCHUNK_BUDGET_INPUT", "32MiB")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "8MiB", cfg.Budget.Output)
	require.Equal(t, "32MiB", cfg.Budget.Input)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "/tmp/colchunk.log", cfg.Log.File)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "eu-west-1", cfg.S3.Region)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	t.Setenv("COLCHUNK_BUDGET_OUTPUT", "lots")
	_, err = Load("")
	require.ErrorContains(t, err, "budget.output")

	t.Setenv("COLCHUNK_BUDGET_OUTPUT", "")
	t.Setenv("COLCHUNK_LOG_LEVEL", "chatty")
	_, err = Load("")
	require.ErrorContains(t, err, "log.level")
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1024", 1024, false},
		{"4KiB", 4096, false},
		{"2 MB", 2_000_000, false},
		{" 1GiB ", 1 << 30, false},
		{"-5", 0, true},
		{"many", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
