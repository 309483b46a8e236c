package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	limit int64
	name  string
	calls []string
}

func withLimit(v int64) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if v < 0 {
			return errors.New("limit cannot be negative")
		}
		c.limit = v
		c.calls = append(c.calls, "limit")

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.name = name
		c.calls = append(c.calls, "name")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withName("a"), withLimit(10), withName("b"))
		require.NoError(t, err)
		require.Equal(t, int64(10), cfg.limit)
		require.Equal(t, "b", cfg.name)
		require.Equal(t, []string{"name", "limit", "name"}, cfg.calls)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withLimit(-1), withName("never"))
		require.EqualError(t, err, "limit cannot be negative")
		require.Empty(t, cfg.name)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg, nil, withName("x")))
		require.Equal(t, "x", cfg.name)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &testConfig{limit: 3}
		require.NoError(t, Apply(cfg))
		require.Equal(t, int64(3), cfg.limit)
	})
}
