package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/quizladder/internal/config"
)

type testConfig struct {
	HTTP struct {
		Port      int32
		RateLimit float64
	}

	Redis struct {
		Addrs []string
	}

	Board struct {
		MaxBox    int
		Shortcuts []struct {
			From int
			To   int
		}
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad(t *testing.T) {
	p := writeFile(t, `
http:
  ratelimit: 2.5
redis:
  addrs: ["localhost:6379"]
board:
  maxbox: 30
  shortcuts:
    - from: 3
      to: 10
    - from: 25
      to: 5
`)

	var c testConfig
	c.HTTP.Port = 8080
	c.Board.MaxBox = 28

	require.NoError(t, config.Load(p, &c))

	assert.EqualValues(t, 8080, c.HTTP.Port, "default kept")
	assert.Equal(t, 2.5, c.HTTP.RateLimit)
	assert.Equal(t, []string{"localhost:6379"}, c.Redis.Addrs)
	assert.Equal(t, 30, c.Board.MaxBox)
	require.Len(t, c.Board.Shortcuts, 2)
	assert.Equal(t, 25, c.Board.Shortcuts[1].From)
}

func TestLoad_Env(t *testing.T) {
	p := writeFile(t, "http:\n  port: 9000\n")
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("QL_BOARD_MAXBOX", "40")

	tests := map[string]struct {
		opts       []config.Option
		wantPort   int32
		wantMaxBox int
	}{
		"no prefix": {
			wantPort:   9100,
			wantMaxBox: 28,
		},
		"prefix": {
			opts:       []config.Option{config.WithEnvPrefix("QL")},
			wantPort:   9000,
			wantMaxBox: 40,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var c testConfig
			c.Board.MaxBox = 28

			require.NoError(t, config.Load(p, &c, tt.opts...))
			assert.Equal(t, tt.wantPort, c.HTTP.Port)
			assert.Equal(t, tt.wantMaxBox, c.Board.MaxBox)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var c testConfig
	err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), &c)
	require.Error(t, err)
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("HTTP_PORT", "7000")

	var c testConfig
	require.NoError(t, config.Load("", &c))
	assert.EqualValues(t, 7000, c.HTTP.Port)
}
