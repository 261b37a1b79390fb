package config

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/ballsort/internal/cluster"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{`"1.5s"`, 1500 * time.Millisecond, false},
		{`"50ms"`, 50 * time.Millisecond, false},
		{`1000000`, time.Millisecond, false},
		{`"soon"`, 0, true},
		{`true`, 0, true},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(test.input), &d)
			if test.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, d.Duration)
		})
	}
}

func TestDurationMarshal(t *testing.T) {
	b, err := json.Marshal(Duration{4 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, `"4s"`, string(b))
}

func TestReadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"mode": "development",
		"solver": {"max_states": 10},
		"player": {"serial": "emulator-5554", "retry_delay": "1s"}
	}`)

	c, err := Read(path)
	require.NoError(t, err)
	assert.True(t, c.Development())
	assert.False(t, c.Production())
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, 10, c.Solver.MaxStates)
	assert.Equal(t, 30*time.Second, c.Solver.Timeout.Duration)
	assert.Equal(t, cluster.DefaultVisibleScale, c.Cluster.Visible)
	assert.Equal(t, "emulator-5554", c.Player.Serial)
	assert.Equal(t, time.Second, c.Player.RetryDelay.Duration)
	assert.Equal(t, 50*time.Millisecond, c.Player.WaitDelay.Duration)
	assert.Equal(t, "adb", c.Player.AdbPath)
	assert.Equal(t, uint8(100), c.Player.Threshold)
	assert.False(t, c.Postgres.Enabled())
}

func TestReadErrors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "unable to read config")

	_, err = Read(writeConfig(t, `{"mode": `))
	assert.ErrorContains(t, err, "unable to parse config")
}

func TestReadRejectsUnknownMode(t *testing.T) {
	for _, mode := range []string{"prod", "staging", ""} {
		_, err := Read(writeConfig(t, `{"mode": "`+mode+`"}`))
		assert.ErrorIs(t, err, ErrUnknownMode, mode)
	}

	c := Default()
	c.Mode = "prod"
	assert.False(t, c.Development())
	assert.False(t, c.Production())
}

func TestAllowOrigin(t *testing.T) {
	c := Default()
	assert.False(t, c.AllowOrigin("https://evil.example"))

	c.AllowedOrigins = []string{"https://app.example"}
	assert.True(t, c.AllowOrigin("https://app.example"))
	assert.False(t, c.AllowOrigin("https://evil.example"))

	c.Mode = "prod"
	assert.False(t, c.AllowOrigin("https://evil.example"))

	c.Mode = ModeDevelopment
	assert.True(t, c.AllowOrigin("https://evil.example"))
}

func TestFields(t *testing.T) {
	c := Default()
	c.Postgres.Password = "secret"
	fields := c.Fields()
	assert.Equal(t, "production", fields["mode"])
	assert.Equal(t, "30s", fields["solver_timeout"])
	for _, v := range fields {
		assert.NotEqual(t, "secret", v)
	}
}

func TestPostgresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	assert.False(t, Postgres{}.Enabled())

	p := Postgres{Host: "db", User: "ball", Password: "p@ss", DBName: "ballsort"}
	assert.True(t, p.Enabled())
	assert.Equal(t, "postgresql://ball:p%40ss@db:5432/ballsort?sslmode=disable", p.DbURL())

	p = Postgres{URL: "postgres://x/y"}
	assert.Equal(t, "postgres://x/y", p.DbURL())

	t.Setenv("DATABASE_URL", "postgres://env/db")
	assert.True(t, Postgres{}.Enabled())
	assert.Equal(t, "postgres://env/db", p.DbURL())

	pool, err := p.PgxpoolConfig()
	require.NoError(t, err)
	assert.Equal(t, "env", pool.ConnConfig.Host)
}

func TestUpgraderOrigins(t *testing.T) {
	dev := Default()
	dev.Mode = "development"
	u := NewUpgrader(dev)
	r := httptest.NewRequest("GET", "http://api.example.com/", nil)
	r.Header.Set("Origin", "http://evil.example.org")
	assert.True(t, u.CheckOrigin(r))

	prod := Default()
	prod.AllowedOrigins = []string{"https://ballsort.example.com"}
	u = NewUpgrader(prod)
	assert.False(t, u.CheckOrigin(r))
	r.Header.Set("Origin", "https://ballsort.example.com")
	assert.True(t, u.CheckOrigin(r))
	r.Header.Del("Origin")
	assert.True(t, u.CheckOrigin(r))

	typo := prod
	typo.Mode = "prod"
	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, NewUpgrader(typo).CheckOrigin(r))

	u = NewUpgrader(Default())
	assert.False(t, u.CheckOrigin(r))
	r.Header.Set("Origin", "http://api.example.com")
	assert.True(t, u.CheckOrigin(r), "same origin")
}
