package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	cfg := []string{"-c", "-config"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"config with separate value", []string{"-c", "clipvault.json", "-a", ":8080"}, cfg, []string{"-c", "clipvault.json"}},
		{"config with equals", []string{"-config=/etc/clipvault.json", "-store", "memory"}, cfg, []string{"-config=/etc/clipvault.json"}},
		{"both forms keep order", []string{"-config=a.json", "-retention", "720h", "-c", "b.json"}, cfg, []string{"-config=a.json", "-c", "b.json"}},
		{"server flags dropped", []string{"-a", ":8080", "-d", "sqlite", "-store=memory", "upload"}, cfg, []string{}},
		{"trailing flag without value", []string{"-store", "s3", "-c"}, cfg, []string{"-c"}},
		{"dash token is not a value", []string{"-c", "-a", ":8080"}, cfg, []string{"-c"}},
		{"equals value may start with dash", []string{"-config=-odd.json"}, cfg, []string{"-config=-odd.json"}},
		{"several allowed flags", []string{"-a", ":9090", "-c", "dev.json", "-v"}, []string{"-a", "-c"}, []string{"-a", ":9090", "-c", "dev.json"}},
		{"nil args", nil, cfg, []string{}},
		{"repeated flag", []string{"-c", "base.json", "-c", "local.json"}, cfg, []string{"-c", "base.json", "-c", "local.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv(ConfigEnvName, "")

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/short.json"}
		assert.Equal(t, "/path/short.json", ConfigPath())
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "/path/long.json"}
		assert.Equal(t, "/path/long.json", ConfigPath())
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		os.Args = []string{"testbin", "-x", "1", "-y", "2"}
		assert.Empty(t, ConfigPath())
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/1.json", "-config", "/path/2.json"}
		assert.Equal(t, "/path/2.json", ConfigPath())
	})

	t.Run("env fallback when no flag", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv(ConfigEnvName, "/etc/clipvault.json")
		assert.Equal(t, "/etc/clipvault.json", ConfigPath())
	})

	t.Run("flag beats env", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/flag.json"}
		t.Setenv(ConfigEnvName, "/etc/clipvault.json")
		assert.Equal(t, "/path/flag.json", ConfigPath())
	})
}
