package daemon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitRender(t *testing.T) {
	tests := []struct {
		name     string
		unit     Unit
		wantExec string
	}{
		{
			name:     "config only",
			unit:     Unit{ExePath: "/usr/local/bin/timer24h", ConfigPath: "/etc/timer24h.json"},
			wantExec: "ExecStart=/usr/local/bin/timer24h daemon --config /etc/timer24h.json\n",
		},
		{
			name:     "custom socket",
			unit:     Unit{ExePath: "/opt/timer24h", ConfigPath: "/etc/timer24h.toml", SocketPath: "/run/t.sock"},
			wantExec: "ExecStart=/opt/timer24h daemon --config /etc/timer24h.toml --daemon-socket /run/t.sock\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.unit.Render()
			require.NoError(t, err)
			assert.Contains(t, string(got), tt.wantExec)
			assert.True(t, strings.HasPrefix(string(got), "[Unit]\n"))
			assert.Contains(t, string(got), "WantedBy=multi-user.target")
		})
	}
}
