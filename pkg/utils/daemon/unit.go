package daemon

import (
	"bytes"
	"text/template"
)

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=timer24h schedule daemon
After=network.target

[Service]
Type=simple
ExecStart={{ .ExePath }} daemon --config {{ .ConfigPath }}{{ if .SocketPath }} --daemon-socket {{ .SocketPath }}{{ end }}
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure

[Install]
WantedBy=multi-user.target
`))

// Unit describes the systemd service that runs the daemon.
type Unit struct {
	ExePath    string
	ConfigPath string
	// SocketPath is left out of ExecStart when empty so the config decides.
	SocketPath string
}

// Render returns the unit file contents.
func (u Unit) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, u); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
