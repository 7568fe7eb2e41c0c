package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var (
	unitPath  = "/etc/systemd/system/timer24h.service"
	systemctl = "/bin/systemctl"
)

// UnitPath is where Install writes the service file.
func UnitPath() string {
	return unitPath
}

// Install writes the systemd unit for the current executable and starts it.
func Install(configPath, socketPath string) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	unit, err := Unit{
		ExePath:    exePath,
		ConfigPath: configPath,
		SocketPath: socketPath,
	}.Render()
	if err != nil {
		return fmt.Errorf("failed to render unit: %w", err)
	}

	logrus.Infof("writing systemd unit to %s", unitPath)

	err = os.MkdirAll(filepath.Dir(unitPath), 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(unitPath), err)
	}

	// warn if the file already exists
	_, err = os.Stat(unitPath)
	if err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	err = os.WriteFile(unitPath, unit, 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	logrus.Infof("starting timer24h")

	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", "--now", filepath.Base(unitPath)},
	} {
		out, err := exec.Command(systemctl, args...).CombinedOutput()
		if err != nil {
			return fmt.Errorf("systemctl %v failed: %w: %s", args, err, out)
		}
	}

	return nil
}
