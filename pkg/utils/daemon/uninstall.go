package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

func Uninstall() error {
	logrus.Infof("stopping timer24h")

	out, err := exec.Command(systemctl, "disable", "--now", filepath.Base(unitPath)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to disable %s: %w: %s. Are you root?", unitPath, err, out)
	}

	logrus.Infof("removing systemd unit")

	err = os.Remove(unitPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w. Are you root?", unitPath, err)
	}

	return exec.Command(systemctl, "daemon-reload").Run()
}
