package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/charlie0129/timer24h/pkg/client"
	"github.com/charlie0129/timer24h/pkg/config"
	"github.com/charlie0129/timer24h/pkg/schedule"
	"github.com/charlie0129/timer24h/pkg/store"
	"github.com/charlie0129/timer24h/pkg/syncer"
	"github.com/charlie0129/timer24h/pkg/version"
)

var (
	logLevel       = "info"
	unixSocketPath = config.DefaultSocketPath
	configPath     = config.DefaultConfigPath
)

var (
	gBasic        = "Basic:"
	gEditing      = "Editing:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gEditing,
		gAdvanced,
	}
)

var apiClient = client.NewClient(config.DefaultSocketPath)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	var partial *syncer.PartialCommitError
	switch {
	case errors.Is(err, client.ErrDaemonNotRunning):
		fmt.Fprintln(os.Stderr, "\nError: timer24h daemon is not running")
		fmt.Fprintln(os.Stderr, "Is the daemon running? Start it with 'timer24h daemon'.")
	case errors.Is(err, client.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or restart the daemon with '--always-allow-non-root-access'")
	case errors.As(err, &partial):
		fmt.Fprintf(os.Stderr, "\nThe schedule of %s was saved, but its conditions were not.\n", partial.ID)
		fmt.Fprintln(os.Stderr, "Run the same condition command again to retry.")
	case errors.Is(err, schedule.ErrValidation):
		fmt.Fprintln(os.Stderr, "\nNothing was sent to the daemon.")
	case errors.Is(err, store.ErrUnknownSchedule), errors.Is(err, client.ErrNotFound):
		fmt.Fprintln(os.Stderr, "\nUse 'timer24h list' to see existing schedules.")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer24h",
		Short: "timer24h edits recurring 24-hour half-hour schedules",
		Long: `timer24h edits recurring 24-hour schedules made of 48 half-hour slots.

Every schedule switches one target entity on during its active slots. Conditions
can skip, force off or defer a slot depending on the state of other entities.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			apiClient = client.NewClient(unixSocketPath)
			if conf, err := config.NewFile(configPath); err == nil {
				refreshConcurrency = conf.RefreshConcurrency()
			}
			if cmd.Name() == "daemon" || cmd.Name() == "version" {
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
			defer cancel()
			if daemonVersion, err := apiClient.Version(ctx); err == nil && daemonVersion != version.Version {
				logrus.WithFields(logrus.Fields{
					"clientVersion": version.Version,
					"daemonVersion": daemonVersion,
				}).Warn("Version mismatch between client and daemon. timer24h may not work as expected.")
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path (.json or .toml)")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "timer24h daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewListCommand(),
		NewShowCommand(),
		NewNowCommand(),
		NewWatchCommand(),
		NewPreviewCommand(),
		NewCreateCommand(),
		NewPaintCommand(),
		NewSetCommand(),
		NewConditionCommand(),
		NewEnableCommand(),
		NewDisableCommand(),
		NewRemoveCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}
