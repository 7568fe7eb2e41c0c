package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/config"
	"github.com/charlie0129/timer24h/pkg/events"
	"github.com/charlie0129/timer24h/pkg/slotclock"
	"github.com/charlie0129/timer24h/pkg/storage"
)

// Run serves the schedule store until SIGINT or SIGTERM. An empty
// unixSocketPath uses the one from the config file.
func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	if unixSocketPath == "" {
		unixSocketPath = conf.SocketPath()
	}

	loc, err := conf.Location()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(conf.StoragePath()), 0o755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create storage directory")
	}
	backend, err := storage.Open(conf.StorageDriver(), conf.StoragePath())
	if err != nil {
		return err
	}
	defer func() {
		logrus.Info("closing storage")
		if err := backend.Close(); err != nil {
			logrus.Errorf("failed to close storage: %v", err)
		}
	}()

	var srv *Server
	clock := slotclock.New(
		slotclock.WithLocation(loc),
		slotclock.WithInterval(conf.PollInterval()),
		slotclock.OnChange(func(slot int) {
			if srv != nil {
				srv.publishSlot(slot)
			}
		}),
	)
	srv = NewServer(backend, events.NewEventHub(events.SlotChanged), clock, logrus.StandardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fire exactly at slot boundaries; the polling loop covers missed
	// boundaries, e.g. after the host slept.
	ticker, err := NewBoundaryTicker(loc, func(time.Time) {
		clock.Resolve()
	})
	if err != nil {
		return pkgerrors.Wrap(err, "failed to start slot ticker")
	}
	ticker.Start()
	defer ticker.Stop()

	go func() {
		_ = clock.Run(ctx)
	}()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			if err := reload(conf, clock, ticker); err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	}()

	httpSrv := &http.Server{
		Handler: srv.Router(),
	}

	// A socket left behind by a crashed daemon would make Listen fail.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrapf(err, "failed to remove stale socket %s", unixSocketPath)
	}
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		if err := os.Chmod(unixSocketPath, 0777); err != nil {
			return err
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := httpSrv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		logrus.Infof("caught signal \"%s\": shutting down.", sig)
	case err := <-serveErr:
		logrus.Errorf("http server failed: %v", err)
		return err
	}

	logrus.Info("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}

	logrus.Info("exiting")
	return nil
}

// reload re-reads the config file and applies what can change at runtime.
func reload(conf *config.File, clock *slotclock.Resolver, ticker *BoundaryTicker) error {
	if err := conf.Load(); err != nil {
		return err
	}
	loc, err := conf.Location()
	if err != nil {
		return err
	}
	if loc.String() != clock.Location().String() {
		logrus.WithField("timezone", loc.String()).Info("timezone changed")
		clock.SetLocation(loc)
		return ticker.SetLocation(loc)
	}
	return nil
}
