package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/utils/ptr"
)

const (
	DefaultSocketPath = "/var/run/timer24h.sock"
	DefaultConfigPath = "/etc/timer24h.json"
)

var (
	defaultFileConfig = &RawFileConfig{
		SocketPath:          ptr.To(DefaultSocketPath),
		StorageDriver:       ptr.To("sqlite"),
		StoragePath:         ptr.To("/var/lib/timer24h/timer24h.db"),
		Timezone:            ptr.To(""),
		PollIntervalSeconds: ptr.To(30),
		RefreshConcurrency:  ptr.To(8),
		AllowNonRootAccess:  ptr.To(false),
	}
)

var _ Config = &File{}

// File is a Config stored on disk. Paths ending in .toml are read and written
// as TOML, everything else as JSON.
type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

type RawFileConfig struct {
	SocketPath          *string `json:"socketPath,omitempty" toml:"socketPath,omitempty"`
	StorageDriver       *string `json:"storageDriver,omitempty" toml:"storageDriver,omitempty"`
	StoragePath         *string `json:"storagePath,omitempty" toml:"storagePath,omitempty"`
	Timezone            *string `json:"timezone,omitempty" toml:"timezone,omitempty"`
	PollIntervalSeconds *int    `json:"pollIntervalSeconds,omitempty" toml:"pollIntervalSeconds,omitempty"`
	RefreshConcurrency  *int    `json:"refreshConcurrency,omitempty" toml:"refreshConcurrency,omitempty"`
	AllowNonRootAccess  *bool   `json:"allowNonRootAccess,omitempty" toml:"allowNonRootAccess,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	return &RawFileConfig{
		SocketPath:          ptr.To(c.SocketPath()),
		StorageDriver:       ptr.To(c.StorageDriver()),
		StoragePath:         ptr.To(c.StoragePath()),
		Timezone:            ptr.To(c.Timezone()),
		PollIntervalSeconds: ptr.To(int(c.PollInterval() / time.Second)),
		RefreshConcurrency:  ptr.To(c.RefreshConcurrency()),
		AllowNonRootAccess:  ptr.To(c.AllowNonRootAccess()),
	}, nil
}

func (f *File) raw() *RawFileConfig {
	if f.c == nil {
		panic("config is nil")
	}
	return f.c
}

func (f *File) SocketPath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.raw().SocketPath, *defaultFileConfig.SocketPath)
}

func (f *File) StorageDriver() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.raw().StorageDriver, *defaultFileConfig.StorageDriver)
}

func (f *File) StoragePath() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.raw().StoragePath, *defaultFileConfig.StoragePath)
}

func (f *File) Timezone() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.raw().Timezone, *defaultFileConfig.Timezone)
}

// Location resolves Timezone.
func (f *File) Location() (*time.Location, error) {
	tz := f.Timezone()
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to load timezone %s", tz)
	}
	return loc, nil
}

func (f *File) PollInterval() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()

	secs := ptr.Deref(f.raw().PollIntervalSeconds, *defaultFileConfig.PollIntervalSeconds)
	if secs <= 0 {
		secs = *defaultFileConfig.PollIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}

func (f *File) RefreshConcurrency() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := ptr.Deref(f.raw().RefreshConcurrency, *defaultFileConfig.RefreshConcurrency)
	if n <= 0 {
		n = *defaultFileConfig.RefreshConcurrency
	}
	return n
}

func (f *File) AllowNonRootAccess() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ptr.Deref(f.raw().AllowNonRootAccess, *defaultFileConfig.AllowNonRootAccess)
}

func (f *File) SetStorage(driver, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw().StorageDriver = &driver
	f.raw().StoragePath = &path
}

func (f *File) SetTimezone(tz string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw().Timezone = &tz
}

func (f *File) SetAllowNonRootAccess(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw().AllowNonRootAccess = &b
}

func (f *File) isTOML() bool {
	return strings.EqualFold(filepath.Ext(f.filepath), ".toml")
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using a decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if f.isTOML() {
		err = toml.Unmarshal(b, &conf)
	} else {
		err = json.Unmarshal(b, &conf)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	if f.isTOML() {
		err = toml.NewEncoder(fp).Encode(f.c)
	} else {
		enc := json.NewEncoder(fp)
		enc.SetIndent("", "  ")
		err = enc.Encode(f.c)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"socketPath":         f.SocketPath(),
		"storageDriver":      f.StorageDriver(),
		"storagePath":        f.StoragePath(),
		"timezone":           f.Timezone(),
		"pollInterval":       f.PollInterval().String(),
		"refreshConcurrency": f.RefreshConcurrency(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
	}
}
