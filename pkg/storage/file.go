package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

type fileDocument struct {
	Schedules []schedule.Schedule `json:"schedules"`
}

// File keeps every schedule in one JSON document that is rewritten on each
// change.
type File struct {
	mu     sync.Mutex
	path   string
	scheds []schedule.Schedule
}

// OpenFile loads path, creating an empty store if it does not exist.
func OpenFile(path string) (*File, error) {
	f := &File{path: path}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logrus.WithField("path", path).Info("storage file does not exist, starting empty")
		return f, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read %s", path)
	}
	if len(b) == 0 {
		return f, nil
	}

	var doc fileDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to decode %s", path)
	}
	f.scheds = doc.Schedules
	return f, nil
}

func (f *File) List(_ context.Context) ([]schedule.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]schedule.Schedule, 0, len(f.scheds))
	for _, s := range f.scheds {
		out = append(out, s.Clone())
	}
	return out, nil
}

func (f *File) Get(_ context.Context, id string) (schedule.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i := f.indexOf(id); i >= 0 {
		return f.scheds[i].Clone(), nil
	}
	return schedule.Schedule{}, ErrNotFound
}

func (f *File) Put(_ context.Context, s schedule.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := append([]schedule.Schedule(nil), f.scheds...)
	if i := f.indexOf(s.ID); i >= 0 {
		next[i] = s.Clone()
	} else {
		next = append(next, s.Clone())
	}
	if err := f.write(next); err != nil {
		return err
	}
	f.scheds = next
	return nil
}

func (f *File) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	next := append(append([]schedule.Schedule(nil), f.scheds[:i]...), f.scheds[i+1:]...)
	if err := f.write(next); err != nil {
		return err
	}
	f.scheds = next
	return nil
}

func (f *File) Close() error {
	return nil
}

func (f *File) indexOf(id string) int {
	for i, s := range f.scheds {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// write replaces the file atomically.
func (f *File) write(scheds []schedule.Schedule) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create directory for %s", f.path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create temporary file")
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if scheds == nil {
		scheds = []schedule.Schedule{}
	}
	if err := enc.Encode(fileDocument{Schedules: scheds}); err != nil {
		_ = tmp.Close()
		return pkgerrors.Wrapf(err, "failed to encode %s", f.path)
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(err, "failed to close temporary file")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return pkgerrors.Wrapf(err, "failed to replace %s", f.path)
	}
	return nil
}
