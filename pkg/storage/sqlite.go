package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/charlie0129/timer24h/pkg/schedule"
)

const schema = `
CREATE TABLE IF NOT EXISTS schedules (
	id         TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	slots      TEXT NOT NULL,
	enabled    INTEGER NOT NULL,
	timezone   TEXT,
	conditions TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLite keeps one row per schedule; slots and conditions are JSON columns.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open database %s", path)
	}
	// a single connection serializes writers and keeps :memory: databases
	// shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrapf(err, "failed to connect to database %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "failed to run migrations")
	}

	logrus.WithField("path", path).Debug("sqlite storage opened")
	return &SQLite{db: db}, nil
}

func (s *SQLite) List(ctx context.Context) ([]schedule.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, target, slots, enabled, timezone, conditions
		FROM schedules
		ORDER BY rowid`)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query schedules")
	}
	defer rows.Close()

	var out []schedule.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to iterate schedules")
	}
	return out, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (schedule.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, target, slots, enabled, timezone, conditions
		FROM schedules
		WHERE id = ?`, id)
	sched, err := scanSchedule(row)
	if pkgerrors.Is(err, sql.ErrNoRows) {
		return schedule.Schedule{}, ErrNotFound
	}
	return sched, err
}

func (s *SQLite) Put(ctx context.Context, sched schedule.Schedule) error {
	slots, err := json.Marshal(sched.Slots)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode slots")
	}
	conds := sched.Conditions
	if conds == nil {
		conds = schedule.Conditions{}
	}
	condJSON, err := json.Marshal(conds)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode conditions")
	}

	var tz sql.NullString
	if sched.Timezone != nil {
		tz = sql.NullString{String: *sched.Timezone, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, target, slots, enabled, timezone, conditions, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			target = excluded.target,
			slots = excluded.slots,
			enabled = excluded.enabled,
			timezone = excluded.timezone,
			conditions = excluded.conditions,
			updated_at = excluded.updated_at`,
		sched.ID, sched.Target, string(slots), sched.Enabled, tz, string(condJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to store schedule %s", sched.ID)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to delete schedule %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to get affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row scanner) (schedule.Schedule, error) {
	var (
		sched    schedule.Schedule
		slots    string
		conds    string
		timezone sql.NullString
	)
	if err := row.Scan(&sched.ID, &sched.Target, &slots, &sched.Enabled, &timezone, &conds); err != nil {
		if pkgerrors.Is(err, sql.ErrNoRows) {
			return sched, err
		}
		return sched, pkgerrors.Wrap(err, "failed to scan schedule")
	}
	if err := json.Unmarshal([]byte(slots), &sched.Slots); err != nil {
		return sched, pkgerrors.Wrapf(err, "failed to decode slots of %s", sched.ID)
	}
	if err := json.Unmarshal([]byte(conds), &sched.Conditions); err != nil {
		return sched, pkgerrors.Wrapf(err, "failed to decode conditions of %s", sched.ID)
	}
	if timezone.Valid {
		tz := timezone.String
		sched.Timezone = &tz
	}
	return sched, nil
}
