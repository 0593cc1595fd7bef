// Package store persists calibration results and timing-check history in a
// local sqlite database so a player's latency compensation survives
// sessions.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

// CheckRecord is one persisted validation outcome.
type CheckRecord struct {
	Tag      string
	Hit      bool
	Accuracy float64
	OffsetMs float64
	When     time.Time
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if nil != err {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	initStatement := `
	create table if not exists calibrations
	  (
		  id integer not null primary key,
		  offset_ms real,
		  success integer,
		  created_at integer
	  );
	create table if not exists checks
	  (
		  id integer not null primary key,
		  tag text,
		  hit integer,
		  accuracy real,
		  offset_ms real,
		  created_at integer
	  );
	`
	if _, err := db.Exec(initStatement); nil != err {
		db.Close()
		return nil, fmt.Errorf("unable to initialize database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() {
	if nil != s.db {
		s.db.Close()
	}
}

// SaveCalibration records a completed calibration sequence.
func (s *Store) SaveCalibration(offsetMs float64, success bool) error {
	_, err := s.db.Exec(
		"insert into calibrations(offset_ms, success, created_at) values(?, ?, ?)",
		offsetMs, success, time.Now().Unix())
	if nil != err {
		return fmt.Errorf("unable to save calibration: %w", err)
	}
	return nil
}

// LastCalibration returns the most recent successful calibration offset.
// The bool result is false when none has been recorded.
func (s *Store) LastCalibration() (float64, bool, error) {
	row := s.db.QueryRow(
		"select offset_ms from calibrations where success = 1 order by created_at desc, id desc limit 1")
	var offset float64
	if err := row.Scan(&offset); nil != err {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("unable to load calibration: %w", err)
	}
	return offset, true, nil
}

// SaveCheck records a validation outcome.
func (s *Store) SaveCheck(rec CheckRecord) error {
	when := rec.When
	if when.IsZero() {
		when = time.Now()
	}
	_, err := s.db.Exec(
		"insert into checks(tag, hit, accuracy, offset_ms, created_at) values(?, ?, ?, ?, ?)",
		rec.Tag, rec.Hit, rec.Accuracy, rec.OffsetMs, when.Unix())
	if nil != err {
		return fmt.Errorf("unable to save check: %w", err)
	}
	return nil
}

// RecentChecks loads up to limit validation outcomes, newest first.
func (s *Store) RecentChecks(limit int) ([]CheckRecord, error) {
	rows, err := s.db.Query(
		"select tag, hit, accuracy, offset_ms, created_at from checks order by created_at desc, id desc limit ?", limit)
	if nil != err {
		return nil, fmt.Errorf("unable to load checks: %w", err)
	}
	defer rows.Close()

	records := []CheckRecord{}
	for rows.Next() {
		var rec CheckRecord
		var createdAt int64
		if err := rows.Scan(&rec.Tag, &rec.Hit, &rec.Accuracy, &rec.OffsetMs, &createdAt); nil != err {
			return nil, fmt.Errorf("unable to scan check: %w", err)
		}
		rec.When = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}
