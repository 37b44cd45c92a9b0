// Package runlog records compilation runs in a SQLite table.
package runlog

import (
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Run is one compilation.
type Run struct {
	ID       int64
	File     string
	Key      string // cache key of source and options
	Cached   bool
	Errors   int
	Warnings int
	Duration time.Duration
	At       time.Time
}

// Log is a run log. A single connection is shared, so calls are
// serialized.
type Log struct {
	mu     sync.Mutex
	conn   *sqlite.Conn
	insert *sqlite.Stmt
	recent *sqlite.Stmt
}

// Open opens or creates the run log at path.
func Open(path string) (*Log, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		return nil, err
	}
	l := &Log{conn: conn}
	if err := l.prepare(); err != nil {
		conn.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) prepare() (err error) {
	err = sqlitex.ExecuteTransient(l.conn, "CREATE TABLE IF NOT EXISTS runs (`id` INTEGER PRIMARY KEY, "+
		"`file` TEXT, `key` TEXT, `cached` INTEGER, `errors` INTEGER, `warnings` INTEGER, "+
		"`duration` INTEGER, `at` INTEGER);", nil)
	if err != nil {
		return err
	}
	l.insert, err = l.conn.Prepare("INSERT INTO runs (`file`, `key`, `cached`, `errors`, `warnings`, `duration`, `at`) VALUES" +
		" ($file, $key, $cached, $errors, $warnings, $duration, $at);")
	if err != nil {
		return err
	}
	l.recent, err = l.conn.Prepare("SELECT `id`, `file`, `key`, `cached`, `errors`, `warnings`, `duration`, `at` FROM runs " +
		"ORDER BY `id` DESC LIMIT $limit;")
	return err
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.Close()
}

// Record appends r and sets its ID.
func (l *Log) Record(r *Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.insert.Reset()

	if r.At.IsZero() {
		r.At = time.Now()
	}
	cached := int64(0)
	if r.Cached {
		cached = 1
	}
	l.insert.SetText("$file", r.File)
	l.insert.SetText("$key", r.Key)
	l.insert.SetInt64("$cached", cached)
	l.insert.SetInt64("$errors", int64(r.Errors))
	l.insert.SetInt64("$warnings", int64(r.Warnings))
	l.insert.SetInt64("$duration", int64(r.Duration))
	l.insert.SetInt64("$at", r.At.UnixNano())
	if _, err := l.insert.Step(); err != nil {
		return err
	}
	r.ID = l.conn.LastInsertRowID()
	return nil
}

// Recent returns up to limit runs, newest first.
func (l *Log) Recent(limit int) ([]Run, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.recent.Reset()

	l.recent.SetInt64("$limit", int64(limit))
	var runs []Run
	for {
		hasRow, err := l.recent.Step()
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		runs = append(runs, Run{
			ID:       l.recent.GetInt64("id"),
			File:     l.recent.GetText("file"),
			Key:      l.recent.GetText("key"),
			Cached:   l.recent.GetInt64("cached") != 0,
			Errors:   int(l.recent.GetInt64("errors")),
			Warnings: int(l.recent.GetInt64("warnings")),
			Duration: time.Duration(l.recent.GetInt64("duration")),
			At:       time.Unix(0, l.recent.GetInt64("at")),
		})
	}
	return runs, nil
}
