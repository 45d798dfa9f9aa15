// Package sqlite provides a log sink that stores records in a SQLite database.
// Inserts run on a background goroutine; WaitTillSent blocks until every record
// handed to Send has been written.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	log "github.com/lizyzzz/lizy-log"
)

const schema = `
CREATE TABLE IF NOT EXISTS log_records (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	session  TEXT NOT NULL,
	severity TEXT NOT NULL,
	file     TEXT NOT NULL,
	line     INTEGER NOT NULL,
	ts       INTEGER NOT NULL,
	message  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_log_records_session ON log_records(session, id);
`

const insertRecord = `INSERT INTO log_records (session, severity, file, line, ts, message) VALUES (?, ?, ?, ?, ?, ?)`

var _ log.Sink = (*Sink)(nil)

// Row is one stored record.
type Row struct {
	ID       int64
	Session  string
	Severity log.Severity
	File     string
	Line     int
	Time     time.Time
	Message  string
}

type entry struct {
	sev  log.Severity
	file string
	line int
	ts   time.Time
	msg  string
}

// Sink writes records to a SQLite table. Each Sink tags its rows with a session id.
type Sink struct {
	db      *sql.DB
	session string
	onError func(error)

	sendMu sync.RWMutex // Guards closed against concurrent Send
	closed bool
	queue  chan entry

	mu      sync.Mutex
	drained *sync.Cond
	pending int

	failed atomic.Uint64
	done   chan struct{}
}

// Option configures a Sink.
type Option func(*options)

type options struct {
	queueSize int
	onError   func(error)
}

// WithQueueSize bounds the number of records waiting for insertion. Send blocks
// when the queue is full.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithErrorHandler receives insert failures. Failed records are dropped.
func WithErrorHandler(f func(error)) Option {
	return func(o *options) {
		o.onError = f
	}
}

// Open opens or creates the database at path and starts the insert worker.
func Open(path string, opts ...Option) (*Sink, error) {
	o := options{queueSize: 1024}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer connection keeps inserts ordered
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Sink{
		db:      db,
		session: uuid.NewString(),
		onError: o.onError,
		queue:   make(chan entry, o.queueSize),
		done:    make(chan struct{}),
	}
	s.drained = sync.NewCond(&s.mu)
	go s.run()
	return s, nil
}

// Session returns the id stored with every row of this Sink.
func (s *Sink) Session() string {
	return s.session
}

// Failed returns the number of records that could not be inserted.
func (s *Sink) Failed() uint64 {
	return s.failed.Load()
}

// Send queues a record. Records sent after Close are dropped.
func (s *Sink) Send(sev log.Severity, fullPath, _ string, line int, ts time.Time, msg []byte) {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.closed {
		return
	}

	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	s.queue <- entry{sev: sev, file: fullPath, line: line, ts: ts, msg: string(msg)}
}

// WaitTillSent blocks until every queued record has been inserted or dropped.
func (s *Sink) WaitTillSent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.pending > 0 {
		s.drained.Wait()
	}
}

func (s *Sink) run() {
	defer close(s.done)

	stmt, err := s.db.Prepare(insertRecord)
	if err != nil {
		s.report(fmt.Errorf("prepare insert: %w", err))
	}

	for e := range s.queue {
		if stmt == nil {
			s.failed.Add(1)
		} else if _, err := stmt.Exec(s.session, e.sev.String(), e.file, e.line, e.ts.UnixNano(), e.msg); err != nil {
			s.failed.Add(1)
			s.report(fmt.Errorf("insert record: %w", err))
		}

		s.mu.Lock()
		s.pending--
		if s.pending == 0 {
			s.drained.Broadcast()
		}
		s.mu.Unlock()
	}

	if stmt != nil {
		_ = stmt.Close()
	}
}

func (s *Sink) report(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}

// Close drains the queue and closes the database. Remove the sink from the
// logger before closing it.
func (s *Sink) Close() error {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.sendMu.Unlock()

	<-s.done
	return s.db.Close()
}

// Records returns the rows of session in insertion order. An empty session
// selects the Sink's own.
func (s *Sink) Records(ctx context.Context, session string) ([]Row, error) {
	if session == "" {
		session = s.session
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session, severity, file, line, ts, message FROM log_records WHERE session = ? ORDER BY id`, session)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r    Row
			sev  string
			nano int64
		)
		if err := rows.Scan(&r.ID, &r.Session, &sev, &r.File, &r.Line, &nano, &r.Message); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if r.Severity, err = log.ParseSeverity(sev); err != nil {
			return nil, err
		}
		r.Time = time.Unix(0, nano)
		out = append(out, r)
	}
	return out, rows.Err()
}
