package record

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// Session is one row of the session index.
type Session struct {
	ID         string
	StartedAt  int64 // unix seconds
	TickRate   int
	Ticks      uint32
	Characters int
	Path       string
	Bytes      int64
}

// Index is a sqlite-backed catalog of recorded sessions. Inserts go
// through a channel so the caller never blocks on disk.
type Index struct {
	db *sql.DB

	ch   chan Session
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

// OpenIndex opens or creates the session index database.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	x := &Index{
		db: db,
		ch: make(chan Session, 256),
	}
	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		x.loop()
	}()
	return x, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			tick_rate INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			characters INTEGER NOT NULL,
			path TEXT NOT NULL,
			bytes INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record queues a session row for insertion. Dropped if the index has
// fallen behind or is closed; the journal file remains the source of truth.
func (x *Index) Record(s Session) {
	if x == nil || x.closed.Load() {
		return
	}
	select {
	case x.ch <- s:
	default:
	}
}

// Sessions returns all recorded sessions, most recent first.
func (x *Index) Sessions() ([]Session, error) {
	rows, err := x.db.Query(
		`SELECT id, started_at, tick_rate, ticks, characters, path, bytes
		 FROM sessions ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.TickRate, &s.Ticks, &s.Characters, &s.Path, &s.Bytes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Lookup returns one session by id.
func (x *Index) Lookup(id string) (Session, error) {
	var s Session
	err := x.db.QueryRow(
		`SELECT id, started_at, tick_rate, ticks, characters, path, bytes
		 FROM sessions WHERE id = ?`, id).
		Scan(&s.ID, &s.StartedAt, &s.TickRate, &s.Ticks, &s.Characters, &s.Path, &s.Bytes)
	return s, err
}

// Close drains pending inserts and closes the database.
func (x *Index) Close() error {
	var err error
	x.once.Do(func() {
		x.closed.Store(true)
		close(x.ch)
		x.wg.Wait()
		err = x.db.Close()
	})
	return err
}

func (x *Index) loop() {
	for s := range x.ch {
		_, _ = x.db.Exec(
			`INSERT OR REPLACE INTO sessions(id, started_at, tick_rate, ticks, characters, path, bytes)
			 VALUES(?,?,?,?,?,?,?)`,
			s.ID, s.StartedAt, s.TickRate, int64(s.Ticks), s.Characters, s.Path, s.Bytes)
	}
}
