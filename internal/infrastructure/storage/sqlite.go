package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aura-runtime/internal/application/port/output"

	_ "modernc.org/sqlite"
)

var _ output.StoragePort = (*SQLiteStore)(nil)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

const DefaultPollInterval = 500 * time.Millisecond

// SQLiteStore persists extension-local state in a single kv table.
// Other processes may share the file; their writes to subscribed keys are
// picked up by polling.
type SQLiteStore struct {
	db   *sql.DB
	hub  *hub
	poll time.Duration

	// wmu orders local writes against polls so a local write is never
	// reported twice.
	wmu     sync.Mutex
	mu      sync.Mutex
	watched map[string]int
	seen    map[string]seenValue

	pollOnce  sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	wg        sync.WaitGroup
}

type seenValue struct {
	value  []byte
	exists bool
}

type Option func(*SQLiteStore)

// WithPollInterval sets how often subscribed keys are checked for writes
// made through other handles.
func WithPollInterval(d time.Duration) Option {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.poll = d
		}
	}
}

func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		hub:     newHub(),
		poll:    DefaultPollInterval,
		watched: make(map[string]int),
		seen:    make(map[string]seenValue),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	s.remember(key, seenValue{value: append([]byte(nil), value...), exists: true})
	s.hub.publish(key, value)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	s.remember(key, seenValue{})
	s.hub.publish(key, nil)
	return nil
}

// Subscribe reports writes to key made through this handle right away and
// writes made through other handles on the next poll.
func (s *SQLiteStore) Subscribe(key string) (<-chan output.StorageChange, func()) {
	ch, cancel := s.hub.subscribe(key)

	s.mu.Lock()
	s.watched[key]++
	first := s.watched[key] == 1
	s.mu.Unlock()

	if first {
		cur, err := s.read(context.Background(), key)
		if err == nil {
			s.mu.Lock()
			if _, ok := s.seen[key]; !ok {
				s.seen[key] = cur
			}
			s.mu.Unlock()
		}
	}
	s.pollOnce.Do(func() {
		s.wg.Add(1)
		go s.pollLoop()
	})

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			cancel()
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.watched[key]--; s.watched[key] <= 0 {
				delete(s.watched, key)
				delete(s.seen, key)
			}
		})
	}
}

func (s *SQLiteStore) remember(key string, v seenValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watched[key] > 0 {
		s.seen[key] = v
	}
}

func (s *SQLiteStore) read(ctx context.Context, key string) (seenValue, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return seenValue{}, err
	}
	return seenValue{value: v, exists: ok}, nil
}

func (s *SQLiteStore) pollLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.check()
		}
	}
}

// check publishes every watched key whose stored value differs from
// the last one seen.
func (s *SQLiteStore) check() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.watched))
	for k := range s.watched {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.wmu.Lock()
		ctx, cancel := context.WithTimeout(context.Background(), s.poll)
		cur, err := s.read(ctx, key)
		cancel()
		if err != nil {
			s.wmu.Unlock()
			continue
		}

		s.mu.Lock()
		prev, known := s.seen[key]
		changed := s.watched[key] > 0 &&
			(!known || prev.exists != cur.exists || !bytes.Equal(prev.value, cur.value))
		if changed {
			s.seen[key] = cur
		}
		s.mu.Unlock()

		if changed {
			s.hub.publish(key, cur.value)
		}
		s.wmu.Unlock()
	}
}

func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.hub.closeAll()
		err = s.db.Close()
	})
	return err
}
