package pglock

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// Lock is a MeetingLock backed by PostgreSQL session advisory locks. Each
// held lock pins its own connection, since advisory locks belong to the
// session that took them. The TTL is ignored: a lock lives until Release or
// until the connection drops.
type Lock struct {
	db *sql.DB

	mu   sync.Mutex
	held map[string]*sql.Conn
}

func New(db *sql.DB) *Lock {
	return &Lock{db: db, held: make(map[string]*sql.Conn)}
}

func Connect(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func lockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("confsum:lock:" + name))
	return int64(h.Sum64())
}

func (l *Lock) Acquire(ctx context.Context, name string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[name]; ok {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockKey(name)).Scan(&ok); err != nil {
		_ = conn.Close()
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		_ = conn.Close()
		return false, nil
	}
	l.held[name] = conn
	return true, nil
}

func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	conn, ok := l.held[name]
	delete(l.held, name)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", lockKey(name)).Scan(&released); err != nil {
		// The session may still hold the lock; it must not go back to the pool.
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

func (l *Lock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
