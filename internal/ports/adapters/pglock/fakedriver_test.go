package pglock

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

// fakeDriver answers pg_try_advisory_lock with true and fails
// pg_advisory_unlock, counting physical connections opened and closed.
type fakeDriver struct {
	opened atomic.Int32
	closed atomic.Int32
}

var (
	registerOnce sync.Once
	sharedDriver = &fakeDriver{}
)

func openFakeDB() (*sql.DB, *fakeDriver) {
	registerOnce.Do(func() { sql.Register("pglock-fake", sharedDriver) })
	db, _ := sql.Open("pglock-fake", "")
	return db, sharedDriver
}

func (d *fakeDriver) Open(string) (driver.Conn, error) {
	d.opened.Add(1)
	return &fakeConn{d: d}, nil
}

type fakeConn struct{ d *fakeDriver }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) { return fakeStmt{query: query}, nil }

func (c *fakeConn) Close() error {
	c.d.closed.Add(1)
	return nil
}

func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("not supported") }

type fakeStmt struct{ query string }

func (fakeStmt) Close() error  { return nil }
func (fakeStmt) NumInput() int { return -1 }

func (fakeStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errors.New("not supported")
}

func (s fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	if strings.Contains(s.query, "pg_advisory_unlock") {
		return nil, errors.New("server closed the connection unexpectedly")
	}
	return &fakeRows{}, nil
}

type fakeRows struct{ done bool }

func (*fakeRows) Columns() []string { return []string{"ok"} }
func (*fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = true
	return nil
}
