package registry

import (
    "context"
    "fmt"
    "testing"

    "CoreBridge/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
    t.Helper()
    lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
    if err != nil {
        t.Fatalf("logger: %v", err)
    }
    return lgr
}

type fakeConn struct {
    closed  bool
    records []map[string]any
}

func (f *fakeConn) Fetch(ctx context.Context, source string, limit int) ([]map[string]any, error) {
    return f.records, nil
}
func (f *fakeConn) Ping(ctx context.Context) error { return nil }
func (f *fakeConn) Close() error {
    f.closed = true
    return nil
}

func TestUnknownEcosystem(t *testing.T) {
    r := New(testLogger(t))
    err := r.WithConnection(context.Background(), "ghost", func(Conn) error { return nil })
    if err == nil {
        t.Fatalf("expected error for unconfigured ecosystem")
    }
}

func TestUnsupportedDriverFailsAtFirstUse(t *testing.T) {
    r := New(testLogger(t))
    r.Configure("crypto", "whatever://dsn", "mongodb", nil)

    if _, err := r.GetFactory("crypto"); err == nil {
        t.Fatalf("expected error for unsupported driver")
    }
}

func TestWithConnectionClosesOnSuccess(t *testing.T) {
    r := New(testLogger(t))
    conn := &fakeConn{records: []map[string]any{{"signal_id": "sig-1"}}}
    r.RegisterFactory("crypto", func(ctx context.Context) (Conn, error) { return conn, nil })

    var got []map[string]any
    err := r.WithConnection(context.Background(), "crypto", func(c Conn) error {
        rows, err := c.Fetch(context.Background(), "trading_signals", 10)
        got = rows
        return err
    })
    if err != nil {
        t.Fatalf("with connection: %v", err)
    }
    if len(got) != 1 {
        t.Fatalf("expected fetched rows")
    }
    if !conn.closed {
        t.Fatalf("connection must be closed after fn returns")
    }
}

func TestWithConnectionClosesOnError(t *testing.T) {
    r := New(testLogger(t))
    conn := &fakeConn{}
    r.RegisterFactory("forex", func(ctx context.Context) (Conn, error) { return conn, nil })

    wantErr := fmt.Errorf("query exploded")
    err := r.WithConnection(context.Background(), "forex", func(Conn) error { return wantErr })
    if err != wantErr {
        t.Fatalf("expected fn error propagated, got %v", err)
    }
    if !conn.closed {
        t.Fatalf("connection must be closed on the error path too")
    }
}

func TestEcosystemNamesCaseInsensitive(t *testing.T) {
    r := New(testLogger(t))
    r.RegisterFactory("Crypto", func(ctx context.Context) (Conn, error) { return &fakeConn{}, nil })
    if err := r.WithConnection(context.Background(), "CRYPTO", func(Conn) error { return nil }); err != nil {
        t.Fatalf("expected case-insensitive lookup: %v", err)
    }
}
