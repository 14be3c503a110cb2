package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// stubOpen swaps openDB for one backed by sqlmock. failFirst makes the first
// open fail so retry paths can be observed.
func stubOpen(t *testing.T, failFirst bool) *int32 {
	t.Helper()
	var opens int32
	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		n := atomic.AddInt32(&opens, 1)
		if failFirst && n == 1 {
			return nil, errors.New("dial refused")
		}
		conn, _, err := sqlmock.New()
		return conn, err
	}
	resetSingleton()
	t.Cleanup(func() {
		openDB = prev
		resetSingleton()
	})
	return &opens
}

func TestConnectRejectsBlankURL(t *testing.T) {
	for _, url := range []string{"", "   ", "\t"} {
		if _, err := Connect(context.Background(), url, DefaultServerOptions()); !errors.Is(err, ErrNoDatabaseURL) {
			t.Fatalf("Connect(%q): expected ErrNoDatabaseURL, got %v", url, err)
		}
	}
}

func TestConnectFailsWhenPingFails(t *testing.T) {
	prev := openDB
	t.Cleanup(func() { openDB = prev })
	openDB = func(string, string) (*sql.DB, error) {
		conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			return nil, err
		}
		mock.ExpectPing().WillReturnError(errors.New("no route"))
		return conn, nil
	}
	if _, err := Connect(context.Background(), "postgres://db", DefaultServerOptions()); err == nil {
		t.Fatalf("expected ping failure to surface")
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")
	t.Setenv("DB_CONN_MAX_LIFETIME", "10m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "30s")
	t.Setenv("DB_PING_TIMEOUT", "not-a-duration")

	got := OptionsFromEnv(DefaultMigrateOptions())
	want := Options{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 10 * time.Minute,
		ConnMaxIdleTime: 30 * time.Second,
		PingTimeout:     DefaultMigrateOptions().PingTimeout,
	}
	if got != want {
		t.Fatalf("OptionsFromEnv = %+v, want %+v", got, want)
	}
}

func TestConnectAppliesPoolLimits(t *testing.T) {
	stubOpen(t, false)
	conn, err := Connect(context.Background(), "postgres://db", Options{MaxOpenConns: 3})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()
	if got := conn.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("MaxOpenConnections = %d, want 3", got)
	}
}

func TestDefaultOptionsFollowRuntime(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if DefaultOptions() != DefaultServerOptions() {
		t.Fatalf("expected server defaults outside Lambda")
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "pitchframe-api")
	if !IsLambdaRuntime() || DefaultOptions() != DefaultLambdaOptions() {
		t.Fatalf("expected Lambda defaults inside Lambda")
	}
}

func TestGetSingletonRetriesAfterFailedOpen(t *testing.T) {
	opens := stubOpen(t, true)

	if _, err := GetSingleton(context.Background(), "postgres://db", DefaultLambdaOptions()); err == nil {
		t.Fatalf("expected first attempt to fail")
	}
	first, err := GetSingleton(context.Background(), "postgres://db", DefaultLambdaOptions())
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	again, err := GetSingleton(context.Background(), "postgres://db", DefaultLambdaOptions())
	if err != nil || again != first {
		t.Fatalf("expected cached pool, got %p (%v)", again, err)
	}
	if n := atomic.LoadInt32(opens); n != 2 {
		t.Fatalf("opens = %d, want 2", n)
	}
}

func TestGetSingletonSharesOnePoolAcrossGoroutines(t *testing.T) {
	opens := stubOpen(t, false)

	const callers = 8
	pools := make([]*sql.DB, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := GetSingleton(context.Background(), "postgres://db", DefaultLambdaOptions())
			if err != nil {
				t.Errorf("GetSingleton: %v", err)
			}
			pools[i] = p
		}(i)
	}
	wg.Wait()

	for i, p := range pools {
		if p != pools[0] {
			t.Fatalf("caller %d got a different pool", i)
		}
	}
	if n := atomic.LoadInt32(opens); n != 1 {
		t.Fatalf("opens = %d, want 1", n)
	}
}
