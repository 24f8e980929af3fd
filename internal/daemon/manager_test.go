// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/oldtube/internal/config"
	"github.com/ManuGH/oldtube/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		ListenAddr:      "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		IdleTimeout:     10 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 3 * time.Second,
	}
}

// recordingListen remembers the bound addresses so tests can dial them.
type recordingListen struct {
	mu    sync.Mutex
	addrs []string
}

func (r *recordingListen) listen(network, addr string) (net.Listener, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.addrs = append(r.addrs, ln.Addr().String())
	r.mu.Unlock()
	return ln, nil
}

func (r *recordingListen) addr(i int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.addrs) {
		return ""
	}
	return r.addrs[i]
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(testServerConfig(), Deps{Logger: zerolog.Nop(), APIHandler: http.NotFoundHandler()})
	require.ErrorIs(t, err, ErrMissingLogger)

	_, err = NewManager(testServerConfig(), Deps{Logger: log.WithComponent("test")})
	require.ErrorIs(t, err, ErrMissingAPIHandler)

	mgr, err := NewManager(testServerConfig(), Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)
	require.NotNil(t, mgr)
}

func TestShutdownBeforeStart(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)
	require.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManagerServesAndShutsDown(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "api") })
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "metrics") })

	mgr, err := NewManager(testServerConfig(), Deps{
		Logger:         log.WithComponent("test"),
		APIHandler:     api,
		MetricsHandler: metrics,
		MetricsAddr:    "127.0.0.1:0",
	})
	require.NoError(t, err)
	rec := &recordingListen{}
	mgr.(*manager).listen = rec.listen

	var order []string
	var orderMu sync.Mutex
	for _, name := range []string{"first", "second"} {
		mgr.RegisterShutdownHook(name, func(context.Context) error {
			orderMu.Lock()
			order = append(order, name)
			orderMu.Unlock()
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()

	require.Eventually(t, func() bool { return rec.addr(1) != "" }, 2*time.Second, 10*time.Millisecond)

	client := &http.Client{Timeout: time.Second}
	for i, want := range []string{"metrics", "api"} {
		resp, err := client.Get("http://" + rec.addr(i) + "/")
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, want, string(body))
	}
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}
	assert.Equal(t, []string{"second", "first"}, order)
	require.NoError(t, mgr.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestManagerBindFailure(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)
	mgr.(*manager).listen = func(string, string) (net.Listener, error) {
		return nil, errors.New("address in use")
	}
	err = mgr.Start(context.Background())
	require.ErrorContains(t, err, "failed to start API server")
}

func TestManagerHookErrorsAreJoined(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)
	hookErr := errors.New("close failed")
	mgr.RegisterShutdownHook("db", func(context.Context) error { return hookErr })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = mgr.Start(ctx)
	require.ErrorIs(t, err, hookErr)
}

func TestAppRunsTasksUntilCancelled(t *testing.T) {
	mgr, err := NewManager(testServerConfig(), Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)

	var runs atomic.Int32
	app := NewApp(log.WithComponent("test"), mgr, Task{
		Name:     "tick",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return errors.New("ignored")
		},
	}, Task{Name: "disabled"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestAppRequiresManager(t *testing.T) {
	require.ErrorIs(t, NewApp(zerolog.Nop(), nil).Run(context.Background()), ErrMissingManager)
}
