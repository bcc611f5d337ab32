package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sentra/internal/pipeline"
)

func dialTestServer(t *testing.T, srv *Server) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(srv.Handler()))
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func TestBroadcastReachesConnectedClient(t *testing.T) {
	srv := New("irrelevant.bf", pipeline.DefaultOptions())
	conn, cleanup := dialTestServer(t, srv)
	defer cleanup()

	// give Handler's goroutine time to register the client
	deadline := time.Now().Add(time.Second)
	for {
		srv.mu.RLock()
		n := len(srv.clients)
		srv.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	srv.Broadcast([]byte("hello"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg) != "hello" {
		t.Errorf("got %q, want %q", msg, "hello")
	}
}

func TestRecompileProducesJSONReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bf")
	if err := os.WriteFile(path, []byte("+++."), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	srv := New(path, pipeline.DefaultOptions())
	payload, err := srv.recompile()
	if err != nil {
		t.Fatalf("recompile: %v", err)
	}
	if !strings.Contains(string(payload), "\"source_file\"") {
		t.Errorf("expected a JSON report, got %q", payload)
	}
}

func TestWatchBroadcastsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.bf")
	if err := os.WriteFile(path, []byte("+."), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	srv := New(path, pipeline.DefaultOptions())
	conn, cleanup := dialTestServer(t, srv)
	defer cleanup()

	deadline := time.Now().Add(time.Second)
	for {
		srv.mu.RLock()
		n := len(srv.clients)
		srv.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go srv.Watch(ctx, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	touch(t, path)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("expected a broadcast after the file changed: %v", err)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	now := time.Now().Add(time.Second)
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}
