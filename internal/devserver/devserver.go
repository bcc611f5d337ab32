// Package devserver implements the `bfc watch` live-preview server: an
// net/http server with a gorilla/websocket upgrade endpoint that
// recompiles on every source save and broadcasts the result to every
// connected client, grounded in the teacher's WebSocketListen/
// WebSocketBroadcast fan-out-to-all-clients shape.
package devserver

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sentra/internal/pipeline"
	"sentra/internal/report"
)

// Server watches one Brainfuck source file and streams a fresh
// CompileReport to every connected websocket client each time the file
// changes on disk.
type Server struct {
	sourceFile string
	opts       pipeline.Options

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*websocket.Conn
	nextID  int
}

// New creates a Server over sourceFile, compiled with opts on every
// reload.
func New(sourceFile string, opts pipeline.Options) *Server {
	return &Server{
		sourceFile: sourceFile,
		opts:       opts,
		clients:    make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler upgrades incoming requests to websocket connections and
// registers them for broadcast, reading (and discarding) until the
// client disconnects -- a live-preview client only listens, it never
// sends compile requests of its own.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		s.mu.Lock()
		id := fmt.Sprintf("client_%d", s.nextID)
		s.nextID++
		s.clients[id] = conn
		s.mu.Unlock()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		s.mu.Lock()
		delete(s.clients, id)
		s.mu.Unlock()
		conn.Close()
	}
}

// Broadcast sends message to every connected client, dropping and
// closing any connection that errors rather than letting one dead
// client block the rest.
func (s *Server) Broadcast(message []byte) {
	s.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(s.clients))
	for id, c := range s.clients {
		conns[id] = c
	}
	s.mu.RUnlock()

	for id, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			conn.Close()
			s.mu.Lock()
			delete(s.clients, id)
			s.mu.Unlock()
		}
	}
}

// recompile runs the pipeline over the current contents of
// s.sourceFile and renders the result as JSON, for broadcast.
func (s *Server) recompile() ([]byte, error) {
	result, err := pipeline.Compile(s.sourceFile, s.opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, report.FromResult(result)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Watch polls s.sourceFile's mtime every interval and broadcasts a
// fresh compile report whenever it changes, consistent with the
// teacher's WatchCommand polling loop rather than an OS-level file
// watcher.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	var lastMod time.Time
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(s.sourceFile)
			if err != nil {
				continue
			}
			if !info.ModTime().After(lastMod) {
				continue
			}
			lastMod = info.ModTime()

			payload, err := s.recompile()
			if err != nil {
				log.Printf("devserver: recompile %s: %v", s.sourceFile, err)
				continue
			}
			s.Broadcast(payload)
		}
	}
}

// ListenAndServe starts the websocket endpoint at /ws and the mtime
// watch loop, blocking until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr, sourceFile string, opts pipeline.Options, pollInterval time.Duration) error {
	srv := New(sourceFile, opts)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.Handler())

	httpSrv := &http.Server{Addr: addr, Handler: mux}

	go srv.Watch(ctx, pollInterval)

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return httpSrv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
