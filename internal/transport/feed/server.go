// Package feed streams scenario results to websocket observers while a
// tactics run is in progress.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"antsbot.ai/internal/tactic"
)

const (
	Version = "1"

	TypeHello     = "HELLO"
	TypeRunResult = "RUN_RESULT"
	TypeSuiteDone = "SUITE_DONE"
)

type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
}

type RunResultMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Result          tactic.Result `json:"result"`
}

type SuiteDoneMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Passed          int    `json:"passed"`
	Failed          int    `json:"failed"`
}

type Server struct {
	log *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[string]chan []byte
	closed  bool
	active  sync.WaitGroup
}

func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		log:     logger,
		clients: map[string]chan []byte{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // loopback only, see WSHandler
		},
	}
}

// Clients returns the number of connected observers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// PublishResult sends res to every observer.
func (s *Server) PublishResult(res tactic.Result) {
	s.broadcast(RunResultMsg{Type: TypeRunResult, ProtocolVersion: Version, Result: res})
}

// PublishDone tells observers the suite finished.
func (s *Server) PublishDone(passed, failed int) {
	s.broadcast(SuiteDoneMsg{Type: TypeSuiteDone, ProtocolVersion: Version, Passed: passed, Failed: failed})
}

// broadcast never blocks: an observer whose queue is full is disconnected.
func (s *Server) broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Printf("feed marshal: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, out := range s.clients {
		select {
		case out <- b:
		default:
			s.log.Printf("feed: dropping slow observer %s", id)
			close(out)
			delete(s.clients, id)
		}
	}
}

// enter registers a running handler; it fails once Close has been called.
func (s *Server) enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.active.Add(1)
	return true
}

func (s *Server) join() (string, chan []byte) {
	id := fmt.Sprintf("F%d", s.nextID.Add(1))
	out := make(chan []byte, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(out)
		return id, out
	}
	s.clients[id] = out
	return id, out
}

func (s *Server) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops accepting observers, lets every connected observer receive
// what is already queued, closes them normally and waits for their handlers
// to finish or ctx to end.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for id, out := range s.clients {
			close(out)
			delete(s.clients, id)
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) leave(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if out, ok := s.clients[id]; ok {
		close(out)
		delete(s.clients, id)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		if !s.enter() {
			http.Error(rw, "feed closed", http.StatusServiceUnavailable)
			return
		}
		defer s.active.Done()

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out := s.join()
		defer s.leave(id)

		hello := HelloMsg{Type: TypeHello, ProtocolVersion: Version, SessionID: id}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(hello); err != nil {
			return
		}

		// Observers only listen; the reader exists to notice disconnects.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case b, ok := <-out:
				if !ok {
					msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow")
					if s.closing() {
						msg = websocket.FormatCloseMessage(websocket.CloseNormalClosure, "feed closed")
					}
					_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

// Handler mounts the feed at /v1/results.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/v1/results", s.WSHandler())
	return mux
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
