// Package control implements the headless control protocol of §4.8:
// a local stream socket speaking newline-delimited JSON requests and
// events, one worker per accepted connection.
package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Request is one inbound control message.
type Request struct {
	Cmd        string `json:"cmd"`
	Data       string `json:"data,omitempty"`
	Lines      int    `json:"lines,omitempty"`
	IntervalMs int    `json:"interval_ms,omitempty"`
}

// Event is one outbound control message.
type Event struct {
	Event    string   `json:"event"`
	Message  string   `json:"message,omitempty"`
	Attached bool     `json:"attached,omitempty"`
	Lines    []string `json:"lines,omitempty"`
}

// Engine is the subset of the session the control protocol drives.
// Each call must be safe to invoke from a control worker goroutine;
// the implementation guards its own shared state.
type Engine interface {
	Connect(addr string) error
	Send(line string) // run line through command expansion and send the result to the MUD; nothing is appended to scrollback
	SockSend(data string) error
	Peek(n int) []string
	Hex(n int) []string
	Attached() bool
}

// Session wraps one accepted connection and its per-session ID.
type Session struct {
	ID   string
	conn net.Conn
}

// Server accepts control connections on a unix socket.
type Server struct {
	path     string
	engine   Engine
	ln       net.Listener
	sessions atomic.Int64
}

// SessionCount reports the number of currently connected control
// sessions, for diagnostics.
func (s *Server) SessionCount() int {
	return int(s.sessions.Load())
}

// NewServer binds a unix socket at path, creating parent directories
// as needed. Instance sockets default to <runtime>/okros/<name>.sock
// via config.SocketPath; path is whatever the caller resolved.
func NewServer(path string, engine Engine) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	os.Remove(path) // stale socket from a prior crash
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &Server{path: path, engine: engine, ln: ln}, nil
}

// Close removes the listening socket.
func (s *Server) Close() error {
	err := s.ln.Close()
	os.Remove(s.path)
	return err
}

// Serve accepts connections forever, spawning one worker goroutine
// per connection, until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		sess := &Session{ID: uuid.NewString(), conn: conn}
		s.sessions.Add(1)
		go s.worker(sess)
	}
}

func (s *Server) worker(sess *Session) {
	defer sess.conn.Close()
	defer s.sessions.Add(-1)

	scanner := bufio.NewScanner(sess.conn)
	enc := json.NewEncoder(sess.conn)

	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			enc.Encode(Event{Event: "Error", Message: fmt.Sprintf("bad json: %v", err)})
			continue
		}

		if req.Cmd == "stream" {
			s.stream(sess, enc, req)
			return
		}

		ev, ok := s.handle(req)
		if !ok {
			enc.Encode(Event{Event: "Error", Message: "unknown cmd"})
			continue
		}
		if err := enc.Encode(ev); err != nil {
			return
		}
	}
}

func (s *Server) handle(req Request) (Event, bool) {
	switch req.Cmd {
	case "status":
		return Event{Event: "Status", Attached: s.engine.Attached()}, true
	case "attach", "detach":
		return Event{Event: "Ok"}, true
	case "connect":
		if err := s.engine.Connect(req.Data); err != nil {
			return Event{Event: "Error", Message: err.Error()}, true
		}
		return Event{Event: "Ok"}, true
	case "send":
		s.engine.Send(req.Data)
		return Event{Event: "Ok"}, true
	case "sock_send":
		if err := s.engine.SockSend(req.Data); err != nil {
			return Event{Event: "Error", Message: err.Error()}, true
		}
		return Event{Event: "Ok"}, true
	case "get_buffer":
		return Event{Event: "Buffer", Lines: s.engine.Peek(req.Lines)}, true
	case "peek":
		return Event{Event: "Buffer", Lines: s.engine.Peek(req.Lines)}, true
	case "hex":
		return Event{Event: "Hex", Lines: s.engine.Hex(req.Lines)}, true
	default:
		return Event{}, false
	}
}

// stream enters server-push mode: a Buffer event every interval_ms
// until the write fails (the client closed the connection).
func (s *Server) stream(sess *Session, enc *json.Encoder, req Request) {
	interval := time.Duration(req.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ev := Event{Event: "Buffer", Lines: s.engine.Peek(0)}
		if err := enc.Encode(ev); err != nil {
			return
		}
	}
}
