// Package session wires the socket, pipeline, command expansion,
// scripting and history packages into the single orchestrator the
// terminal and headless front ends both drive, and implements the
// control.Engine contract §4.8's control protocol runs against.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okros-mud/okros/action"
	"github.com/okros-mud/okros/cell"
	"github.com/okros-mud/okros/command"
	"github.com/okros-mud/okros/history"
	"github.com/okros-mud/okros/network"
	"github.com/okros-mud/okros/pipeline"
	"github.com/okros-mud/okros/script"
	"github.com/okros-mud/okros/scrollback"
)

// Config holds the values a Session is built from.
type Config struct {
	Width, Height   int
	ScrollbackLines int
	Profile         *action.Profile
	Host            script.Host
}

// Session is the per-connection engine: the mutex in §5's lock
// ordering note (engine before socket) that every control worker and
// the socket's own read goroutine must acquire before touching
// shared state.
type Session struct {
	mu sync.Mutex

	sock     *network.Socket
	pipe     *pipeline.Pipeline
	cmd      *command.Pipeline
	host     script.Host
	profile  *action.Profile
	hist     *history.Ring
	attached bool
}

// New builds a session bound to cfg. The profile's actions are
// compiled against cfg.Host immediately.
func New(cfg Config) (*Session, error) {
	if cfg.Host == nil {
		cfg.Host = script.NewRegexHost(256)
	}
	if cfg.Profile == nil {
		cfg.Profile = &action.Profile{}
	}
	if err := cfg.Profile.CompileActions(cfg.Host); err != nil {
		return nil, fmt.Errorf("compile actions: %w", err)
	}

	s := &Session{
		host:    cfg.Host,
		profile: cfg.Profile,
		hist:    history.New("input", 500),
	}

	sb := scrollback.New(cfg.Width, cfg.Height, cfg.ScrollbackLines)
	s.pipe = pipeline.New(sb)
	s.pipe.Trigger = s.runTriggers
	s.pipe.Replacement = s.runReplacements
	s.pipe.Prompt = func(string) bool { return true }

	s.cmd = command.New(command.Vars{
		Host: cfg.Profile.Hostname,
		Port: cfg.Profile.Port,
		Name: cfg.Profile.Name,
	}, cfg.Profile.FindAlias)

	s.sock = network.New(s.onData, s.onDrop)
	return s, nil
}

// Stats is a snapshot of engine state for periodic diagnostics.
type Stats struct {
	BytesRead         uint64
	BytesWritten      uint64
	ScrollbackLines   int
	CommandQueueDepth int
	Connected         bool
}

// Stats reports a snapshot for internal/diag's periodic logger.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		BytesRead:         s.sock.BytesRead(),
		BytesWritten:      s.sock.BytesWritten(),
		ScrollbackLines:   s.pipe.ScrollbackRef().LinesWritten(),
		CommandQueueDepth: s.cmd.QueueDepth(),
		Connected:         s.sock.Connected(),
	}
}

// Scrollback exposes the history buffer for a compositor to render.
func (s *Session) Scrollback() *scrollback.Scrollback {
	return s.pipe.ScrollbackRef()
}

// Connect dials addr, replacing any existing connection.
func (s *Session) Connect(addr string) error {
	return s.sock.Connect(context.Background(), addr)
}

// Attached reports whether the underlying socket is connected.
func (s *Session) Attached() bool {
	return s.sock.Connected()
}

// Send runs line through the command expansion pipeline, recording
// it in input history and writing each resulting outbound command to
// the socket.
func (s *Session) Send(line string) {
	s.mu.Lock()
	s.hist.Add(line, time.Now().Unix())
	s.cmd.Enqueue(line)
	cmds := s.cmd.Execute()
	s.mu.Unlock()

	for _, c := range cmds {
		s.sock.Send(c + "\r\n")
	}
}

// SockSend writes data to the socket unmodified, bypassing command
// expansion entirely — the control protocol's raw-injection escape
// hatch.
func (s *Session) SockSend(data string) error {
	return s.sock.SendRaw(data)
}

// Peek returns the last n rendered lines (0 means the whole
// viewport), rendered as plain glyph text with trailing clear cells
// dropped.
func (s *Session) Peek(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sb := s.pipe.ScrollbackRef()
	var rows [][]cell.Cell
	if n <= 0 {
		rows = sb.ViewportSlice()
	} else {
		rows = sb.Recent(n)
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		end := len(row)
		for end > 0 && row[end-1].IsClear() {
			end--
		}
		b := make([]byte, end)
		for j, c := range row[:end] {
			b[j] = c.Glyph()
		}
		out[i] = string(b)
	}
	return out
}

// Hex returns the last n lines hex-encoded, byte by byte, for the
// control protocol's hex command.
func (s *Session) Hex(n int) []string {
	lines := s.Peek(n)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("% x", []byte(l))
	}
	return out
}

// onData feeds raw socket bytes through the pipeline and flushes any
// MCCP/telnet negotiation replies or trigger-enqueued commands it
// produced.
func (s *Session) onData(chunk []byte) {
	s.mu.Lock()
	s.pipe.Feed(chunk)
	pending := s.pipe.Pending
	cmds := s.pipe.Commands
	disconnect := s.pipe.Disconnect
	s.mu.Unlock()

	if len(pending) > 0 {
		s.sock.SendRaw(string(pending))
	}
	for _, c := range cmds {
		s.Send(c)
	}
	if disconnect {
		s.sock.Disconnect()
	}
}

func (s *Session) onDrop() {}

// runReplacements applies the first matching Replacement or Gag
// action in profile order. A Gag hit returns the empty string, which
// the pipeline treats as dropping the line entirely.
func (s *Session) runReplacements(line string) *string {
	for i := range s.profile.Actions {
		a := &s.profile.Actions[i]
		if a.Kind != action.Replacement && a.Kind != action.Gag {
			continue
		}
		if out, hit := a.Exec(s.host, line); hit {
			if a.Kind == action.Gag {
				out = ""
			}
			return &out
		}
	}
	return nil
}

// runTriggers evaluates every compiled trigger action against a
// finished line, in profile order, returning the commands any hit
// enqueues.
func (s *Session) runTriggers(line string) []string {
	var out []string
	for i := range s.profile.Actions {
		a := &s.profile.Actions[i]
		if a.Kind != action.Trigger {
			continue
		}
		if cmd, hit := a.Exec(s.host, line); hit && cmd != "" {
			out = append(out, cmd)
		}
	}
	return out
}
