// Package network owns the socket layer of §4.1: a nonblocking TCP
// connection whose read loop hands raw bytes to a pipeline and whose
// write path queues outgoing lines behind a bounded channel so a
// stalled server cannot block the caller.
package network

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Socket manages the lifecycle of one TCP connection at a time. A new
// Connect cleanly replaces whatever connection is current.
type Socket struct {
	onData func([]byte)
	onDrop func()

	mu      sync.Mutex
	current *conn

	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
}

type conn struct {
	nc        net.Conn
	sendQueue chan string
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a socket that delivers inbound bytes to onData and
// reports connection loss via onDrop. Both run on the read goroutine.
func New(onData func([]byte), onDrop func()) *Socket {
	return &Socket{onData: onData, onDrop: onDrop}
}

// Connect dials address, replacing any existing connection.
func (s *Socket) Connect(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.close()
	}

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	if tc, ok := nc.(*net.TCPConn); ok {
		tc.SetKeepAlive(true)
		tc.SetKeepAlivePeriod(30 * time.Second)
	}

	cx := &conn{nc: nc, sendQueue: make(chan string, 4096), done: make(chan struct{})}
	s.current = cx
	go s.readLoop(cx)
	go s.writeLoop(cx)
	return nil
}

// Disconnect closes the current connection, if any.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.close()
		s.current = nil
	}
}

// Connected reports whether a connection is currently active.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// BytesRead reports the total bytes read from the socket across its
// lifetime, for diagnostics.
func (s *Socket) BytesRead() uint64 { return s.bytesRead.Load() }

// BytesWritten reports the total bytes written to the socket across
// its lifetime, for diagnostics.
func (s *Socket) BytesWritten() uint64 { return s.bytesWritten.Load() }

// Send queues line for the current connection exactly as given; no
// terminator is appended, so the caller supplies any CRLF.
func (s *Socket) Send(line string) error {
	s.mu.Lock()
	cx := s.current
	s.mu.Unlock()
	if cx == nil {
		return fmt.Errorf("not connected")
	}
	select {
	case cx.sendQueue <- line:
		return nil
	default:
		return fmt.Errorf("send queue full")
	}
}

// SendRaw queues a pre-framed byte string with no CRLF appended, used
// by the control protocol's sock_send for raw socket injection.
func (s *Socket) SendRaw(data string) error {
	return s.Send(data)
}

func (s *Socket) readLoop(cx *conn) {
	buf := make([]byte, 4096)
	for {
		n, err := cx.nc.Read(buf)
		if err != nil {
			s.mu.Lock()
			isCurrent := s.current == cx
			if isCurrent {
				s.current = nil
			}
			s.mu.Unlock()
			cx.shutdown()
			if isCurrent && s.onDrop != nil {
				s.onDrop()
			}
			return
		}
		if n == 0 {
			continue
		}
		s.bytesRead.Add(uint64(n))
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		if s.onData != nil {
			s.onData(chunk)
		}
	}
}

func (s *Socket) writeLoop(cx *conn) {
	for {
		select {
		case <-cx.done:
			return
		case line := <-cx.sendQueue:
			cx.nc.SetWriteDeadline(time.Now().Add(5 * time.Second))
			n, err := cx.nc.Write([]byte(line))
			cx.nc.SetWriteDeadline(time.Time{})
			if err != nil {
				cx.nc.Close()
				return
			}
			s.bytesWritten.Add(uint64(n))
		}
	}
}

func (cx *conn) close() {
	cx.nc.Close()
	cx.shutdown()
}

func (cx *conn) shutdown() {
	cx.closeOnce.Do(func() { close(cx.done) })
}
