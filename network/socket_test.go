package network

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestSocketDeliversInboundBytes(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	got := make(chan []byte, 1)
	s := New(func(b []byte) { got <- b }, nil)
	if err := s.Connect(context.Background(), ln.Addr().String()); err != nil {
		t.Fatal(err)
	}

	srvConn := <-accepted
	defer srvConn.Close()
	srvConn.Write([]byte("hello"))

	select {
	case b := <-got:
		if string(b) != "hello" {
			t.Fatalf("got %q", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for data")
	}
}

func TestSendRequiresConnection(t *testing.T) {
	s := New(nil, nil)
	if err := s.Send("look\r\n"); err == nil {
		t.Fatal("expected error when not connected")
	}
}

func TestDisconnectFiresOnDrop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		accepted <- c
	}()

	dropped := make(chan struct{}, 1)
	s := New(func([]byte) {}, func() { dropped <- struct{}{} })
	if err := s.Connect(context.Background(), ln.Addr().String()); err != nil {
		t.Fatal(err)
	}
	srvConn := <-accepted
	srvConn.Close()

	select {
	case <-dropped:
	case <-time.After(2 * time.Second):
		t.Fatal("onDrop not called")
	}
}
