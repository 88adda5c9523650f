// Command okros is the terminal MUD client of §6: it runs either as
// an interactive raw-TTY client or, with --headless, as a detached
// engine reachable only through the control protocol.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/okros-mud/okros/action"
	"github.com/okros-mud/okros/cell"
	"github.com/okros-mud/okros/compositor"
	"github.com/okros-mud/okros/config"
	"github.com/okros-mud/okros/control"
	"github.com/okros-mud/okros/internal/diag"
	"github.com/okros-mud/okros/script"
	"github.com/okros-mud/okros/session"
	"github.com/okros-mud/okros/term"
)

func main() {
	headless := flag.Bool("headless", false, "run detached, reachable only via the control socket")
	instance := flag.String("instance", "default", "instance name; selects the control socket path")
	attach := flag.String("attach", "", "attach to a running instance's control socket instead of starting a new one")
	profileName := flag.String("profile", "", "named MUD profile to load from "+config.ProfilesDir())
	flag.Parse()

	if *attach != "" {
		if err := runAttach(*attach); err != nil {
			log.Fatal(err)
		}
		return
	}

	profile, err := loadProfile(*profileName)
	if err != nil {
		log.Fatal(err)
	}

	host := script.NewLuaHost()
	defer host.Close()

	sess, err := session.New(session.Config{
		Width: 80, Height: 24, ScrollbackLines: 5000,
		Profile: profile, Host: host,
	})
	if err != nil {
		log.Fatal(err)
	}

	sockPath := config.SocketPath(*instance)
	srv, err := control.NewServer(sockPath, sess)
	if err != nil {
		log.Fatal(err)
	}
	defer srv.Close()
	go srv.Serve()

	diagCtx, cancelDiag := context.WithCancel(context.Background())
	defer cancelDiag()
	diag.NewMonitor(func() diag.Snapshot {
		s := sess.Stats()
		return diag.Snapshot{
			BytesRead:         s.BytesRead,
			BytesWritten:      s.BytesWritten,
			ScrollbackLines:   s.ScrollbackLines,
			CommandQueueDepth: s.CommandQueueDepth,
			ControlSessions:   srv.SessionCount(),
			Connected:         s.Connected,
		}
	}, 0).Start(diagCtx)

	if addr := os.Getenv("MCL_CONNECT"); addr != "" {
		if err := sess.Connect(addr); err != nil {
			log.Printf("connect %s: %v", addr, err)
		}
	} else if profile != nil && profile.Hostname != "" {
		addr := profile.Hostname + ":" + strconv.Itoa(profile.Port)
		if err := sess.Connect(addr); err != nil {
			log.Printf("connect %s: %v", addr, err)
		}
	}

	if *headless {
		runHeadless(sess)
		return
	}
	runInteractive(sess)
}

func loadProfile(name string) (*action.Profile, error) {
	if name == "" {
		return nil, nil
	}
	profiles, err := config.LoadAllProfiles()
	if err != nil {
		return nil, err
	}
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

// runHeadless blocks until interrupted, leaving the session reachable
// only through its control socket.
func runHeadless(sess *session.Session) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

// runAttach connects to a running instance's control socket, sends a
// single get_buffer request and prints the response line to stdout; a
// full terminal-attach UI is out of scope for this entry point, which
// exists for scripted inspection.
func runAttach(instance string) error {
	path := config.SocketPath(instance)
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(`{"cmd":"get_buffer"}` + "\n")); err != nil {
		return err
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return err
	}
	fmt.Print(resp)
	return nil
}

// runInteractive drives the raw-TTY terminal loop: stdin bytes decode
// into key events that become command-line input, and the session's
// scrollback renders through the compositor on every change.
func runInteractive(sess *session.Session) {
	if !term.IsTerminal(os.Stdin.Fd()) {
		log.Fatal("not a terminal; use --headless")
	}

	raw, err := term.EnterRaw(os.Stdin)
	if err != nil {
		log.Fatal(err)
	}
	defer raw.Restore()

	comp := compositor.New()
	var prev [][]cell.Cell
	const width, height = 80, 24

	redraw := func() {
		next := sess.Scrollback().ViewportSlice()
		out := comp.Frame(prev, next, width, height, 0, height-1)
		os.Stdout.Write(out)
		prev = next
	}
	redraw()

	decoder := term.NewDecoder()
	reader := bufio.NewReader(os.Stdin)
	var line strings.Builder

	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		for _, ev := range decoder.Feed([]byte{b}) {
			switch ev.Key {
			case term.KeyRune:
				if ev.Rune == '\r' || ev.Rune == '\n' {
					sess.Send(line.String())
					line.Reset()
				} else {
					line.WriteRune(ev.Rune)
				}
			}
		}
		redraw()
	}
}
