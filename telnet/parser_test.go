package telnet

import "testing"

func TestEscapedIAC(t *testing.T) {
	p := NewParser()
	out, _ := p.Feed([]byte{IAC, IAC})
	if len(out) != 1 || out[0] != IAC {
		t.Fatalf("got %v, want single 0xFF", out)
	}
}

func TestWillEORRepliesDoEOR(t *testing.T) {
	p := NewParser()
	_, reply := p.Feed([]byte{IAC, WILL, OptEOR})
	want := []byte{IAC, DO, OptEOR}
	if string(reply) != string(want) {
		t.Fatalf("reply = % x, want % x", reply, want)
	}
}

func TestDefaultPolicyIsNegative(t *testing.T) {
	p := NewParser()
	_, reply := p.Feed([]byte{IAC, DO, 31}) // NAWS
	want := []byte{IAC, WONT, 31}
	if string(reply) != string(want) {
		t.Fatalf("reply = % x, want % x", reply, want)
	}

	_, reply = p.Feed([]byte{IAC, WILL, 1}) // ECHO
	want = []byte{IAC, DONT, 1}
	if string(reply) != string(want) {
		t.Fatalf("reply = % x, want % x", reply, want)
	}
}

func TestGAIncrementsPromptCounterWithoutOutput(t *testing.T) {
	p := NewParser()
	out, _ := p.Feed([]byte{'h', 'i', IAC, GA})
	if string(out) != "hi" {
		t.Fatalf("out = %q", out)
	}
	if n := p.DrainPromptEvents(); n != 1 {
		t.Fatalf("prompt events = %d, want 1", n)
	}
	if n := p.DrainPromptEvents(); n != 0 {
		t.Fatalf("prompt events should reset, got %d", n)
	}
}

func TestSubnegotiationProducesNoAppOutput(t *testing.T) {
	p := NewParser()
	// IAC SB 42 IAC IAC 99 IAC SE -- the doubled IAC inside SB is literal
	// and must not terminate the subnegotiation or leak into app output.
	out, _ := p.Feed([]byte{IAC, SB, 42, IAC, IAC, 99, IAC, SE})
	if len(out) != 0 {
		t.Fatalf("app output = %v, want none", out)
	}
}

func TestFragmentedAcrossFeedCalls(t *testing.T) {
	p := NewParser()
	var out []byte
	chunks := [][]byte{{IAC}, {WILL}, {OptEOR}, {'o', 'k'}}
	var reply []byte
	for _, c := range chunks {
		o, r := p.Feed(c)
		out = append(out, o...)
		reply = append(reply, r...)
	}
	if string(out) != "ok" {
		t.Fatalf("out = %q", out)
	}
	if string(reply) != string([]byte{IAC, DO, OptEOR}) {
		t.Fatalf("reply = % x", reply)
	}
}
