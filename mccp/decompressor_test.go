package mccp

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// S1 from spec §8: IAC WILL COMPRESS2 must draw IAC DO COMPRESS2 and no
// application output.
func TestCompress2Handshake(t *testing.T) {
	d := New()
	d.Receive([]byte{iac, cmdWill, optCompress2})

	if got := d.Response(); !bytes.Equal(got, []byte{iac, cmdDo, optCompress2}) {
		t.Fatalf("response = % x, want IAC DO COMPRESS2", got)
	}
	if d.Pending() {
		t.Fatal("handshake must not produce application output")
	}
	if d.Err() {
		t.Fatal("handshake must not error")
	}
}

func TestLegacyCompressRejectedAfterV2(t *testing.T) {
	d := New()
	d.Receive([]byte{iac, cmdWill, optCompress2})
	d.Response() // drain
	d.Receive([]byte{iac, cmdWill, optCompress})

	if got := d.Response(); !bytes.Equal(got, []byte{iac, cmdDont, optCompress}) {
		t.Fatalf("response = % x, want IAC DONT COMPRESS", got)
	}
}

func TestPlainBytesPassThrough(t *testing.T) {
	d := New()
	d.Receive([]byte("hello world\n"))
	if !d.Pending() {
		t.Fatal("expected pending output")
	}
	if got := string(d.TakeOutput()); got != "hello world\n" {
		t.Fatalf("output = %q", got)
	}
}

// Regression: a passthrough Receive must not re-flush bytes already
// handed out by a prior TakeOutput, and a lone trailing IAC byte must
// be held back rather than emitted as a literal 0xFF.
func TestPlainBytesDoNotDuplicateAcrossCalls(t *testing.T) {
	d := New()
	d.Receive([]byte("ab"))
	if got := string(d.TakeOutput()); got != "ab" {
		t.Fatalf("first output = %q", got)
	}
	d.Receive([]byte("cd"))
	if got := string(d.TakeOutput()); got != "cd" {
		t.Fatalf("second output = %q, want just the new bytes", got)
	}
}

func TestTrailingIACHeldUntilResolved(t *testing.T) {
	d := New()
	d.Receive([]byte("hi"))
	d.Receive([]byte{iac})
	if got := string(d.TakeOutput()); got != "hi" {
		t.Fatalf("output before IAC resolves = %q, want no literal 0xFF", got)
	}
	// Enough trailing bytes to rule out every MCCP sequence starting at
	// the held IAC: it then passes through untouched, exactly once.
	d.Receive([]byte("!xxxx"))
	if got := string(d.TakeOutput()); got != string(append([]byte{iac}, "!xxxx"...)) {
		t.Fatalf("output after resolving = % x", got)
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	var raw bytes.Buffer
	zw := zlib.NewWriter(&raw)
	zw.Write([]byte("the quick brown fox\n"))
	zw.Close()

	d := New()
	d.Receive([]byte{iac, cmdSB, optCompress2, iac, cmdSE})
	d.Receive(raw.Bytes())

	if !d.Pending() {
		t.Fatal("expected decompressed output")
	}
	if got := string(d.TakeOutput()); got != "the quick brown fox\n" {
		t.Fatalf("decompressed = %q", got)
	}
	if d.Err() {
		t.Fatal("clean stream must not error")
	}
}

func TestCompressedFragmented(t *testing.T) {
	var raw bytes.Buffer
	zw := zlib.NewWriter(&raw)
	zw.Write([]byte("fragmented line\n"))
	zw.Close()

	d := New()
	d.Receive([]byte{iac, cmdSB, optCompress2, iac, cmdSE})

	payload := raw.Bytes()
	mid := len(payload) / 2
	d.Receive(payload[:mid])
	if d.Pending() {
		// Some implementations may produce partial output; not required here.
		d.TakeOutput()
	}
	d.Receive(payload[mid:])

	got := string(d.TakeOutput())
	if got != "fragmented line\n" {
		t.Fatalf("decompressed = %q", got)
	}
}

func TestCorruptStreamErrors(t *testing.T) {
	d := New()
	d.Receive([]byte{iac, cmdSB, optCompress2, iac, cmdSE})
	d.Receive([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	if !d.Err() {
		t.Fatal("corrupt zlib header must set Err")
	}
}
