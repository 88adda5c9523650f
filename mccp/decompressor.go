// Package mccp implements the Telnet-aware MUD Client Compression
// Protocol decompression stage (§4.1): an always-present entry point
// for inbound bytes that is an identity passthrough until the server
// negotiates MCCP v1 or v2, at which point it switches to inflating a
// zlib sub-stream.
package mccp

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Bytes needed to recognize MCCP negotiation are duplicated here rather
// than borrowed from the telnet package: this stage must inspect the
// raw stream *before* the telnet option parser runs, because once
// compression starts everything — including further telnet bytes — is
// inside the zlib sub-stream.
const (
	iac     byte = 255
	cmdWill byte = 251
	cmdDo   byte = 253
	cmdDont byte = 254
	cmdSB   byte = 250
	cmdSE   byte = 240

	optCompress  byte = 85 // legacy MCCP v1
	optCompress2 byte = 86 // MCCP v2
)

// Decompressor is the decompression stage described in §4.1.
type Decompressor struct {
	scan []byte // unconsumed raw bytes awaiting MCCP-sequence recognition

	compressing  bool
	v2Negotiated bool
	compressed   []byte // raw zlib bytes accumulated since the sub-stream began
	consumed     int    // decompressed bytes already handed out via TakeOutput

	out   []byte // decoded bytes ready for TakeOutput
	resp  []byte // bytes the stage must transmit back
	erred bool
}

// New returns an identity decompressor, ready to negotiate MCCP.
func New() *Decompressor { return &Decompressor{} }

// Receive buffers inbound bytes and advances the stage.
func (d *Decompressor) Receive(data []byte) {
	if d.erred || len(data) == 0 {
		return
	}
	if d.compressing {
		d.compressed = append(d.compressed, data...)
		d.inflate()
		return
	}
	d.scan = append(d.scan, data...)
	d.scanForNegotiation()
}

// Pending reports whether decoded output is available.
func (d *Decompressor) Pending() bool { return len(d.out) > 0 }

// TakeOutput consumes and returns the decoded bytes accumulated so far.
func (d *Decompressor) TakeOutput() []byte {
	out := d.out
	d.out = nil
	return out
}

// Response returns and clears bytes the stage must transmit back
// (handshake replies), or nil if there is nothing to send.
func (d *Decompressor) Response() []byte {
	r := d.resp
	d.resp = nil
	return r
}

// Err reports a terminal stream error (corrupt zlib data). The session
// must disconnect once this is true.
func (d *Decompressor) Err() bool { return d.erred }

// scanForNegotiation recognizes the byte sequences of §4.1 in the
// pre-compression stream and passes everything else through untouched.
// Partial sequences at the tail are retained in d.scan for the next
// Receive call, so input may be split anywhere.
func (d *Decompressor) scanForNegotiation() {
	buf := d.scan
	last := 0
	i := 0

	flush := func(end int) {
		if end > last {
			d.out = append(d.out, buf[last:end]...)
		}
	}

	pause := -1 // set when scanning stops early awaiting more bytes

	for i < len(buf) {
		if buf[i] != iac {
			i++
			continue
		}

		// Sequences below need lookahead past the end of buf; if we
		// can't yet tell, stop scanning and retain the tail.
		if i+1 >= len(buf) {
			pause = i
			break
		}

		if buf[i+1] == cmdWill && i+2 < len(buf) && (buf[i+2] == optCompress || buf[i+2] == optCompress2) {
			flush(i)
			if buf[i+2] == optCompress2 {
				d.v2Negotiated = true
				d.resp = append(d.resp, iac, cmdDo, optCompress2)
			} else if d.v2Negotiated {
				d.resp = append(d.resp, iac, cmdDont, optCompress)
			} else {
				d.resp = append(d.resp, iac, cmdDo, optCompress)
			}
			i += 3
			last = i
			continue
		}

		// IAC SB COMPRESS2 IAC SE
		if buf[i+1] == cmdSB && i+4 < len(buf) && buf[i+2] == optCompress2 && buf[i+3] == iac && buf[i+4] == cmdSE {
			flush(i)
			last = i + 5
			tail := append([]byte(nil), buf[last:]...)
			d.scan = nil
			d.startCompressing(tail)
			return
		}

		// IAC SB COMPRESS WILL SE (legacy v1 start token)
		if buf[i+1] == cmdSB && i+4 < len(buf) && buf[i+2] == optCompress && buf[i+3] == cmdWill && buf[i+4] == cmdSE {
			flush(i)
			last = i + 5
			tail := append([]byte(nil), buf[last:]...)
			d.scan = nil
			d.startCompressing(tail)
			return
		}

		// Not (yet) one of our sequences: if what follows could still
		// grow into a match, stop and wait; otherwise it's plain data.
		if i+4 >= len(buf) {
			pause = i
			break
		}
		i++
	}

	if pause < 0 {
		pause = len(buf)
	}
	flush(pause)
	d.scan = append([]byte(nil), buf[pause:]...)
}

func (d *Decompressor) startCompressing(tail []byte) {
	d.compressing = true
	d.compressed = append(d.compressed, tail...)
	d.inflate()
}

// inflate re-runs zlib inflation over everything buffered since the
// compressed sub-stream began. Re-decompressing from the start on
// every call keeps resumption across arbitrary chunk boundaries exact
// and simple, trading some redundant CPU work that is negligible at
// interactive MUD line rates.
func (d *Decompressor) inflate() {
	zr, err := zlib.NewReader(bytes.NewReader(d.compressed))
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return // header incomplete, wait for more bytes
		}
		d.erred = true
		return
	}
	defer zr.Close()

	decoded, rerr := io.ReadAll(zr)
	if len(decoded) > d.consumed {
		d.out = append(d.out, decoded[d.consumed:]...)
		d.consumed = len(decoded)
	}

	switch rerr {
	case nil:
		// Clean end of the zlib stream: revert to passthrough.
		d.compressing = false
		d.compressed = nil
		d.consumed = 0
	case io.ErrUnexpectedEOF:
		// Truncated mid-stream: wait for more bytes.
	default:
		if rerr != nil {
			d.erred = true
		}
	}
}
