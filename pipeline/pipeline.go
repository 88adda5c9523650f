// Package pipeline implements the session pipeline of §4.5: it wires
// the MCCP decompressor, Telnet parser, ANSI converter and scrollback
// together behind a single Feed entry point, applying the trigger,
// replacement, prompt and output callbacks at the points the
// specification fixes.
package pipeline

import (
	"github.com/okros-mud/okros/ansi"
	"github.com/okros-mud/okros/cell"
	"github.com/okros-mud/okros/mccp"
	"github.com/okros-mud/okros/scrollback"
	"github.com/okros-mud/okros/telnet"
)

// Trigger inspects a finished line and returns commands to enqueue
// back into the command pipeline.
type Trigger func(line string) []string

// Replacement rewrites or gags a finished line. A nil return means
// unchanged; a non-nil empty string gags the line; any other string
// replaces it.
type Replacement func(line string) *string

// Prompt decides whether a flushed prompt buffer should be rendered
// as a scrollback line.
type Prompt func(prompt string) bool

// Output is a final transformation applied after replacement and
// before trigger, so triggers see its result.
type Output func(line string) *string

// Pipeline is the per-connection orchestrator described in §4.5.
type Pipeline struct {
	decomp  *mccp.Decompressor
	telnet  *telnet.Parser
	conv    *ansi.Converter
	history *scrollback.Scrollback

	curColor byte
	line     []cell.Cell

	Trigger     Trigger
	Replacement Replacement
	Prompt      Prompt
	Output      Output

	// Pending holds outbound bytes the MCCP and Telnet layers want
	// transmitted (handshake and negotiation replies) after the most
	// recent Feed call.
	Pending []byte

	// Commands accumulates trigger-enqueued commands after the most
	// recent Feed call, in emission order.
	Commands []string

	// Disconnect is set once the decompressor hits an unrecoverable
	// zlib error; the caller must close the connection.
	Disconnect bool
}

// New builds a pipeline writing finished lines into history, a
// scrollback sized width x viewport-height x capacity.
func New(history *scrollback.Scrollback) *Pipeline {
	return &Pipeline{
		decomp:   mccp.New(),
		telnet:   telnet.NewParser(),
		conv:     ansi.NewConverter(),
		history:  history,
		curColor: cell.PackAttr(7, 0, false),
	}
}

// ScrollbackRef returns the scrollback buffer the pipeline writes
// finished lines into, for a compositor or control query to read.
func (p *Pipeline) ScrollbackRef() *scrollback.Scrollback {
	return p.history
}

// Feed processes one chunk of raw network bytes, per the §4.5
// algorithm: decompress, run the result through the Telnet parser,
// then the ANSI converter, accumulating a line buffer and flushing
// finished lines and prompts into history.
func (p *Pipeline) Feed(chunk []byte) {
	p.Pending = nil
	p.Commands = nil

	p.decomp.Receive(chunk)
	if r := p.decomp.Response(); len(r) > 0 {
		p.Pending = append(p.Pending, r...)
	}
	for p.decomp.Pending() {
		p.feedTelnet(p.decomp.TakeOutput())
	}
	if p.decomp.Err() {
		p.Disconnect = true
	}
}

func (p *Pipeline) feedTelnet(data []byte) {
	appOut, reply := p.telnet.Feed(data)
	if len(reply) > 0 {
		p.Pending = append(p.Pending, reply...)
	}

	for _, b := range appOut {
		for _, ev := range p.conv.Feed(b) {
			switch ev.Kind {
			case ansi.EventSetColor:
				p.curColor = ev.Attr
			case ansi.EventText:
				switch ev.Byte {
				case '\n':
					p.finishLine()
				case '\r':
					// Dropped: lines end at '\n', and the CR of a CRLF
					// terminator is not line content.
				default:
					p.line = append(p.line, cell.New(ev.Byte, p.curColor))
				}
			}
		}
	}

	if n := p.telnet.DrainPromptEvents(); n > 0 && len(p.line) > 0 {
		text := plainString(p.line)
		render := true
		if p.Prompt != nil {
			render = p.Prompt(text)
		}
		if render {
			p.emit(p.line)
		}
		p.line = nil
	}
}

// finishLine applies replacement, then the output hook, then
// triggers, then emits into scrollback, per §4.5's finish_line steps.
func (p *Pipeline) finishLine() {
	line := p.line
	p.line = nil

	text := plainString(line)

	if p.Replacement != nil {
		if rep := p.Replacement(text); rep != nil {
			if *rep == "" {
				return // gag
			}
			text = *rep
			line = rebuild(text, p.curColor)
		}
	}

	if p.Output != nil {
		if out := p.Output(text); out != nil {
			text = *out
			line = rebuild(text, p.curColor)
		}
	}

	if p.Trigger != nil {
		if cmds := p.Trigger(text); len(cmds) > 0 {
			p.Commands = append(p.Commands, cmds...)
		}
	}

	p.emit(line)
}

func (p *Pipeline) emit(line []cell.Cell) {
	if p.history != nil {
		p.history.EmitLine(line)
	}
}

// plainString extracts the glyph bytes of a cell line, stripping
// everything but content — the form trigger/replacement/output hooks
// and matching operate on.
func plainString(line []cell.Cell) string {
	b := make([]byte, len(line))
	for i, c := range line {
		b[i] = c.Glyph()
	}
	return string(b)
}

func rebuild(text string, color byte) []cell.Cell {
	out := make([]cell.Cell, len(text))
	for i := 0; i < len(text); i++ {
		out[i] = cell.New(text[i], color)
	}
	return out
}
