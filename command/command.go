// Package command implements the command expansion pipeline of §4.7:
// variable substitution, alias expansion, speedwalk expansion and
// semicolon splitting, each gated by a flag bit, with a bounded
// recursion guard on execute.
package command

import (
	"strconv"
	"strings"
	"time"
)

// Flag selects which expansion stages apply to a queued entry.
type Flag int

const (
	ExpandVariables Flag = 1 << iota
	ExpandAliases
	ExpandSpeedwalk
	ExpandSemicolon
)

// AllExpansions is the flag set a fresh top-level input line carries.
const AllExpansions = ExpandVariables | ExpandAliases | ExpandSpeedwalk | ExpandSemicolon

// Vars supplies the session fields %h/%p/%n/%P/%f substitute to.
type Vars struct {
	Host string // %h
	Port int    // %p
	Name string // %n
	P    string // %P
}

// AliasLookup resolves an alias name to its definition. ok is false
// when no alias by that name exists.
type AliasLookup func(name string) (text string, ok bool)

// SpeedwalkLead is the default speedwalk prefix character (§4.7.4).
const SpeedwalkLead = '/'

// CommandChar is the default internal-dispatch prefix (§4.7 contract).
const CommandChar = '#'

type queued struct {
	text  string
	flags Flag
}

// Pipeline holds the expansion queue and collaborators.
type Pipeline struct {
	Vars    Vars
	Aliases AliasLookup
	Lead    byte // speedwalk lead character; 0 defaults to SpeedwalkLead

	queue []queued
}

// New returns a pipeline with the given variable and alias sources.
func New(vars Vars, aliases AliasLookup) *Pipeline {
	return &Pipeline{Vars: vars, Aliases: aliases, Lead: SpeedwalkLead}
}

// Enqueue adds one input line at the top of the pipeline with all
// expansion flags set.
func (p *Pipeline) Enqueue(line string) {
	p.Add(line, AllExpansions)
}

// Add enqueues text with an explicit set of expansion flags, letting
// a caller run any subset of the pipeline's stages in isolation (e.g.
// speedwalk expansion alone, with no alias or semicolon handling).
func (p *Pipeline) Add(text string, flags Flag) {
	p.queue = append(p.queue, queued{text: text, flags: flags})
}

// QueueDepth reports the number of entries currently queued, for
// diagnostics.
func (p *Pipeline) QueueDepth() int {
	return len(p.queue)
}

// Execute drains the queue, applying §4.7's expansion stages in
// order, and returns the resulting outbound command list. A hard
// guard of 100 dequeues aborts runaway alias recursion and clears
// whatever remains queued.
func (p *Pipeline) Execute() []string {
	var out []string
	guard := 0
	for len(p.queue) > 0 {
		guard++
		if guard > 100 {
			p.queue = nil
			break
		}
		item := p.queue[0]
		p.queue = p.queue[1:]
		p.expand(item, &out)
	}
	return out
}

func (p *Pipeline) expand(item queued, out *[]string) {
	text := item.text
	flags := item.flags

	if strings.HasPrefix(text, "\\") {
		*out = append(*out, text[1:])
		return
	}

	if flags&ExpandVariables != 0 {
		text = p.substituteVariables(text)
		flags &^= ExpandVariables
	}

	if flags&ExpandAliases != 0 {
		if expanded, hit := p.expandAlias(text); hit {
			p.queue = append([]queued{{text: expanded, flags: AllExpansions}}, p.queue...)
			return
		}
		flags &^= ExpandAliases
	}

	if flags&ExpandSpeedwalk != 0 {
		if cmds, ok := expandSpeedwalk(text, p.Lead); ok {
			flags &^= ExpandSpeedwalk
			if len(cmds) > 1 {
				rest := make([]queued, len(cmds))
				for i, c := range cmds {
					rest[i] = queued{text: c, flags: flags}
				}
				p.queue = append(rest, p.queue...)
				return
			}
			text = cmds[0]
		} else {
			flags &^= ExpandSpeedwalk
		}
	}

	if flags&ExpandSemicolon != 0 {
		segs := splitSemicolon(text)
		if len(segs) > 1 {
			rest := make([]queued, len(segs))
			for i, s := range segs {
				rest[i] = queued{text: s, flags: flags &^ ExpandSemicolon}
			}
			p.queue = append(rest, p.queue...)
			return
		}
		text = segs[0]
		flags &^= ExpandSemicolon
	}

	*out = append(*out, text)
}

// substituteVariables implements §4.7.2.
func (p *Pipeline) substituteVariables(s string) string {
	var b strings.Builder
	now := time.Now()
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		c := s[i+1]
		i++
		switch c {
		case 'h':
			b.WriteString(p.Vars.Host)
		case 'p':
			b.WriteString(strconv.Itoa(p.Vars.Port))
		case 'n':
			b.WriteString(p.Vars.Name)
		case 'P':
			b.WriteString(p.Vars.P)
		case 'f':
			b.WriteString(strconv.Itoa(p.Vars.Port + 6))
		case 'H':
			b.WriteString(strconv.Itoa(now.Hour()))
		case 'm':
			b.WriteString(strconv.Itoa(int(now.Month())))
		case 'M':
			b.WriteString(strconv.Itoa(now.Minute()))
		case 'd':
			b.WriteString(now.Month().String()[:3])
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// expandAlias implements §4.7.3 and §3's alias rules. The first
// token, or (if the input starts with a non-alphabetic character) a
// single-character name, is looked up; if found, %-substitution is
// applied to its body using the remainder as arguments.
func (p *Pipeline) expandAlias(s string) (string, bool) {
	if p.Aliases == nil || s == "" {
		return "", false
	}

	var name, rest string
	if !isAlpha(s[0]) {
		name = s[0:1]
		rest = strings.TrimLeft(s[1:], " \t")
	} else {
		i := 0
		for i < len(s) && s[i] != ' ' && s[i] != '\t' {
			i++
		}
		name = s[:i]
		rest = strings.TrimLeft(s[i:], " \t")
	}

	body, ok := p.Aliases(name)
	if !ok {
		return "", false
	}
	return substituteAliasArgs(body, rest), true
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// substituteAliasArgs applies the §3 Alias expansion rules.
func substituteAliasArgs(body, args string) string {
	tokens := strings.Fields(args)

	token := func(n int) string {
		if n < 1 || n > len(tokens) {
			return ""
		}
		return tokens[n-1]
	}
	joinUpTo := func(n int) string {
		if n < 1 {
			return ""
		}
		if n > len(tokens) {
			n = len(tokens)
		}
		return strings.Join(tokens[:n], " ")
	}
	fromOriginal := func(n int) string {
		// %+N: tokens N..last with their original spacing. Reconstruct
		// by locating the Nth token's start offset in the raw string.
		if n < 1 || n > len(tokens) {
			return ""
		}
		idx := nthTokenOffset(args, n)
		if idx < 0 {
			return ""
		}
		return args[idx:]
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '%' || i+1 >= len(body) {
			b.WriteByte(body[i])
			continue
		}
		rest := body[i+1:]
		switch {
		case rest[0] == '0':
			b.WriteString(args)
			i++
		case rest[0] == '%':
			b.WriteByte('%')
			i++
		case rest[0] >= '1' && rest[0] <= '9':
			b.WriteString(token(int(rest[0] - '0')))
			i++
		case rest[0] == '-' && len(rest) > 1 && rest[1] >= '0' && rest[1] <= '9':
			b.WriteString(joinUpTo(int(rest[1] - '0')))
			i += 2
		case rest[0] == '+' && len(rest) > 1 && rest[1] >= '0' && rest[1] <= '9':
			b.WriteString(fromOriginal(int(rest[1] - '0')))
			i += 2
		default:
			// Unknown %x: emitted verbatim as %x.
			b.WriteByte('%')
			b.WriteByte(rest[0])
			i++
		}
	}
	return b.String()
}

// nthTokenOffset returns the byte offset in s where the n-th
// whitespace-delimited token (1-based) begins, or -1 if there are
// fewer than n tokens.
func nthTokenOffset(s string, n int) int {
	i := 0
	count := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) {
			break
		}
		count++
		if count == n {
			return i
		}
		for i < len(s) && s[i] != ' ' && s[i] != '\t' {
			i++
		}
	}
	return -1
}

var speedwalkDir = map[byte]string{
	'n': "n", 's': "s", 'e': "e", 'w': "w", 'u': "u", 'd': "d",
}
var speedwalkDiagonal = map[byte]string{
	'h': "nw", 'j': "ne", 'k': "sw", 'l': "se",
}

// expandSpeedwalk implements §4.7.4: either the input is explicitly
// lead-prefixed, or it is bare and consists solely of digits and the
// direction set (excluding the literal word "news"). The result is
// one independent command per step, not a joined string — a caller
// that sets only ExpandSpeedwalk (no ExpandSemicolon) must still get
// every step as its own queue entry.
func expandSpeedwalk(s string, lead byte) ([]string, bool) {
	if lead == 0 {
		lead = SpeedwalkLead
	}
	diagonalsAllowed := false
	body := s
	if len(s) > 0 && s[0] == lead {
		body = s[1:]
		diagonalsAllowed = true
	} else if !isBareSpeedwalk(s) {
		return nil, false
	}

	var cmds []string
	i := 0
	for i < len(body) {
		start := i
		for i < len(body) && body[i] >= '0' && body[i] <= '9' {
			i++
		}
		countStr := body[start:i]
		if i >= len(body) {
			break
		}
		dirCh := body[i]
		i++

		var dir string
		if d, ok := speedwalkDir[dirCh]; ok {
			dir = d
		} else if diagonalsAllowed {
			if d, ok := speedwalkDiagonal[dirCh]; ok {
				dir = d
			} else {
				return nil, false
			}
		} else {
			return nil, false
		}

		count := 1
		if countStr != "" {
			n, err := strconv.Atoi(countStr)
			if err == nil && n > 0 {
				count = n
			}
		}
		if count > 99 {
			count = 99
		}
		for r := 0; r < count; r++ {
			cmds = append(cmds, dir)
		}
	}
	if len(cmds) == 0 {
		return nil, false
	}
	return cmds, true
}

// isBareSpeedwalk reports whether s consists solely of digits and the
// plain direction letters, and is not literally "news".
func isBareSpeedwalk(s string) bool {
	if s == "" || s == "news" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		if _, ok := speedwalkDir[c]; ok {
			continue
		}
		return false
	}
	return true
}

// splitSemicolon implements §4.7.5: split on unescaped ';'; "\;" is a
// literal ';'.
func splitSemicolon(s string) []string {
	var segs []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == ';' {
			cur.WriteByte(';')
			i++
			continue
		}
		if s[i] == ';' {
			segs = append(segs, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(s[i])
	}
	segs = append(segs, cur.String())
	return segs
}
