package script

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RegexHost is the plain-regex-engine fallback §4.9 allows when no
// scripting collaborator is bound: compiled patterns are cached by
// source text the same way the teacher's Lua engine caches compiled
// regexes for its trigger API.
type RegexHost struct {
	cache *lru.Cache[string, *regexp.Regexp]
	vars  map[string]string
}

// NewRegexHost returns a Host backed only by Go's regexp package,
// caching up to size compiled patterns.
func NewRegexHost(size int) *RegexHost {
	c, _ := lru.New[string, *regexp.Regexp](size)
	return &RegexHost{cache: c, vars: make(map[string]string)}
}

func (h *RegexHost) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := h.cache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	h.cache.Add(pattern, re)
	return re, nil
}

// regexTrigger is MatchPrepare's compiled form: a pattern plus the
// command body returned verbatim on a hit.
type regexTrigger struct {
	re   *regexp.Regexp
	body string
}

// regexSubst is SubstitutePrepare's compiled form.
type regexSubst struct {
	re          *regexp.Regexp
	replacement string
}

func (h *RegexHost) Run(fn, arg string) (string, bool)                       { return "", false }
func (h *RegexHost) RunQuietly(fn, arg string, suppress bool) (string, bool) { return "", false }
func (h *RegexHost) LoadFile(path string, suppress bool) bool                { return false }
func (h *RegexHost) Eval(expr string) (string, bool)                        { return "", false }

func (h *RegexHost) SetInt(name string, val int64) { h.vars[name] = itoa(val) }
func (h *RegexHost) SetStr(name, val string)       { h.vars[name] = val }
func (h *RegexHost) GetInt(name string) int64      { return atoi(h.vars[name]) }
func (h *RegexHost) GetStr(name string) string     { return h.vars[name] }

func (h *RegexHost) MatchPrepare(pattern, body string) (Compiled, error) {
	re, err := h.compile(pattern)
	if err != nil {
		return nil, err
	}
	return &regexTrigger{re: re, body: body}, nil
}

func (h *RegexHost) SubstitutePrepare(pattern, replacement string) (Compiled, error) {
	re, err := h.compile(pattern)
	if err != nil {
		return nil, err
	}
	return &regexSubst{re: re, replacement: replacement}, nil
}

func (h *RegexHost) MatchExec(c Compiled, text string) (string, bool) {
	switch t := c.(type) {
	case *regexTrigger:
		if t.re.MatchString(text) {
			return t.body, true
		}
	case *regexSubst:
		if t.re.MatchString(text) {
			return t.re.ReplaceAllString(text, t.replacement), true
		}
	}
	return "", false
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func atoi(s string) int64 {
	var v int64
	neg := false
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
		v = v*10 + int64(s[i]-'0')
	}
	if neg {
		v = -v
	}
	return v
}
