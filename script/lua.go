package script

import (
	"os"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
	glua "github.com/yuin/gopher-lua"
)

// LuaHost implements Host on top of a gopher-lua VM, grounded in the
// teacher's Lua engine: global functions are the script-defined
// handlers Run/RunQuietly dispatch to by name, and compiled
// trigger/replacement patterns are cached regexes exactly as the
// teacher's engine caches them for its own regex API.
type LuaHost struct {
	L     *glua.LState
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewLuaHost returns a fresh Lua VM ready to load scripts into.
func NewLuaHost() *LuaHost {
	cache, _ := lru.New[string, *regexp.Regexp](100)
	return &LuaHost{L: glua.NewState(), cache: cache}
}

// Close releases the underlying Lua state.
func (h *LuaHost) Close() { h.L.Close() }

func (h *LuaHost) compile(pattern string) (*regexp.Regexp, error) {
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

// Run invokes the global Lua function named fn with arg, returning
// its string result. A function that doesn't exist, or that errors,
// is reported as no hit.
func (h *LuaHost) Run(fn, arg string) (string, bool) {
	return h.call(fn, arg, false)
}

// RunQuietly is Run with Lua errors swallowed regardless of suppress;
// the distinction the spec draws is purely about whether the error
// surfaces to the user, which is outside this interface's concern.
func (h *LuaHost) RunQuietly(fn, arg string, suppress bool) (string, bool) {
	return h.call(fn, arg, true)
}

func (h *LuaHost) call(fn, arg string, quiet bool) (string, bool) {
	v := h.L.GetGlobal(fn)
	if v.Type() != glua.LTFunction {
		return "", false
	}
	err := h.L.CallByParam(glua.P{
		Fn:      v,
		NRet:    1,
		Protect: true,
	}, glua.LString(arg))
	if err != nil {
		return "", false
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	if ret == glua.LNil {
		return "", false
	}
	return ret.String(), true
}

func (h *LuaHost) LoadFile(path string, suppress bool) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return h.L.DoString(string(content)) == nil
}

func (h *LuaHost) Eval(expr string) (string, bool) {
	if err := h.L.DoString("return " + expr); err != nil {
		return "", false
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	return ret.String(), true
}

func (h *LuaHost) SetInt(name string, val int64) { h.L.SetGlobal(name, glua.LNumber(val)) }
func (h *LuaHost) SetStr(name, val string)        { h.L.SetGlobal(name, glua.LString(val)) }
func (h *LuaHost) GetInt(name string) int64 {
	v := h.L.GetGlobal(name)
	if n, ok := v.(glua.LNumber); ok {
		return int64(n)
	}
	return 0
}
func (h *LuaHost) GetStr(name string) string {
	v := h.L.GetGlobal(name)
	if v.Type() == glua.LTString {
		return v.String()
	}
	return ""
}

func (h *LuaHost) MatchPrepare(pattern, body string) (Compiled, error) {
	re, err := h.compile(pattern)
	if err != nil {
		return nil, err
	}
	return &regexTrigger{re: re, body: body}, nil
}

func (h *LuaHost) SubstitutePrepare(pattern, replacement string) (Compiled, error) {
	re, err := h.compile(pattern)
	if err != nil {
		return nil, err
	}
	return &regexSubst{re: re, replacement: replacement}, nil
}

func (h *LuaHost) MatchExec(c Compiled, text string) (string, bool) {
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
