package script

// Stacked chains multiple Host implementations in registration order,
// threading each member's output into the next's input (for Run/
// RunQuietly); any member reporting a hit counts as a hit overall.
// Disabled function names short-circuit to "no hit" without
// consulting any member, grounded in the original plugin stack's
// per-name disable list.
type Stacked struct {
	members  []Host
	disabled map[string]bool
}

// NewStacked returns a stack holding members in registration order;
// Add appends more.
func NewStacked(members ...Host) *Stacked {
	return &Stacked{members: members, disabled: make(map[string]bool)}
}

// Add appends a member to the chain.
func (s *Stacked) Add(h Host) { s.members = append(s.members, h) }

// Disable suppresses fn for every future Run/RunQuietly call.
func (s *Stacked) Disable(fn string) { s.disabled[fn] = true }

// Enable re-allows fn.
func (s *Stacked) Enable(fn string) { delete(s.disabled, fn) }

func (s *Stacked) Run(fn, arg string) (string, bool) {
	if s.disabled[fn] {
		return "", false
	}
	cur := arg
	any := false
	for _, m := range s.members {
		if out, hit := m.Run(fn, cur); hit {
			cur = out
			any = true
		}
	}
	return cur, any
}

func (s *Stacked) RunQuietly(fn, arg string, suppress bool) (string, bool) {
	if s.disabled[fn] {
		return "", false
	}
	cur := arg
	any := false
	for _, m := range s.members {
		if out, hit := m.RunQuietly(fn, cur, suppress); hit {
			cur = out
			any = true
		}
	}
	return cur, any
}

func (s *Stacked) LoadFile(path string, suppress bool) bool {
	ok := false
	for _, m := range s.members {
		if m.LoadFile(path, suppress) {
			ok = true
		}
	}
	return ok
}

func (s *Stacked) Eval(expr string) (string, bool) {
	for _, m := range s.members {
		if out, hit := m.Eval(expr); hit {
			return out, true
		}
	}
	return "", false
}

func (s *Stacked) SetInt(name string, val int64) {
	for _, m := range s.members {
		m.SetInt(name, val)
	}
}

func (s *Stacked) SetStr(name, val string) {
	for _, m := range s.members {
		m.SetStr(name, val)
	}
}

func (s *Stacked) GetInt(name string) int64 {
	if len(s.members) == 0 {
		return 0
	}
	return s.members[0].GetInt(name)
}

func (s *Stacked) GetStr(name string) string {
	if len(s.members) == 0 {
		return ""
	}
	return s.members[0].GetStr(name)
}

// compiledSet is MatchPrepare/SubstitutePrepare's compiled form for a
// stack: one compiled value per member, indexed in registration order.
type compiledSet struct {
	per []Compiled
}

func (s *Stacked) MatchPrepare(pattern, body string) (Compiled, error) {
	set := &compiledSet{per: make([]Compiled, len(s.members))}
	for i, m := range s.members {
		c, err := m.MatchPrepare(pattern, body)
		if err != nil {
			return nil, err
		}
		set.per[i] = c
	}
	return set, nil
}

func (s *Stacked) SubstitutePrepare(pattern, replacement string) (Compiled, error) {
	set := &compiledSet{per: make([]Compiled, len(s.members))}
	for i, m := range s.members {
		c, err := m.SubstitutePrepare(pattern, replacement)
		if err != nil {
			return nil, err
		}
		set.per[i] = c
	}
	return set, nil
}

func (s *Stacked) MatchExec(c Compiled, text string) (string, bool) {
	set, ok := c.(*compiledSet)
	if !ok {
		return "", false
	}
	cur := text
	any := false
	for i, m := range s.members {
		if i >= len(set.per) {
			break
		}
		if out, hit := m.MatchExec(set.per[i], cur); hit {
			cur = out
			any = true
		}
	}
	return cur, any
}
