// Package action holds the MUD profile data model of §3: actions
// (trigger/replacement/gag), aliases, macros, and the profile that
// groups them, grounded in the original client's Action/Alias/Macro
// types.
package action

import "github.com/okros-mud/okros/script"

// Kind distinguishes the three ways an Action's pattern match can be
// used.
type Kind int

const (
	Trigger Kind = iota
	Replacement
	Gag
)

// Action is a pattern plus a body, compiled lazily against a script
// collaborator (or a plain regex engine if none is bound).
type Action struct {
	Pattern string
	Body    string
	Kind    Kind

	compiled script.Compiled
}

// Compile prepares the pattern against host. Gag and Replacement
// actions compile as substitutions (a Gag substitutes the empty
// string); Trigger actions compile as matchers.
func (a *Action) Compile(host script.Host) error {
	var c script.Compiled
	var err error
	switch a.Kind {
	case Trigger:
		c, err = host.MatchPrepare(a.Pattern, a.Body)
	case Gag:
		c, err = host.SubstitutePrepare(a.Pattern, "")
	default: // Replacement
		c, err = host.SubstitutePrepare(a.Pattern, a.Body)
	}
	if err != nil {
		return err
	}
	a.compiled = c
	return nil
}

// Exec evaluates the compiled action against text. Compile must have
// been called first; an uncompiled action always reports no hit.
func (a *Action) Exec(host script.Host, text string) (string, bool) {
	if a.compiled == nil {
		return "", false
	}
	return host.MatchExec(a.compiled, text)
}

// Alias is a name/text pair; expansion over an argument string
// follows the %0/%N/%-N/%+N/%% rules implemented by
// github.com/okros-mud/okros/command.
type Alias struct {
	Name string
	Text string
}

// Macro binds a terminal key code to replayed input text.
type Macro struct {
	KeyCode int
	Text    string
}

// Profile is a MUD connection profile: server address plus the
// command/alias/action/macro lists bound to it.
type Profile struct {
	Name     string
	Hostname string
	Port     int

	Commands []string
	Aliases  []Alias
	Actions  []Action
	Macros   []Macro

	Loaded bool
}

// FindAlias looks up an alias by name, as used by the command
// pipeline's alias-expansion stage.
func (p *Profile) FindAlias(name string) (string, bool) {
	for _, a := range p.Aliases {
		if a.Name == name {
			return a.Text, true
		}
	}
	return "", false
}

// CompileActions compiles every action in the profile against host,
// stopping at the first compilation error (e.g. an invalid pattern).
func (p *Profile) CompileActions(host script.Host) error {
	for i := range p.Actions {
		if err := p.Actions[i].Compile(host); err != nil {
			return err
		}
	}
	return nil
}
