package config

import (
	"os"
	"path/filepath"
	"strings"

	yaml "github.com/goccy/go-yaml"

	"github.com/okros-mud/okros/action"
)

// ProfileFile is the on-disk YAML shape of a MUD profile, parsed with
// goccy/go-yaml the way the teacher's UI config loads layout files.
type ProfileFile struct {
	Name     string   `yaml:"name"`
	Hostname string   `yaml:"hostname"`
	Port     int      `yaml:"port"`
	Commands []string `yaml:"commands"`
	Aliases  []struct {
		Name string `yaml:"name"`
		Text string `yaml:"text"`
	} `yaml:"aliases"`
	Actions []struct {
		Pattern string `yaml:"pattern"`
		Body    string `yaml:"body"`
		Kind    string `yaml:"kind"` // trigger|replacement|gag
	} `yaml:"actions"`
	Macros []struct {
		KeyCode int    `yaml:"key_code"`
		Text    string `yaml:"text"`
	} `yaml:"macros"`
}

// LoadProfile parses one MUD profile YAML file into the action
// package's runtime Profile type.
func LoadProfile(path string) (*action.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pf ProfileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, err
	}

	p := &action.Profile{
		Name:     pf.Name,
		Hostname: pf.Hostname,
		Port:     pf.Port,
		Commands: pf.Commands,
		Loaded:   true,
	}
	for _, a := range pf.Aliases {
		p.Aliases = append(p.Aliases, action.Alias{Name: a.Name, Text: a.Text})
	}
	for _, a := range pf.Actions {
		p.Actions = append(p.Actions, action.Action{
			Pattern: a.Pattern,
			Body:    a.Body,
			Kind:    parseKind(a.Kind),
		})
	}
	for _, m := range pf.Macros {
		p.Macros = append(p.Macros, action.Macro{KeyCode: m.KeyCode, Text: m.Text})
	}
	return p, nil
}

func parseKind(s string) action.Kind {
	switch strings.ToLower(s) {
	case "replacement":
		return action.Replacement
	case "gag":
		return action.Gag
	default:
		return action.Trigger
	}
}

// LoadAllProfiles loads every *.yaml/*.yml file in ProfilesDir().
func LoadAllProfiles() (map[string]*action.Profile, error) {
	dir := ProfilesDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*action.Profile{}, nil
		}
		return nil, err
	}

	out := make(map[string]*action.Profile)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		p, err := LoadProfile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out[p.Name] = p
	}
	return out, nil
}
