package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okros-mud/okros/action"
)

func TestLoadProfileParsesAllSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
name: TestMUD
hostname: mud.example.com
port: 4000
commands:
  - look
aliases:
  - name: k
    text: "kill %1"
actions:
  - pattern: "^You are hungry"
    body: "eat bread"
    kind: trigger
  - pattern: "spam"
    kind: gag
macros:
  - key_code: 1
    text: "north"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "TestMUD" || p.Hostname != "mud.example.com" || p.Port != 4000 {
		t.Fatalf("profile = %+v", p)
	}
	if len(p.Aliases) != 1 || p.Aliases[0].Name != "k" {
		t.Fatalf("aliases = %v", p.Aliases)
	}
	if len(p.Actions) != 2 || p.Actions[0].Kind != action.Trigger || p.Actions[1].Kind != action.Gag {
		t.Fatalf("actions = %v", p.Actions)
	}
	if len(p.Macros) != 1 || p.Macros[0].KeyCode != 1 {
		t.Fatalf("macros = %v", p.Macros)
	}
}

func TestLoadAllProfilesSkipsMissingDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	profiles, err := LoadAllProfiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 0 {
		t.Fatalf("profiles = %v", profiles)
	}
}
