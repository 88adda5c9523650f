// Package config resolves the client's configuration and runtime
// directories and loads MUD profile definitions, grounded in the
// teacher's XDG-aware config.Dir.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the client's configuration directory. Respects
// XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "okros")
}

// InitFile returns the path of init.lua inside Dir(). Nothing in the
// client loads it on startup.
func InitFile() string {
	return filepath.Join(Dir(), "init.lua")
}

// ProfilesDir returns the directory MUD profile YAML files live in.
func ProfilesDir() string {
	return filepath.Join(Dir(), "muds")
}

// RuntimeDir returns the base directory the headless control socket
// is created under: <runtime>/okros/<instance>.sock. XDG_RUNTIME_DIR
// overrides the default when set, per §6.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "okros")
	}
	return filepath.Join(os.TempDir(), "okros")
}

// SocketPath returns the control socket path for a named instance.
func SocketPath(instance string) string {
	return filepath.Join(RuntimeDir(), instance+".sock")
}
