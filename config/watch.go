package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the profiles directory and reports which profile
// name changed, so the caller can reload just that profile.
type Watcher struct {
	fs *fsnotify.Watcher
}

// WatchProfiles starts watching ProfilesDir() for writes. onChange is
// called with the profile name (file base name without extension)
// whenever a profile file is written or created.
func WatchProfiles(onChange func(name string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := ProfilesDir()
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				ext := filepath.Ext(ev.Name)
				if ext != ".yaml" && ext != ".yml" {
					continue
				}
				name := filepath.Base(ev.Name)
				name = name[:len(name)-len(ext)]
				onChange(name)
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return &Watcher{fs: fw}, nil
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fs.Close() }
