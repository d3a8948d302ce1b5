package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/wardenlabs/promptguard/pkg/guard"
)

// PatternFile is the decoded shape of a custom_patterns_file: a YAML
// document supplying additional patterns and sanitize rules on top of the
// built-in catalog.
type PatternFile struct {
	CustomPatterns []guard.Pattern      `yaml:"custom_patterns"`
	CustomRules    []guard.SanitizeRule `yaml:"custom_rules"`
}

// LoadPatternFile reads and decodes a custom pattern file. A missing path
// is not an error; it returns an empty PatternFile.
func LoadPatternFile(path string) (PatternFile, error) {
	var pf PatternFile
	if path == "" {
		return pf, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return pf, nil
	}
	if err != nil {
		return pf, fmt.Errorf("reading pattern file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return pf, fmt.Errorf("decoding pattern file %s: %w", path, err)
	}
	return pf, nil
}

// PatternWatcher watches a single custom pattern file and invokes onChange
// with the freshly decoded PatternFile whenever it is written, created, or
// replaced (editors often rename a temp file over the original).
type PatternWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}
}

// WatchPatternFile starts watching path's parent directory (the file itself
// may not exist yet, or may be replaced rather than modified in place) and
// calls onChange on every create/write/rename event for path, debounced by
// 200ms to collapse the burst of events a single save can produce. Errors
// decoding the reloaded file are reported via onError rather than stopping
// the watch.
func WatchPatternFile(path string, onChange func(PatternFile), onError func(error)) (*PatternWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating pattern file watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	pw := &PatternWatcher{watcher: watcher, path: path, done: make(chan struct{})}
	go pw.loop(onChange, onError)
	return pw, nil
}

func (pw *PatternWatcher) loop(onChange func(PatternFile), onError func(error)) {
	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	reload := func() {
		pf, err := LoadPatternFile(pw.path)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onChange != nil {
			onChange(pf)
		}
	}

	for {
		select {
		case <-pw.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(pw.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case <-timerC:
			reload()
			timer = nil
			timerC = nil
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// Close stops the watch.
func (pw *PatternWatcher) Close() error {
	close(pw.done)
	return pw.watcher.Close()
}
