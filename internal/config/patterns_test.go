package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/promptguard/pkg/guard"
)

func TestLoadPatternFile_EmptyPathIsNoOp(t *testing.T) {
	pf, err := LoadPatternFile("")
	require.NoError(t, err)
	assert.Empty(t, pf.CustomPatterns)
	assert.Empty(t, pf.CustomRules)
}

func TestLoadPatternFile_MissingFileIsNoOp(t *testing.T) {
	pf, err := LoadPatternFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, pf.CustomPatterns)
}

func TestLoadPatternFile_DecodesPatternsAndRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	doc := `
custom_patterns:
  - id: custom.banana_phone
    regex: "(?i)banana phone"
    severity: critical
    category: custom
    weight: 95
custom_rules:
  - id: custom.redact_banana
    regex: "(?i)banana phone"
    action: replace
    replacement: "[BANANA_REDACTED]"
    category: custom
    priority: 10
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	pf, err := LoadPatternFile(path)
	require.NoError(t, err)
	require.Len(t, pf.CustomPatterns, 1)
	assert.Equal(t, "custom.banana_phone", pf.CustomPatterns[0].ID)
	assert.Equal(t, guard.SeverityCritical, pf.CustomPatterns[0].Severity)
	assert.Equal(t, 95, pf.CustomPatterns[0].Weight)

	require.Len(t, pf.CustomRules, 1)
	assert.Equal(t, guard.ActionReplace, pf.CustomRules[0].Action)
	assert.Equal(t, "[BANANA_REDACTED]", pf.CustomRules[0].Replacement)
}

func TestLoadPatternFile_InvalidYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("custom_patterns: [\n"), 0o644))
	_, err := LoadPatternFile(path)
	require.Error(t, err)
}

func TestWatchPatternFile_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("custom_patterns: []\n"), 0o644))

	changes := make(chan PatternFile, 4)
	watcher, err := WatchPatternFile(path, func(pf PatternFile) { changes <- pf }, nil)
	require.NoError(t, err)
	defer watcher.Close()

	updated := `
custom_patterns:
  - id: custom.x
    regex: "(?i)x"
    severity: low
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case pf := <-changes:
		require.Len(t, pf.CustomPatterns, 1)
		assert.Equal(t, "custom.x", pf.CustomPatterns[0].ID)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the file change")
	}
}

func TestWatchPatternFile_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("custom_patterns: []\n"), 0o644))

	changes := make(chan PatternFile, 4)
	watcher, err := WatchPatternFile(path, func(pf PatternFile) { changes <- pf }, nil)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.yaml"), []byte("x: 1\n"), 0o644))

	select {
	case <-changes:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}
