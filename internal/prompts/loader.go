// Package prompts provides a loader for externalized LLM prompt templates.
// Prompts are stored as JSON files and embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

// Prompt files shipped with the binary.
const (
	DiscoveryFile = "discovery.json"
	AnalysisFile  = "analysis.json"
)

// Key prefixes in AnalysisFile. Industry prompts are shared by every entity in a
// run; entity prompts mention the entity by name.
const (
	IndustryPrefix = "industry-"
	EntityPrefix   = "entity-"
)

//go:embed *.json
var promptFiles embed.FS

// Library loads prompt files from a filesystem and caches the parsed JSON.
type Library struct {
	fsys fs.FS

	mu    sync.RWMutex
	cache map[string]map[string]string
}

// New returns a Library over the embedded prompt files.
func New() *Library {
	return NewFromFS(promptFiles)
}

// NewFromFS returns a Library over fsys, for overrides and tests.
func NewFromFS(fsys fs.FS) *Library {
	return &Library{
		fsys:  fsys,
		cache: make(map[string]map[string]string),
	}
}

// Get retrieves a prompt by filename and key.
// The filename should not include the path (e.g., "discovery.json").
func (l *Library) Get(filename, key string) (string, error) {
	prompts, err := l.loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	return prompt, nil
}

// Render fetches a prompt and fills its placeholders.
func (l *Library) Render(filename, key string, data map[string]string) (string, error) {
	tmpl, err := l.Get(filename, key)
	if err != nil {
		return "", err
	}
	return Format(tmpl, data), nil
}

// List returns the prompt keys in a file in sorted order.
func (l *Library) List(filename string) ([]string, error) {
	prompts, err := l.loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// AnalysisPrompts renders the analysis prompt set for an industry. When entity is
// empty only the shared industry prompts are returned, so every entity in a run is
// measured against the same responses.
func (l *Library) AnalysisPrompts(industry, entity string) ([]string, error) {
	keys, err := l.List(AnalysisFile)
	if err != nil {
		return nil, err
	}

	data := map[string]string{"Industry": industry, "Name": entity}
	var out []string
	for _, key := range keys {
		switch {
		case strings.HasPrefix(key, IndustryPrefix):
		case strings.HasPrefix(key, EntityPrefix) && entity != "":
		default:
			continue
		}
		p, err := l.Render(AnalysisFile, key, data)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// loadFile loads and caches a prompt file.
func (l *Library) loadFile(filename string) (map[string]string, error) {
	l.mu.RLock()
	if prompts, exists := l.cache[filename]; exists {
		l.mu.RUnlock()
		return prompts, nil
	}
	l.mu.RUnlock()

	data, err := fs.ReadFile(l.fsys, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	l.mu.Lock()
	l.cache[filename] = prompts
	l.mu.Unlock()

	return prompts, nil
}

// Format replaces template placeholders in the form {{.Key}} with values from data.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}
