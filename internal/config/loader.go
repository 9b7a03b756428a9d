package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceBuiltin SourceKind = "builtin"
	SourceFile    SourceKind = "file"
)

// Source records where a config value came from.
type Source struct {
	Kind   SourceKind
	Name   string // builtin or default set
	File   string
	Line   int
	Column int
}

func (s Source) position() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // yaml path of each value a file wrote, last writer wins
	Files   []string          // loaded files, includes before their parent
}

// DefaultConfigPath is $ORBIT_CONFIG or ~/.config/orbit/config.yaml.
func DefaultConfigPath() (string, error) {
	if p := os.Getenv("ORBIT_CONFIG"); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "orbit", "config.yaml"), nil
}

// Load returns the effective config from the default location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load keeping the per-value sources for explain.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields the
// defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	l := &loader{sources: map[string]Source{}}
	raw := RawConfig{}
	if _, err := os.Stat(path); err == nil {
		if raw, err = l.load(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, l.withSource(err)
	}
	return &LoadResult{Config: cfg, Sources: l.sources, Files: l.files}, nil
}

// loader walks one config file and its includes depth first. A file may be
// included from several places; only a file including itself, directly or
// not, is an error.
type loader struct {
	sources map[string]Source
	files   []string
	loaded  map[string]bool
	stack   []string
}

func (l *loader) load(path string) (RawConfig, error) {
	file := canonicalPath(path)
	for _, open := range l.stack {
		if open == file {
			return RawConfig{}, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.stack, " -> "), file)
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	var own RawConfig
	if err := decodeStrict(data, &own); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", file, err)
	}
	sources, includes := scanDocument(&doc, file)

	l.stack = append(l.stack, file)
	merged := RawConfig{}
	for _, inc := range includes {
		paths, err := expandInclude(file, inc.value)
		if err != nil {
			return RawConfig{}, fmt.Errorf("%s: include %q: %w", inc.src.position(), inc.value, err)
		}
		for _, p := range paths {
			raw, err := l.load(p)
			if err != nil {
				return RawConfig{}, err
			}
			merged = merged.merge(raw)
		}
	}
	l.stack = l.stack[:len(l.stack)-1]

	// The including file overrides what it includes.
	for k, src := range sources {
		l.sources[k] = src
	}
	if !l.loaded[file] {
		if l.loaded == nil {
			l.loaded = map[string]bool{}
		}
		l.loaded[file] = true
		l.files = append(l.files, file)
	}
	return merged.merge(own), nil
}

// withSource points a validation error at the file position that wrote the
// failing value, or the nearest enclosing value a file wrote.
func (l *loader) withSource(err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	for p := verr.Path; p != ""; p = parentPath(p) {
		if src, ok := l.sources[p]; ok {
			verr.Source = src
			break
		}
	}
	return err
}

func parentPath(path string) string {
	i := strings.LastIndexAny(path, ".[")
	if i < 0 {
		return ""
	}
	return path[:i]
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// expandInclude resolves an include entry against the including file. An
// entry names a file, a directory whose *.yaml and *.yml files load in name
// order, or a glob pattern.
func expandInclude(from, entry string) ([]string, error) {
	if entry == "" {
		return nil, fmt.Errorf("path is empty")
	}
	if entry == "~" || strings.HasPrefix(entry, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		entry = filepath.Join(home, strings.TrimPrefix(entry, "~"))
	}
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(filepath.Dir(from), entry)
	}

	if strings.ContainsAny(entry, "*?[") {
		matches, err := filepath.Glob(entry)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match")
		}
		sort.Strings(matches)
		return matches, nil
	}

	info, err := os.Stat(entry)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{entry}, nil
	}
	entries, err := os.ReadDir(entry)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				out = append(out, filepath.Join(entry, e.Name()))
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

type include struct {
	value string
	src   Source
}

// scanDocument records the position of every value in doc by yaml path,
// with sequence entries as path[i], and returns the top-level include
// entries.
func scanDocument(doc *yaml.Node, file string) (map[string]Source, []include) {
	sources := map[string]Source{}
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return sources, nil
	}
	at := func(n *yaml.Node) Source {
		return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
	}

	var walk func(n *yaml.Node, path string)
	walk = func(n *yaml.Node, path string) {
		switch n.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				key, val := n.Content[i].Value, n.Content[i+1]
				if path != "" {
					key = path + "." + key
				}
				sources[key] = at(val)
				walk(val, key)
			}
		case yaml.SequenceNode:
			for i, item := range n.Content {
				if item.Kind == yaml.MappingNode {
					p := fmt.Sprintf("%s[%d]", path, i)
					sources[p] = at(item)
					walk(item, p)
				}
			}
		}
	}
	walk(root, "")

	var includes []include
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		items := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			items = val.Content
		}
		for _, item := range items {
			if item.Kind == yaml.ScalarNode {
				includes = append(includes, include{value: item.Value, src: at(item)})
			}
		}
	}
	return sources, includes
}
