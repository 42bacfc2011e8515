package protocol

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultName is the protocol used when none is requested.
const DefaultName = "hn-rapidplan"

// ErrNotFound indicates no protocol with the requested name exists.
var ErrNotFound = errors.New("protocol not found")

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Parse decodes and validates a protocol document.
func Parse(data []byte) (*Protocol, error) {
	var p Protocol
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse protocol: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Summary is a short listing entry for a protocol.
type Summary struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Builtin     bool   `json:"builtin"`
	Steps       int    `json:"steps"`
}

// Registry resolves protocols by name from the built-in set and an optional
// directory of user-supplied YAML files. User protocols shadow built-ins.
type Registry struct {
	user fs.FS
}

// NewRegistry creates a Registry. user may be nil.
func NewRegistry(user fs.FS) *Registry {
	return &Registry{user: user}
}

// Get loads and validates the named protocol.
func (r *Registry) Get(name string) (*Protocol, error) {
	if name == "" {
		name = DefaultName
	}

	if r.user != nil {
		data, err := fs.ReadFile(r.user, name+".yaml")
		if err == nil {
			p, err := Parse(data)
			if err != nil {
				return nil, fmt.Errorf("user protocol %q: %w", name, err)
			}
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read user protocol %q: %w", name, err)
		}
	}

	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrNotFound, name, strings.Join(r.Names(), ", "))
	}
	return Parse(data)
}

// Names returns every resolvable protocol name, sorted.
func (r *Registry) Names() []string {
	set := make(map[string]bool)
	for _, n := range yamlNames(builtinFS, "builtin") {
		set[n] = true
	}
	if r.user != nil {
		for _, n := range yamlNames(r.user, ".") {
			set[n] = true
		}
	}

	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// List loads every protocol and summarises it. Protocols that fail to load
// are reported in the returned error but do not stop the listing.
func (r *Registry) List() ([]Summary, error) {
	builtin := make(map[string]bool)
	for _, n := range yamlNames(builtinFS, "builtin") {
		builtin[n] = true
	}

	var (
		summaries []Summary
		problems  []error
	)
	for _, name := range r.Names() {
		p, err := r.Get(name)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		summaries = append(summaries, Summary{
			Name:        name,
			Title:       p.Title,
			Description: p.Description,
			Builtin:     builtin[name] && !r.hasUser(name),
			Steps:       len(p.Steps),
		})
	}
	return summaries, errors.Join(problems...)
}

func (r *Registry) hasUser(name string) bool {
	if r.user == nil {
		return false
	}
	_, err := fs.Stat(r.user, name+".yaml")
	return err == nil
}

func yamlNames(fsys fs.FS, dir string) []string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	return names
}
