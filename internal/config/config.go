// Package config loads the list of event sources to scrape.
//
// A site file is YAML with a "site" header and a "sources" list. Older JSON
// files with a top-level "breweries" or "sources" list are also accepted.
// A default site is embedded in the binary.
package config

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
)

// DefaultSite is the embedded site used when no config is given.
const DefaultSite = "ballard-food-trucks"

//go:embed sites/*.yaml
var builtinSites embed.FS

// ErrMissingField is wrapped by errors for absent required fields.
var ErrMissingField = errors.New("missing required field")

// Site is one site configuration: presentation details plus its sources.
type Site struct {
	Name          string `yaml:"name" json:"name"`
	TemplateType  string `yaml:"template_type" json:"template_type"`
	WebsiteTitle  string `yaml:"website_title" json:"website_title"`
	RepositoryURL string `yaml:"repository_url" json:"repository_url"`
	Description   string `yaml:"description" json:"description"`
	EventCategory string `yaml:"event_category,omitempty" json:"event_category,omitempty"`

	Sources []event.Source `yaml:"-" json:"-"`
}

type sourceEntry struct {
	Key          string         `yaml:"key" json:"key"`
	Name         string         `yaml:"name" json:"name"`
	URL          string         `yaml:"url" json:"url"`
	ParserType   string         `yaml:"parser_type" json:"parser_type"`
	ParserConfig map[string]any `yaml:"parser_config" json:"parser_config"`
}

type siteFile struct {
	Site    *Site         `yaml:"site" json:"site"`
	Sources []sourceEntry `yaml:"sources" json:"sources"`
}

type legacyFile struct {
	Site      *Site         `json:"site"`
	Breweries []sourceEntry `json:"breweries"`
	Sources   []sourceEntry `json:"sources"`
}

// Load reads a site file. The format is chosen by extension: .json is the
// legacy format, anything else is YAML.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parseJSON(data)
	}
	return ParseYAML(data)
}

// LoadNamed loads <dir>/<name>.yaml, or the embedded site of that name when
// dir is empty.
func LoadNamed(dir, name string) (*Site, error) {
	if dir == "" {
		data, err := builtinSites.ReadFile("sites/" + name + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("site configuration not found: %s", name)
		}
		return ParseYAML(data)
	}
	path := filepath.Join(dir, name+".yaml")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("site configuration not found: %s", path)
	}
	return Load(path)
}

// ListSites returns the names of the *.yaml site files in dir, sorted. An
// empty dir lists the embedded sites; a missing dir lists nothing.
func ListSites(dir string) ([]string, error) {
	var (
		matches []string
		err     error
	)
	if dir == "" {
		matches, err = fs.Glob(builtinSites, "sites/*.yaml")
	} else {
		if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
			return []string{}, nil
		}
		matches, err = filepath.Glob(filepath.Join(dir, "*.yaml"))
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// ParseYAML parses a YAML site file.
func ParseYAML(data []byte) (*Site, error) {
	var f siteFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing site config: %w", err)
	}
	if f.Site == nil {
		return nil, fmt.Errorf("%w: site", ErrMissingField)
	}
	if err := f.Site.validate(); err != nil {
		return nil, err
	}

	sources, err := buildSources(f.Sources, false)
	if err != nil {
		return nil, err
	}
	f.Site.Sources = sources
	return f.Site, nil
}

func parseJSON(data []byte) (*Site, error) {
	var f legacyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	entries := f.Sources
	legacy := false
	if len(f.Breweries) > 0 {
		entries = f.Breweries
		legacy = true
	}

	sources, err := buildSources(entries, legacy)
	if err != nil {
		return nil, err
	}

	site := f.Site
	if site == nil {
		site = &Site{}
	}
	site.Sources = sources
	return site, nil
}

func (s *Site) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"name", s.Name},
		{"template_type", s.TemplateType},
		{"website_title", s.WebsiteTitle},
		{"repository_url", s.RepositoryURL},
		{"description", s.Description},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w '%s' in site configuration", ErrMissingField, r.name)
		}
	}
	return nil
}

// buildSources validates entries and converts them to sources. Legacy
// entries without a parser_type take it from parser_config, then the key.
func buildSources(entries []sourceEntry, legacy bool) ([]event.Source, error) {
	sources := make([]event.Source, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for i, e := range entries {
		if legacy && e.ParserType == "" {
			if pt, ok := e.ParserConfig["parser_type"].(string); ok && pt != "" {
				e.ParserType = pt
			} else {
				e.ParserType = e.Key
			}
		}

		required := []struct {
			name  string
			value string
		}{
			{"key", e.Key},
			{"name", e.Name},
			{"url", e.URL},
			{"parser_type", e.ParserType},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				return nil, fmt.Errorf("%w '%s' in source %d", ErrMissingField, r.name, i+1)
			}
		}

		if seen[e.Key] {
			return nil, fmt.Errorf("duplicate source key %q", e.Key)
		}
		seen[e.Key] = true

		sources = append(sources, event.NewSource(e.Key, e.Name, e.URL, e.ParserType, e.ParserConfig))
	}
	return sources, nil
}

// Filter returns the sources whose keys are in keys, in config order. An
// empty keys returns all sources. Unknown keys are an error.
func Filter(sources []event.Source, keys []string) ([]event.Source, error) {
	if len(keys) == 0 {
		return sources, nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	out := make([]event.Source, 0, len(keys))
	for _, s := range sources {
		if want[s.Key] {
			out = append(out, s)
			delete(want, s.Key)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for k := range want {
			missing = append(missing, k)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown source keys: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
