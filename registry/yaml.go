package registry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a registry.
//
//	default_kind: modifiable
//	tags: [FIRE, COLD, LIGHTNING, AXE]
//	categories:
//	  ELEMENTAL: [FIRE, COLD, LIGHTNING]
//	relationships:
//	  more: mul
//	stats:
//	  Damage:
//	    kind: tagged
//	    total: "base * (1 + increased) * more"
//	    parts: [base, increased, more]
//	  Strength:
//	    base: 10
type Document struct {
	DefaultKind   string               `yaml:"default_kind"`
	DefaultTotal  string               `yaml:"default_total"`
	Tags          []string             `yaml:"tags"`
	Categories    map[string][]string  `yaml:"categories"`
	Relationships map[string]string    `yaml:"relationships"`
	Stats         map[string]StatEntry `yaml:"stats"`
}

// StatEntry is the YAML form of one stat's configuration.
type StatEntry struct {
	Kind     string             `yaml:"kind"`
	Total    string             `yaml:"total"`
	Parts    []string           `yaml:"parts"`
	Settable string             `yaml:"settable"`
	Base     *float64           `yaml:"base"`
	Bases    map[string]float64 `yaml:"bases"`
}

// LoadYAML decodes a Document from r and applies it to reg. Unknown fields
// are rejected. Every problem is reported, aggregated.
func LoadYAML(reg *Registry, r io.Reader) error {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("registry: decode yaml: %w", err)
	}
	return doc.Apply(reg)
}

// LoadYAMLFile is LoadYAML over the named file.
func LoadYAMLFile(reg *Registry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	defer f.Close()
	return LoadYAML(reg, f)
}

// Apply registers the document's declarations on reg. Tags come first so
// that total expressions may use tag names; totals come last, in stat name
// order.
func (d *Document) Apply(reg *Registry) error {
	var result *multierror.Error
	add := func(err error) {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	if d.DefaultKind != "" {
		k, err := ParseKind(d.DefaultKind)
		add(err)
		if err == nil {
			add(reg.SetDefaultKind(k))
		}
	}
	if d.DefaultTotal != "" {
		add(reg.SetDefaultTotalExpression(d.DefaultTotal))
	}

	for _, name := range d.Tags {
		_, err := reg.RegisterTag(name)
		add(err)
	}
	for _, name := range sortedKeys(d.Categories) {
		_, err := reg.RegisterTagCategoryNames(name, d.Categories[name]...)
		add(err)
	}

	for _, key := range sortedKeys(d.Relationships) {
		rel, err := ParseRelationship(d.Relationships[key])
		add(err)
		if err == nil {
			add(reg.RegisterRelationship(key, rel))
		}
	}

	names := make([]string, 0, len(d.Stats))
	for name := range d.Stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := d.Stats[name]
		if entry.Kind != "" {
			k, err := ParseKind(entry.Kind)
			add(err)
			if err == nil {
				add(reg.RegisterStatType(name, k))
			}
		}
		if len(entry.Parts) > 0 {
			add(reg.RegisterParts(name, entry.Parts...))
		}
		if entry.Settable != "" {
			add(reg.RegisterSettablePart(name, entry.Settable))
		}
		if entry.Base != nil {
			add(reg.RegisterDefaultBase(name, *entry.Base))
		}
		for _, part := range sortedKeys(entry.Bases) {
			add(reg.RegisterDefaultBase(name+"."+part, entry.Bases[part]))
		}
	}

	for _, name := range names {
		if src := d.Stats[name].Total; src != "" {
			add(reg.RegisterTotalExpression(name, src))
		}
	}

	return result.ErrorOrNil()
}
