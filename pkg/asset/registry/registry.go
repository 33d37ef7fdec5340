// Package registry holds the asset-class to instrument-type routing table.
//
// The table is static configuration: it is loaded once (from the embedded
// reference file or an operator-supplied override), validated at startup, and
// read-only afterwards. The wizard consults it on every asset-class selection
// to decide whether the instrument-type step can be skipped.
package registry

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tokenforge/wizard-middleware/pkg/asset"
)

//go:embed routing.yaml
var referenceRouting []byte

type routingFile struct {
	AssetClasses []classEntry `yaml:"asset_classes"`
}

type classEntry struct {
	Class           asset.Class              `yaml:"class"`
	InstrumentTypes []asset.InstrumentOption `yaml:"instrument_types"`
}

// Registry is an injectable, read-only routing table.
type Registry struct {
	options map[asset.Class][]asset.InstrumentOption
	order   []asset.Class
}

// Default builds the registry from the embedded reference routing table.
func Default() (*Registry, error) {
	return FromYAML(referenceRouting)
}

// FromFile builds the registry from an operator-supplied routing file.
func FromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses a routing table. Structural problems (unknown class,
// duplicate class or value) fail here; semantic totality is checked by
// Validate so injected test tables can stay partial.
func FromYAML(data []byte) (*Registry, error) {
	var file routingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse routing table: %w", err)
	}

	r := &Registry{options: make(map[asset.Class][]asset.InstrumentOption)}
	for _, entry := range file.AssetClasses {
		if !entry.Class.Valid() {
			return nil, fmt.Errorf("routing table: unknown asset class %q", entry.Class)
		}
		if _, dup := r.options[entry.Class]; dup {
			return nil, fmt.Errorf("routing table: duplicate asset class %q", entry.Class)
		}
		seen := make(map[string]struct{}, len(entry.InstrumentTypes))
		for _, opt := range entry.InstrumentTypes {
			if opt.Value == "" {
				return nil, fmt.Errorf("routing table: class %q has an instrument type without a value", entry.Class)
			}
			if _, dup := seen[opt.Value]; dup {
				return nil, fmt.Errorf("routing table: class %q has duplicate instrument type %q", entry.Class, opt.Value)
			}
			seen[opt.Value] = struct{}{}
		}
		r.options[entry.Class] = entry.InstrumentTypes
		r.order = append(r.order, entry.Class)
	}
	return r, nil
}

// InstrumentTypes returns the option list for the class. Unknown classes get
// an empty slice, never an error.
func (r *Registry) InstrumentTypes(class asset.Class) []asset.InstrumentOption {
	return r.options[class]
}

// FormComponent returns the form component name for the given class and
// instrument type value, or "" when no such option exists.
func (r *Registry) FormComponent(class asset.Class, value string) string {
	for _, opt := range r.options[class] {
		if opt.Value == value {
			return opt.FormComponent
		}
	}
	return ""
}

// HasMultipleTypes reports whether the class offers more than one instrument
// type and therefore needs an explicit instrument-type step.
func (r *Registry) HasMultipleTypes(class asset.Class) bool {
	return len(r.options[class]) > 1
}

// Classes returns the classes present in the table, in file order.
func (r *Registry) Classes() []asset.Class {
	return r.order
}

// Validate checks the table is total over the declared asset classes, that no
// class is empty, and that every form component resolves through resolvable.
// Run at startup so an orphaned routing entry fails fast instead of surfacing
// as a dead end mid-wizard.
func (r *Registry) Validate(resolvable func(formComponent string) bool) error {
	for _, class := range asset.Classes() {
		opts, ok := r.options[class]
		if !ok {
			return fmt.Errorf("routing table: asset class %q has no routing entry", class)
		}
		if len(opts) == 0 {
			return fmt.Errorf("routing table: asset class %q has no instrument types", class)
		}
		for _, opt := range opts {
			if opt.FormComponent == "" {
				return fmt.Errorf("routing table: instrument type %q (%s) names no form component", opt.Value, class)
			}
			if resolvable != nil && !resolvable(opt.FormComponent) {
				return fmt.Errorf("routing table: instrument type %q (%s) names unregistered form component %q",
					opt.Value, class, opt.FormComponent)
			}
		}
	}
	return nil
}
