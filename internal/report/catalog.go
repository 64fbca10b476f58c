package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var rawCatalog []byte

// UsageStep is one entry of the usage catalog: a short label and the command
// an operator should run for it. Command may be a Go template referencing
// ModelConfig fields.
type UsageStep struct {
	Label   string `yaml:"label"`
	Command string `yaml:"command"`
}

// Catalog is the static, versioned usage guidance compiled into the
// launcher. It is data, not control flow: rendering it never depends on what
// the readiness steps found.
type Catalog struct {
	Version int         `yaml:"version"`
	Steps   []UsageStep `yaml:"steps"`
}

var (
	catalogValue Catalog
	catalogErr   error
	catalogOnce  sync.Once
)

// LoadCatalog decodes and schema-validates the embedded usage catalog. The
// outcome is cached; the embedded document cannot change at runtime.
func LoadCatalog() (Catalog, error) {
	catalogOnce.Do(func() {
		var doc any
		if err := yaml.Unmarshal(rawCatalog, &doc); err != nil {
			catalogErr = fmt.Errorf("decode usage catalog: %w", err)
			return
		}
		if err := validateCatalog(doc); err != nil {
			catalogErr = fmt.Errorf("usage catalog: %w", err)
			return
		}
		if err := yaml.Unmarshal(rawCatalog, &catalogValue); err != nil {
			catalogErr = fmt.Errorf("decode usage catalog: %w", err)
		}
	})
	return catalogValue, catalogErr
}

// ModelConfig carries the model service settings echoed in the report and
// substituted into the catalog's command templates.
type ModelConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// Expand renders each command template against the given settings and
// returns the catalog steps ready for display.
func (c Catalog) Expand(cfg ModelConfig) ([]UsageStep, error) {
	steps := make([]UsageStep, 0, len(c.Steps))
	for i, step := range c.Steps {
		tmpl, err := template.New(fmt.Sprintf("catalog-step-%d", i+1)).Parse(step.Command)
		if err != nil {
			return nil, fmt.Errorf("parse command for %q: %w", step.Label, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return nil, fmt.Errorf("expand command for %q: %w", step.Label, err)
		}
		steps = append(steps, UsageStep{Label: step.Label, Command: buf.String()})
	}
	return steps, nil
}
