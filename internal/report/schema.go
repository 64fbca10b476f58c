package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// catalogSchema describes the shape every embedded usage catalog revision
// must satisfy. Validation runs once at load so a malformed catalog fails
// loudly in tests instead of rendering garbage to an operator.
func catalogSchema() map[string]any {
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"version", "steps"},
		"properties": map[string]any{
			"version": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"steps": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"label", "command"},
					"properties": map[string]any{
						"label": map[string]any{
							"type":      "string",
							"minLength": 1,
						},
						"command": map[string]any{
							"type":      "string",
							"minLength": 1,
						},
					},
				},
			},
		},
	}
}

var (
	catalogSchemaLoader gojsonschema.JSONLoader
	catalogSchemaOnce   sync.Once
)

func loadCatalogSchema() gojsonschema.JSONLoader {
	catalogSchemaOnce.Do(func() {
		catalogSchemaLoader = gojsonschema.NewGoLoader(catalogSchema())
	})
	return catalogSchemaLoader
}

type catalogValidationError struct {
	issues []string
}

func (e catalogValidationError) Error() string {
	if len(e.issues) == 0 {
		return "usage catalog failed schema validation"
	}
	return strings.Join(e.issues, "; ")
}

// validateCatalog checks a decoded catalog document against the schema.
func validateCatalog(doc any) error {
	result, err := gojsonschema.Validate(loadCatalogSchema(), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("catalog schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return catalogValidationError{issues: issues}
}
