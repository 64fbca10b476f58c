package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	require.Equal(t, 1, catalog.Version)
	require.Len(t, catalog.Steps, 6)

	// The connectivity check leads and the help pointer closes the list.
	require.Equal(t, "adb devices", catalog.Steps[0].Command)
	require.Equal(t, "phone-agent --help", catalog.Steps[len(catalog.Steps)-1].Command)

	for _, step := range catalog.Steps {
		require.NotEmpty(t, step.Label)
		require.NotEmpty(t, step.Command)
	}
}

func TestLoadCatalogIsStable(t *testing.T) {
	first, err := LoadCatalog()
	require.NoError(t, err)
	second, err := LoadCatalog()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestExpandSubstitutesModelSettings(t *testing.T) {
	catalog, err := LoadCatalog()
	require.NoError(t, err)

	steps, err := catalog.Expand(ModelConfig{
		BaseURL: "http://localhost:8000/v1",
		Model:   "autoglm-phone-9b",
		APIKey:  "EMPTY",
	})
	require.NoError(t, err)
	require.Len(t, steps, len(catalog.Steps))

	var sawModel bool
	for _, step := range steps {
		require.NotContains(t, step.Command, "{{", "templates must be fully expanded")
		if strings.Contains(step.Command, "autoglm-phone-9b") {
			sawModel = true
		}
	}
	require.True(t, sawModel, "expected the configured model to appear in a command")
}

func TestExpandReportsBrokenTemplates(t *testing.T) {
	broken := Catalog{
		Version: 1,
		Steps: []UsageStep{
			{Label: "Broken", Command: "serve {{.NoSuchField}}"},
		},
	}

	_, err := broken.Expand(ModelConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Broken")
}
