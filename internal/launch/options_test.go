package launch

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phone-agent/launcher/internal/report"
	"github.com/phone-agent/launcher/internal/venv"
)

func TestOptionsSetDefaults(t *testing.T) {
	t.Parallel()

	var opts Options
	opts.setDefaults()

	require.Equal(t, os.Stdout, opts.Out)
	require.NotNil(t, opts.Logger)
	require.NotNil(t, opts.Report.Logger)
	require.Equal(t, venv.DefaultDir, opts.VenvDir)
	require.NotEmpty(t, opts.Root)
}

func TestOptionsSetDefaultsKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	opts := Options{
		Root:    "/work",
		VenvDir: "env",
	}
	opts.setDefaults()

	require.Equal(t, "/work", opts.Root)
	require.Equal(t, "env", opts.VenvDir)
}

func TestOptionsValidateRejectsNegativeWidth(t *testing.T) {
	t.Parallel()

	opts := Options{Report: report.RendererOptions{Width: -1}}
	opts.setDefaults()
	require.Error(t, opts.validate())

	_, err := New(Options{Report: report.RendererOptions{Width: -1}})
	require.Error(t, err)
}
