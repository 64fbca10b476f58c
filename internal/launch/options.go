package launch

import (
	"errors"
	"io"
	"os"

	"github.com/phone-agent/launcher/internal/logging"
	"github.com/phone-agent/launcher/internal/report"
	"github.com/phone-agent/launcher/internal/venv"
)

// Options configure a Sequencer. The zero value plus nothing else is a
// working production configuration writing to stdout; the seam fields let
// tests instrument the sequence without touching the filesystem or PATH.
type Options struct {
	// Root is the directory readiness is checked from. Defaults to the
	// process working directory.
	Root string
	// VenvDir is where the virtual environment is expected, relative to
	// Root unless absolute. Defaults to the conventional location.
	VenvDir string
	// ADBPath overrides the adb binary, either a bare name or a full path.
	ADBPath string
	// Out receives the rendered readiness report. Defaults to stdout.
	Out io.Writer
	// Report controls how the report is presented.
	Report report.RendererOptions
	Logger logging.Logger

	// Activator, Probe, and Renderer are built from the fields above when
	// nil. Supplying them swaps in instrumented implementations.
	Activator EnvironmentActivator
	Probe     DeviceProbe
	Renderer  ReportRenderer
}

// setDefaults applies the production defaults for anything left unset.
func (o *Options) setDefaults() {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = &logging.NoOpLogger{}
	}
	if o.Report.Logger == nil {
		o.Report.Logger = o.Logger
	}
	if o.VenvDir == "" {
		o.VenvDir = venv.DefaultDir
	}
	if o.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			o.Root = wd
		} else {
			o.Root = "."
		}
	}
}

// validate performs lightweight validation of user supplied options.
func (o *Options) validate() error {
	if o.Report.Width < 0 {
		return errors.New("report width must not be negative")
	}
	return nil
}
