package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/phone-agent/launcher/internal/adb"
	"github.com/phone-agent/launcher/internal/logging"
	"github.com/phone-agent/launcher/internal/venv"
)

// Report aggregates what a single launcher pass discovered. Failures travel
// as data: a failed activation or probe shows up in the rendered output, it
// never prevents rendering.
type Report struct {
	Environment venv.Activation
	Devices     adb.DeviceList
	// ProbeErr is the device probe's surfaced error, nil on success.
	ProbeErr error
}

// RendererOptions configure how the report is presented.
type RendererOptions struct {
	// Width bounds the usage guide's word wrap. Zero picks a default; the
	// wrap never exceeds 100 columns regardless.
	Width int
	// TTY enables ANSI styling and terminal markdown rendering.
	TTY bool
	// NoColor forces plain output even on a TTY.
	NoColor bool
	// Service is echoed in the report and substituted into the usage
	// catalog's command templates.
	Service ModelConfig
	Logger  logging.Logger
}

// Renderer writes fixed-structure readiness reports: environment outcome,
// model service settings, raw device enumeration output, and the usage
// catalog. The catalog is rendered on every pass regardless of step
// outcomes.
type Renderer struct {
	out     io.Writer
	width   int
	styled  bool
	logger  logging.Logger
	service ModelConfig
	steps   []UsageStep
	glam    *glamour.TermRenderer
	styles  styles
}

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	ok     lipgloss.Style
	bad    lipgloss.Style
	dim    lipgloss.Style
}

// NewRenderer loads the usage catalog, expands its command templates with
// the configured model service, and prepares the presentation layer for the
// given writer.
func NewRenderer(out io.Writer, opts RendererOptions) (*Renderer, error) {
	if out == nil {
		out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = &logging.NoOpLogger{}
	}

	width := opts.Width
	if width <= 0 {
		width = 80
	}
	if width > 100 {
		width = 100
	}

	catalog, err := LoadCatalog()
	if err != nil {
		return nil, err
	}
	steps, err := catalog.Expand(opts.Service)
	if err != nil {
		return nil, err
	}

	styled := opts.TTY && !opts.NoColor
	r := &Renderer{
		out:     out,
		width:   width,
		styled:  styled,
		logger:  opts.Logger,
		service: opts.Service,
		steps:   steps,
		styles:  newStyles(out, styled),
	}

	if styled {
		wrap := width
		if wrap < 10 {
			wrap = 10
		}
		g, gerr := glamour.NewTermRenderer(
			glamour.WithStylePath("dark"), // fixed style to avoid OSC queries
			glamour.WithWordWrap(wrap),
		)
		if gerr != nil {
			opts.Logger.Warn(context.Background(), "terminal markdown renderer unavailable",
				logging.Field("reason", gerr))
		} else {
			r.glam = g
		}
	}
	return r, nil
}

// newStyles binds lipgloss to the output writer with an explicit color
// profile so rendering stays deterministic and never queries the terminal.
func newStyles(out io.Writer, styled bool) styles {
	lr := lipgloss.NewRenderer(out)
	if styled {
		lr.SetColorProfile(termenv.ANSI256)
	} else {
		lr.SetColorProfile(termenv.Ascii)
	}
	return styles{
		title:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		header: lr.NewStyle().Bold(true),
		ok:     lr.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		bad:    lr.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		dim:    lr.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// Render writes the report. The returned error is a write failure on the
// output, nothing else; every readiness problem is part of the report body.
func (r *Renderer) Render(rep Report) error {
	var b strings.Builder

	b.WriteString(r.styles.title.Render("phone-agent readiness"))
	b.WriteString("\n\n")

	r.writeEnvironment(&b, rep.Environment)
	r.writeService(&b)
	r.writeDevices(&b, rep.Devices, rep.ProbeErr)
	r.writeUsage(&b)

	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return fmt.Errorf("write readiness report: %w", err)
	}
	return nil
}

func (r *Renderer) writeEnvironment(b *strings.Builder, act venv.Activation) {
	b.WriteString(r.styles.header.Render("environment"))
	b.WriteString("\n")

	if act.State == venv.StateActive {
		b.WriteString("  state:  " + r.styles.ok.Render("ACTIVE") + "\n")
		b.WriteString("  venv:   " + act.Dir + "\n")
		python := act.Python
		if act.PythonVersion != "" {
			python += " (python " + act.PythonVersion + ")"
		}
		b.WriteString("  python: " + python + "\n\n")
		return
	}

	b.WriteString("  state:  " + r.styles.bad.Render("ACTIVATION FAILED") + "\n")
	if act.Dir != "" {
		b.WriteString("  venv:   " + act.Dir + "\n")
	}
	if act.Err != nil {
		b.WriteString("  reason: " + act.Err.Error() + "\n")
	}
	b.WriteString("\n")
}

func (r *Renderer) writeService(b *strings.Builder) {
	if r.service == (ModelConfig{}) {
		return
	}
	b.WriteString(r.styles.header.Render("model service"))
	b.WriteString("\n")
	if r.service.BaseURL != "" {
		b.WriteString("  endpoint: " + r.service.BaseURL + "\n")
	}
	if r.service.Model != "" {
		b.WriteString("  model:    " + r.service.Model + "\n")
	}
	if r.service.APIKey != "" {
		b.WriteString("  api key:  " + describeAPIKey(r.service.APIKey) + "\n")
	}
	b.WriteString("\n")
}

// describeAPIKey never echoes a real key. The EMPTY placeholder is the
// documented default for locally served models and safe to show.
func describeAPIKey(key string) string {
	if key == "EMPTY" {
		return "EMPTY (placeholder for local serving)"
	}
	return "configured"
}

func (r *Renderer) writeDevices(b *strings.Builder, list adb.DeviceList, probeErr error) {
	b.WriteString(r.styles.header.Render("devices"))
	b.WriteString("\n")

	if probeErr != nil {
		b.WriteString("  " + r.styles.bad.Render("probe failed:") + " " + probeErr.Error() + "\n\n")
		return
	}

	// The transport output is passed through untouched; operators read the
	// same lines adb printed.
	if raw := strings.TrimRight(list.Raw, "\n"); raw != "" {
		b.WriteString(raw)
		b.WriteString("\n")
	}

	switch n := len(list.Devices); n {
	case 0:
		b.WriteString("  " + r.styles.dim.Render("no devices detected") + "\n")
	case 1:
		b.WriteString("  " + r.styles.dim.Render("1 device attached") + "\n")
	default:
		b.WriteString("  " + r.styles.dim.Render(fmt.Sprintf("%d devices attached", n)) + "\n")
	}
	b.WriteString("\n")
}

func (r *Renderer) writeUsage(b *strings.Builder) {
	md := r.usageMarkdown()
	if r.glam != nil {
		if rendered, err := r.glam.Render(md); err == nil {
			b.WriteString(rendered)
			return
		}
		r.logger.Warn(context.Background(), "markdown rendering failed, printing plain usage")
	}
	b.WriteString(md)
}

// usageMarkdown lays the catalog out as a small GitHub-flavored Markdown
// document. On TTYs it goes through glamour; everywhere else the source is
// readable as-is.
func (r *Renderer) usageMarkdown() string {
	var b strings.Builder
	b.WriteString("## Next steps\n\n")
	for i, step := range r.steps {
		fmt.Fprintf(&b, "%d. %s: `%s`\n", i+1, step.Label, step.Command)
	}
	return b.String()
}
