// Package launch runs the readiness sequence: activate the project's
// virtual environment, take a single device census, and render the report.
//
// The sequence is deliberately forgiving. A missing environment or an
// unreachable device transport becomes content in the report rather than a
// reason to stop; the only error Run returns is a failure to deliver the
// report itself.
package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phone-agent/launcher/internal/adb"
	"github.com/phone-agent/launcher/internal/logging"
	"github.com/phone-agent/launcher/internal/report"
	"github.com/phone-agent/launcher/internal/runenv"
	"github.com/phone-agent/launcher/internal/venv"
)

// Phase identifies a point the launch sequence has passed through.
type Phase string

const (
	PhaseStart               Phase = "start"
	PhaseEnvActivated        Phase = "environment_activated"
	PhaseEnvActivationFailed Phase = "environment_activation_failed"
	PhaseDevicesQueried      Phase = "devices_queried"
	PhaseReportRendered      Phase = "report_rendered"
	PhaseDone                Phase = "done"
)

// EnvironmentActivator enables the project's virtual environment and
// reports the outcome. Activation never fails with an error; a broken
// environment is described by the returned Activation.
type EnvironmentActivator interface {
	Activate(ctx context.Context) venv.Activation
}

// DeviceProbe enumerates attached devices, resolving the transport binary
// through the supplied runtime context.
type DeviceProbe interface {
	Devices(ctx context.Context, env *runenv.Context) (adb.DeviceList, error)
}

// ReportRenderer writes the readiness report to its configured output.
type ReportRenderer interface {
	Render(rep report.Report) error
}

// Result captures everything a single run produced.
type Result struct {
	// Activation is the environment step's outcome, failed or not.
	Activation venv.Activation
	// Devices is the device census. Empty when the probe failed.
	Devices adb.DeviceList
	// ProbeErr is the device probe's failure, nil on success.
	ProbeErr error
	// Phases is the trail of phases the run passed through, in order.
	Phases []Phase
	// ProbeElapsed is how long the device probe took.
	ProbeElapsed time.Duration
}

// ErrAlreadyRan is returned when Run is called on a Sequencer that has
// already executed its sequence.
var ErrAlreadyRan = errors.New("launch sequence already executed")

// Sequencer drives one readiness sequence. It is single use: build one,
// run it once, read the result.
type Sequencer struct {
	activator EnvironmentActivator
	probe     DeviceProbe
	renderer  ReportRenderer
	logger    logging.Logger
	ran       bool
}

// New assembles a Sequencer from opts, building production implementations
// for any seam left nil.
func New(opts Options) (*Sequencer, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := &Sequencer{logger: opts.Logger}

	s.activator = opts.Activator
	if s.activator == nil {
		base := runenv.New(opts.Root)
		s.activator = venv.New(base, opts.VenvDir, venv.WithLogger(opts.Logger))
	}

	s.probe = opts.Probe
	if s.probe == nil {
		clientOpts := []adb.Option{adb.WithLogger(opts.Logger)}
		if opts.ADBPath != "" {
			clientOpts = append(clientOpts, adb.WithBinary(opts.ADBPath))
		}
		s.probe = adb.NewClient(clientOpts...)
	}

	s.renderer = opts.Renderer
	if s.renderer == nil {
		renderer, err := report.NewRenderer(opts.Out, opts.Report)
		if err != nil {
			return nil, fmt.Errorf("prepare report renderer: %w", err)
		}
		s.renderer = renderer
	}

	return s, nil
}

// Run executes the sequence in its fixed order: activate, probe, render.
// The device probe runs exactly once whatever the activation step decided,
// using the activated context when one exists and the base context
// otherwise. Step failures travel inside the returned Result and the
// rendered report; the returned error is reserved for the report itself
// failing to reach the output.
func (s *Sequencer) Run(ctx context.Context) (Result, error) {
	if s.ran {
		return Result{}, ErrAlreadyRan
	}
	s.ran = true

	var res Result
	s.enter(ctx, &res, PhaseStart)

	act := s.activator.Activate(ctx)
	res.Activation = act
	if act.State == venv.StateActive {
		s.enter(ctx, &res, PhaseEnvActivated)
	} else {
		s.enter(ctx, &res, PhaseEnvActivationFailed)
	}
	s.logger.Info(ctx, "environment step finished",
		logging.Field("state", act.State),
		logging.Field("elapsed", act.Elapsed),
	)

	probeStarted := time.Now()
	devices, probeErr := s.probe.Devices(ctx, act.Env)
	res.Devices = devices
	res.ProbeErr = probeErr
	res.ProbeElapsed = time.Since(probeStarted)
	s.enter(ctx, &res, PhaseDevicesQueried)
	if probeErr != nil {
		s.logger.Warn(ctx, "device probe failed", logging.Field("error", probeErr))
	} else {
		s.logger.Info(ctx, "device probe finished",
			logging.Field("devices", len(devices.Devices)),
			logging.Field("elapsed", res.ProbeElapsed),
		)
	}

	rep := report.Report{
		Environment: act,
		Devices:     devices,
		ProbeErr:    probeErr,
	}
	if err := s.renderer.Render(rep); err != nil {
		return res, fmt.Errorf("launch: %w", err)
	}
	s.enter(ctx, &res, PhaseReportRendered)

	s.enter(ctx, &res, PhaseDone)
	return res, nil
}

func (s *Sequencer) enter(ctx context.Context, res *Result, phase Phase) {
	res.Phases = append(res.Phases, phase)
	s.logger.Debug(ctx, "launch phase", logging.Field("phase", phase))
}
