package warp

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	"github.com/scorewarp/scorewarper/internal/alignment"
	"github.com/scorewarp/scorewarper/internal/scene"
	"github.com/scorewarp/scorewarper/internal/util"
	"github.com/scorewarp/scorewarper/pkg/core"
)

// DefaultStemMatchThreshold is how far, in drawing units, a beam segment end
// may be from a stem and still be attached to it. It is a heuristic; segments
// with no stem in reach fall back to the first or last stem of the beam.
const DefaultStemMatchThreshold = 12.0

// Options tune a Session.
type Options struct {
	// SyntheticPattern marks trailing padding identifiers. Nil excludes none.
	SyntheticPattern *regexp.Regexp

	// StemMatchThreshold is the beam stem search window. Zero means the default.
	StemMatchThreshold float64

	// BootstrapShift moves the page margin left by half a notehead on load.
	BootstrapShift bool

	Logger *slog.Logger
}

// DefaultOptions returns the options the CLI starts from.
func DefaultOptions() Options {
	return Options{
		SyntheticPattern:   regexp.MustCompile(alignment.DefaultSyntheticPattern),
		StemMatchThreshold: DefaultStemMatchThreshold,
		BootstrapShift:     true,
	}
}

// Session is the context of one scene load: the scene, its alignment dataset
// and everything derived from them.
type Session struct {
	scene   *scene.Scene
	events  []core.AlignmentEvent
	opts    Options
	log     *slog.Logger
	metrics *counters

	rng     core.ActiveRange
	samples []core.PositionSample
	fn      DisplacementFunction

	state core.WarpState
	stats core.ApplyStats
}

// NewSession derives positions and the displacement function for sc. Fatal
// conditions (no active range, no resolvable event, decreasing positions) are
// reported before the scene is touched; the only mutation NewSession performs
// is the optional bootstrap shift, skipped when the scene already carries it.
// Elements an earlier session warped stay warped.
func NewSession(sc *scene.Scene, events []core.AlignmentEvent, opts Options) (*Session, error) {
	if opts.StemMatchThreshold <= 0 {
		opts.StemMatchThreshold = DefaultStemMatchThreshold
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	rng, err := alignment.ComputeActiveRange(events, opts.SyntheticPattern)
	if err != nil {
		return nil, err
	}

	metrics, err := newCounters()
	if err != nil {
		return nil, fmt.Errorf("failed to create warp metrics: %w", err)
	}

	s := &Session{
		scene:   sc,
		events:  events,
		opts:    opts,
		log:     log,
		metrics: metrics,
		rng:     rng,
	}
	if err := s.extract(); err != nil {
		return nil, err
	}

	if opts.BootstrapShift && !sc.Bootstrapped() {
		if err := s.Bootstrap(); err != nil {
			return nil, err
		}
	} else {
		s.project()
	}

	xs, targets := s.resolvedPairs()
	s.fn = BuildDisplacement(xs, targets, sc.Geometry().DrawableWidth())

	log.Info("Warp session ready",
		"events", len(events),
		"first", rng.FirstOnsetIndex,
		"last", rng.LastOnsetIndex,
		"resolved", len(xs),
		"missing", len(s.samples)-len(xs),
		"width", s.fn.Width())
	return s, nil
}

// Bootstrap shifts the page margin left by half the median notehead width,
// so screen positions point at notehead centres instead of their left edges.
// It may run once per scene load.
func (s *Session) Bootstrap() error {
	if s.scene.Bootstrapped() {
		return ErrAlreadyBootstrapped
	}
	shift := 0.0
	if widths := s.scene.NoteheadWidths(); len(widths) > 0 {
		shift = -util.Median(widths) / 2
	}
	s.scene.ShiftMargin(shift)
	s.scene.MarkBootstrapped()
	s.log.Debug("Bootstrapped page margin", "shift", shift, "margin", s.scene.MarginOffset())

	s.project()
	return nil
}

// resolvedPairs returns drawing positions and targets of resolved samples.
func (s *Session) resolvedPairs() (xs, targets []float64) {
	for _, smp := range s.samples {
		if smp.Missing {
			continue
		}
		xs = append(xs, smp.DrawingX)
		targets = append(targets, smp.TargetDrawingX)
	}
	return xs, targets
}

// endpoints returns the sample indices of the first and last resolved events.
func (s *Session) endpoints() (first, last int) {
	first, last = -1, -1
	for k, smp := range s.samples {
		if smp.Missing {
			continue
		}
		if first < 0 {
			first = k
		}
		last = k
	}
	return first, last
}

// Scene returns the scene this session mutates.
func (s *Session) Scene() *scene.Scene {
	return s.scene
}

// State returns the current warp state.
func (s *Session) State() core.WarpState {
	return s.state
}

// Bootstrapped reports whether the margin bootstrap shift has been applied.
func (s *Session) Bootstrapped() bool {
	return s.scene.Bootstrapped()
}

// Range returns the active range of the alignment dataset.
func (s *Session) Range() core.ActiveRange {
	return s.rng
}

// Samples returns a copy of the position samples, one per active event.
func (s *Session) Samples() []core.PositionSample {
	return slices.Clone(s.samples)
}

// Displacement returns a copy of the displacement function.
func (s *Session) Displacement() DisplacementFunction {
	return slices.Clone(s.fn)
}

// Stats returns the counters of the passes run so far.
func (s *Session) Stats() core.ApplyStats {
	return s.stats
}

// MissingEvents lists the primary identifiers that did not resolve.
func (s *Session) MissingEvents() []string {
	var ids []string
	for _, smp := range s.samples {
		if smp.Missing {
			ids = append(ids, smp.PrimaryID)
		}
	}
	return ids
}

// Derived bundles the read-only outputs overlay collaborators consume.
func (s *Session) Derived() core.Derived {
	d := core.Derived{
		Geometry:      s.scene.Geometry(),
		Range:         s.rng,
		Samples:       s.Samples(),
		Displacement:  s.Displacement(),
		State:         s.state.String(),
		MissingEvents: s.MissingEvents(),
	}
	if first, last := s.endpoints(); first >= 0 {
		d.FirstOnset = s.samples[first].OnsetSeconds
		d.LastOnset = s.samples[last].OnsetSeconds
		d.FirstScreenX = s.samples[first].ScreenX
		d.LastScreenX = s.samples[last].ScreenX
	}
	return d
}

// Run records the session as a persisted warp run.
func (s *Session) Run() core.WarpRun {
	resolved, _ := s.resolvedPairs()
	return core.WarpRun{
		Range:        s.rng,
		Resolved:     len(resolved),
		Missing:      len(s.samples) - len(resolved),
		State:        s.state,
		Stats:        s.stats,
		Samples:      s.Samples(),
		Displacement: s.Displacement(),
	}
}
