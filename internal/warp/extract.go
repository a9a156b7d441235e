package warp

import (
	"fmt"
	"math"

	"github.com/scorewarp/scorewarper/pkg/core"
)

// extract resolves the primary identifier of every active event to its
// drawing-space anchor. Unresolved events keep their slot, tagged missing.
// The scene is not modified.
func (s *Session) extract() error {
	s.samples = make([]core.PositionSample, 0, s.rng.Len())

	prevX, prevID := math.Inf(-1), ""
	resolved := 0
	for i := s.rng.FirstOnsetIndex; i <= s.rng.LastOnsetIndex; i++ {
		ev := s.events[i]
		smp := core.PositionSample{
			EventIndex:   i,
			PrimaryID:    ev.PrimaryID(),
			OnsetSeconds: ev.OnsetSeconds,
		}

		x, reason := s.resolve(smp.PrimaryID)
		if reason != "" {
			smp.Missing = true
			s.samples = append(s.samples, smp)
			s.log.Warn("Alignment event has no position", "id", smp.PrimaryID, "event", i, "reason", reason)
			continue
		}
		if x < prevX {
			return fmt.Errorf("%w: %s at %g follows %s at %g", ErrNonMonotonic, smp.PrimaryID, x, prevID, prevX)
		}
		prevX, prevID = x, smp.PrimaryID

		smp.DrawingX = x
		s.samples = append(s.samples, smp)
		resolved++
	}

	if resolved == 0 {
		return fmt.Errorf("%w: %d active events", ErrNoResolvedSamples, len(s.samples))
	}
	return nil
}

func (s *Session) resolve(id string) (float64, string) {
	e, ok := s.scene.Lookup(id)
	if !ok {
		return 0, "identifier not in scene"
	}
	x, ok := s.scene.EventAnchor(e)
	if !ok {
		return 0, "element has no geometry"
	}
	return x, ""
}

// project fills screen positions and warped targets. Targets place every
// onset on the line through the first and last resolved events; when those
// coincide in time the warp is the identity.
func (s *Session) project() {
	first, last := s.endpoints()
	if first < 0 {
		return
	}
	g := s.scene.Geometry()
	a, b := s.samples[first], s.samples[last]
	span := b.OnsetSeconds - a.OnsetSeconds
	screenA, screenB := g.ToScreen(a.DrawingX), g.ToScreen(b.DrawingX)

	for k := range s.samples {
		smp := &s.samples[k]
		if !smp.Missing {
			smp.ScreenX = g.ToScreen(smp.DrawingX)
		}

		if first == last || span == 0 {
			if smp.Missing {
				smp.TargetDrawingX = a.DrawingX
			} else {
				smp.TargetDrawingX = smp.DrawingX
			}
			smp.TargetScreenX = g.ToScreen(smp.TargetDrawingX)
			continue
		}

		frac := (smp.OnsetSeconds - a.OnsetSeconds) / span
		smp.TargetDrawingX = a.DrawingX + frac*(b.DrawingX-a.DrawingX)
		smp.TargetScreenX = screenA + frac*(screenB-screenA)
	}
}
