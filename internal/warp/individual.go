package warp

import (
	"github.com/scorewarp/scorewarper/internal/util"
	"github.com/scorewarp/scorewarper/pkg/core"
)

// AdjustIndividualNotes moves every identified element of every active event
// so its notehead sits exactly on the event's target, compensating for what
// its containers were already shifted by. It runs only after Warp; in any
// other state it logs and does nothing.
func (s *Session) AdjustIndividualNotes() core.ApplyStats {
	if s.state != core.StatePrimaryWarped {
		s.log.Warn("Individual note adjustment needs a primary warp first; skipping", "state", s.state.String())
		return s.stats
	}

	adjusted, unmatched := 0, 0
	for _, smp := range s.samples {
		for _, id := range s.events[smp.EventIndex].EventIDs {
			e, ok := s.scene.Lookup(id)
			if !ok {
				unmatched++
				s.log.Warn("Note not found for individual adjustment", "id", id, "event", smp.EventIndex)
				continue
			}
			anchor, ok := s.scene.NoteheadAnchor(e)
			if !ok {
				unmatched++
				s.log.Warn("Note has no notehead for individual adjustment", "id", id)
				continue
			}
			dx := smp.TargetDrawingX - anchor - s.scene.AncestorTranslateX(e)
			if !util.IsFinite(dx) {
				unmatched++
				continue
			}
			s.scene.SetTransform(e, s.scene.OriginalTransform(e).AddTranslateX(s.toLocal(e, dx)))
			s.scene.MarkWarped(e)
			adjusted++
		}
	}

	s.stats.NotesAdjusted = adjusted
	s.stats.NotesUnmatched = unmatched
	s.state = core.StateIndividuallyAdjusted
	s.log.Info("Individual notes adjusted", "adjusted", adjusted, "unmatched", unmatched)
	return s.stats
}
