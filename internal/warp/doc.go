// Package warp deforms a rendered score horizontally so that every notated
// event lands where its performed onset falls on a linear time axis.
//
// A Session owns everything derived from one (scene, alignment) load:
//
//   - the active range of the alignment dataset,
//   - one PositionSample per event in that range (drawing-space and
//     screen-space positions plus the warped target),
//   - the DisplacementFunction built from those samples,
//   - the warp state and the per-element warp flags.
//
// The primary warp (Session.Warp) visits every displaceable primitive of
// the scene once, in a fixed kind order, and shifts it by the displacement
// at its reference position. Rigid primitives get a translation; primitives
// spanning two positions get a translation and a horizontal scale so both
// endpoints land on their own warped coordinate.
//
// The secondary pass (Session.AdjustIndividualNotes) then moves each
// identified note so its notehead sits exactly at its own target, which
// separates chord members that were played at different times.
//
// Sessions are single-use and not safe for concurrent use. Loading a new
// scene means building a new Session.
package warp
