// Package plate groups traced outlines into rows of license-plate characters.
//
// The input is the flat list of outlines produced by an outline extractor:
// every outline carries its bounding rectangle and the ID of its immediate
// enclosing outline. ClusterCharacters runs the whole pass for one image:
//
//  1. Admission: outlines that are too small or have an implausible
//     width/height ratio are dropped (Config.Admit).
//  2. Ordering: the survivors are sorted left to right (SortLeftToRight).
//  3. Grouping: each candidate is compared against the anchor rectangle of
//     every open group. A group's anchor is the rectangle of the member that
//     was appended last, not an average of its members.
//  4. Acceptance: groups with fewer than Config.MinCharNum members are
//     discarded. Surviving members get a display rectangle redrawn at the
//     canonical character width (Normalize).
//
// # Nesting
//
// Edge maps trace both sides of a stroke, so a glyph usually shows up as an
// outer outline and one or more inner outlines with almost the same box.
// When a child is admitted to a group its parent is removed from that group,
// and an outline is never appended to a group that already holds one of its
// children.
//
// # Coordinate System
//
// Rectangles use integer pixel units with the origin at the top-left corner.
// (X, Y) is the top-left corner; Width and Height are positive for every
// admitted candidate.
//
// # Thread Safety
//
// ClusterCharacters keeps all of its state on the stack of one call and may
// be called concurrently for different images.
package plate
