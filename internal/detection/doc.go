// Package detection traces closed outlines in a binary edge map.
//
// An outline is reported as its bounding rectangle plus the ID of the
// outline that immediately encloses it, which is all the clustering pass in
// package plate needs. Point lists are not kept.
//
// # Extractors
//
// Two implementations of Extractor exist:
//
//   - "trace": Tracer, a pure-Go border follower (Suzuki & Abe 1985). It
//     reports outer borders and hole borders, so a one-pixel-wide closed
//     edge yields an outer outline and a hole outline nested inside it.
//   - "gocv": GocvExtractor, backed by OpenCV's findContours in tree
//     retrieval mode. Only compiled with the gocv build tag and an OpenCV
//     installation.
//
// NewExtractor selects one by name. GocvExtractor also implements
// EdgeMapper, so the edge map it traces comes from OpenCV's Canny as well.
//
// # Discovery Order
//
// Outline IDs follow the order in which outlines are discovered. The order is
// stable for a given edge map, and the clustering pass relies on it to break
// ties between outlines that share a left edge.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Rectangles are (X, Y, Width, Height) with exclusive right and bottom
//     edges; a single edge pixel has width and height 1
package detection
