// Package imaging provides the image I/O and pixel-level stages of the plate
// locator.
//
// It covers everything around the clustering pass that touches pixels:
// decoding input files, building the binary edge map the outline tracer runs
// on, drawing accepted clusters onto a copy of the input and encoding the
// annotated result.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner:
//   - X increases rightward
//   - Y increases downward
//   - Rectangles are (X, Y, Width, Height); the right and bottom edges
//     X+Width and Y+Height are exclusive
//
// Decoded images and edge maps always have bounds starting at (0, 0).
//
// # Edge Map
//
// EdgeMap chains a Gaussian blur, a 3x3 high-pass sharpening kernel and
// Canny edge detection. The default parameters (DefaultEdgeParams) are the
// ones the clustering thresholds in package plate were tuned with; changing
// them changes which outlines are found.
//
// # Error Handling
//
// Open and ImageCache.Load report every failure to read an input as
// *DecodeError so callers can skip the file with errors.As. Encoding and
// write failures are wrapped with the output path.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and may run concurrently on different images.
package imaging
