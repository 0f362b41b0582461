// Package imaging provides the pixel-level primitives of the document scanner.
//
// Captures are converted into plain buffers (PixelBuffer, GrayBuffer,
// BinaryMap) with a row-major layout and processed by pure functions:
// grayscale conversion, Gaussian blur, Sobel/Scharr gradients, adaptive and
// Otsu thresholds, Canny edge detection, binary morphology and histogram
// stretching. Helpers for cropping, downscaling, PNG encoding and boundary
// overlays work on standard image.Image values.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. For regions, Min is
// inclusive and Max is exclusive, matching image.Rectangle.
//
// # Ownership
//
// Every primitive reads its input and returns a newly allocated output. No
// function mutates its arguments, so buffers may be shared between goroutines
// as long as nobody writes to them.
//
// # Invalid Input
//
// Buffers with non-positive dimensions or a sample count that does not match
// them are invalid. Primitives return the zero-value buffer for invalid input
// instead of panicking; the few functions with an error return report
// ErrInvalidInput.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless.
package imaging
