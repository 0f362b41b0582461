// Package session debounces per-frame boundary detections into single-flight
// text extractions.
//
// A camera or video source reports one detection per frame. Controller hashes
// each boundary (position and size rounded to a pixel quantum, see Hash) and
// only starts an extraction once the same boundary has been seen for the
// debounce interval. Results for a boundary that changed while the extraction
// ran are dropped as stale.
package session
