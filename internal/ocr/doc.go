// Package ocr extracts text from a cropped document region by recognizing
// several preprocessed renderings of it and keeping the best result.
//
// # Variants
//
// Render produces one of five variants (see Method): the original image, an
// enhanced grayscale, an adaptive binary rendering, a high-contrast sigmoid
// curve and a denoised morphological opening. In fast mode only the
// adaptive-binary variant runs, on an image downscaled to 700 pixels wide.
//
// # Engine
//
// Recognition is delegated to an Engine, one blocking call per variant.
// Package tesseract provides the Tesseract implementation. Variants the
// engine fails on, or that come back empty, are dropped; only when every
// variant is dropped does extraction fail with ErrAllAttemptsFailed.
//
// # Selection
//
// Each Attempt gets a text quality sub-score (TextQuality) and a composite
// ranking score (Composite):
//
//	0.4*confidence + 0.3*textQuality + 0.2*meanWordConfidence + lengthBonus
//
// Select drops attempts below the confidence threshold, falling back to the
// highest-confidence attempt when none clears it. Correct optionally cleans
// up the winning text with a fixed substitution table, whitespace collapsing
// and ligature folding. Look-alike digits are replaced only between letters.
//
// # Confidence Scale
//
// Engine, word and attempt confidences are all on the engine's 0-100 scale.
package ocr
