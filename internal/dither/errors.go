package dither

import "errors"

// Configuration errors. Dither returns them wrapped with detail; match with
// errors.Is. A call that fails validation leaves the buffer untouched.
var (
	ErrInvalidAlgorithm    = errors.New("dither: invalid algorithm")
	ErrInvalidPatternSize  = errors.New("dither: pattern size must be >= 1")
	ErrBufferShapeMismatch = errors.New("dither: buffer length does not match width and height")
	ErrInvalidIntensity    = errors.New("dither: intensity must be finite and >= 0")
	ErrInvalidColorMode    = errors.New("dither: invalid color mode")
)

// IsConfigError reports whether err stems from invalid parameters or an
// inconsistent buffer rather than an internal failure.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidAlgorithm) ||
		errors.Is(err, ErrInvalidPatternSize) ||
		errors.Is(err, ErrBufferShapeMismatch) ||
		errors.Is(err, ErrInvalidIntensity) ||
		errors.Is(err, ErrInvalidColorMode)
}
