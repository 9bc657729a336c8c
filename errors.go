package wireenc

import "errors"

// ErrOutOfMemory is the error Encode returns when growing the output
// buffer failed (the arena rejected an allocation).
var ErrOutOfMemory = errors.New("wireenc: allocation failed")

// ErrMaxDepth is the error Encode returns when encoding would recurse
// past the configured maximum depth.
var ErrMaxDepth = errors.New("wireenc: maximum recursion depth exceeded")

// encodeAbort is the payload of the internal panic used to unwind the
// recursive encoder back to the top-level Encode call on error. This
// mirrors the non-local escape the reference C implementation achieves
// with setjmp/longjmp — deep recursive encoders need to bail out from
// arbitrary depth without threading an error return through every
// primitive write. It is recovered in Encode and never observed outside
// this package.
type encodeAbort struct{ err error }
