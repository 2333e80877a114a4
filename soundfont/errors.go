package soundfont

import "errors"

// Sentinel errors returned by Load. Wrapped with context via fmt.Errorf's
// %w verb, so callers should match them with errors.Is.
var (
	ErrBadMagic            = errors.New("soundfont: not a RIFF/sfbk file")
	ErrUnsupportedVersion  = errors.New("soundfont: file version later than 2.04 is not supported")
	ErrMisalignedChunk     = errors.New("soundfont: chunk size is not a multiple of its record size")
	ErrMissingChunk        = errors.New("soundfont: required pdta sub-chunk is missing")
	ErrTruncated           = errors.New("soundfont: file ended before the declared chunk size")
)
