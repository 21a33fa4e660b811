package bundles

import "errors"

// ErrInvalidFilter is returned when the filter string holds a token outside
// the projectable vocabulary. No store access is attempted.
var ErrInvalidFilter = errors.New("bundles: invalid filter")

// ErrUpstreamUnavailable is returned when the external source produced no
// usable content at all. The store is left untouched; the caller decides
// whether to retry.
var ErrUpstreamUnavailable = errors.New("bundles: upstream unavailable")
