package statpath

import "errors"

// ErrMalformedPath indicates a path string that cannot be parsed.
var ErrMalformedPath = errors.New("statpath: malformed path")
