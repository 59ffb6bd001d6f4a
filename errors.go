package chordnode

import "errors"

// Sentinel errors shared across the HTTP shim, UDP handler, and event
// loop: plain errors.New values rather than a typed error hierarchy, but
// named so callers can branch with errors.Is instead of string matching.
var (
	ErrForbidden      = errors.New("chordnode: path forbidden")
	ErrBadRequest     = errors.New("chordnode: bad request")
	ErrNotFound       = errors.New("chordnode: not found")
	ErrStoreFull      = errors.New("chordnode: store capacity exceeded")
	ErrNotImplemented = errors.New("chordnode: method not implemented")
)
