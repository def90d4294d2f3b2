package ingest

import "errors"

// ErrMalformedSegment marks structurally invalid ingress: an unknown
// content type, an empty payload, or a batch without a segments array.
var ErrMalformedSegment = errors.New("malformed segment")
