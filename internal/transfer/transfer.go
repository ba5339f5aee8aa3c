// Package transfer implements the selection/clipboard bookkeeping
// described in §4.6: a reference to the data-source resource backing
// the transfer plus the ordered list of MIME types it offers.
package transfer

import "github.com/noiawl/frontend/internal/cache"

// Transfer is a clipboard offer in progress. At most one Transfer is
// the current selection at any time (tracked by the facade, not here).
type Transfer struct {
	Source cache.Resource
	Mimes  []string
}

// New creates a Transfer backed by source, with no MIME types yet.
func New(source cache.Resource) *Transfer {
	return &Transfer{Source: source}
}

// AddMime appends a MIME type offered by the source, preserving the
// order the client advertised them in.
func (t *Transfer) AddMime(mime string) {
	t.Mimes = append(t.Mimes, mime)
}
