package syncer

import (
	"strconv"
	"strings"
)

// parseCursor extracts the numeric prefix of a pagination cursor. Cursors
// look like "<int>:<opaque>"; a cursor without a colon is parsed whole.
// Returns false for cursors with no usable numeric prefix.
func parseCursor(offset string) (int64, bool) {
	head, _, _ := strings.Cut(offset, ":")
	v, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
