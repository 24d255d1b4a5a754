package source

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// contentID derives a stable identifier from parts. Inbox messages carry no
// ID of their own, so the same message must hash to the same ID on every
// scan.
func contentID(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:12])
}
