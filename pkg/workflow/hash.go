package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// RoomEvalHash fingerprints the inputs that room ranking depends on. A
// locked room stays locked exactly as long as this hash is stable; any
// drift invalidates the lock evaluation and forces a re-rank.
func RoomEvalHash(participants int, layout string, requirements []string) string {
	reqs := append([]string(nil), requirements...)
	for i := range reqs {
		reqs[i] = strings.ToLower(strings.TrimSpace(reqs[i]))
	}
	sort.Strings(reqs)
	h := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s",
		participants, strings.ToLower(layout), strings.Join(reqs, ","))))
	return hex.EncodeToString(h[:])
}

// OfferHash fingerprints the commercial terms of an offer so a re-send of
// identical terms can be detected and so acceptance binds to a concrete
// version of the offer.
func OfferHash(roomID, date, window string, participants int, lines []OfferLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%d", roomID, date, window, participants)
	for _, l := range lines {
		fmt.Fprintf(&b, "|%s:%.2f:%d", strings.ToLower(l.Name), l.UnitPrice, l.Quantity)
	}
	h := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(h[:])
}
