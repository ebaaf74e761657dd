package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/review-digest/internal/domain/reviews"
)

const separator = "|"

type Entry struct {
	ID        string
	UpdatedAt time.Time
}

// Compute hashes the multiset of (id, updatedAt) pairs. Entries are
// canonicalized and sorted first, so input order never affects the result.
func Compute(entries []Entry) string {
	canon := make([]string, 0, len(entries))
	for _, e := range entries {
		canon = append(canon, canonical(e))
	}
	sort.Strings(canon)
	sum := sha256.Sum256([]byte(strings.Join(canon, separator)))
	return hex.EncodeToString(sum[:])
}

func FromReviews(batch []reviews.Review) string {
	entries := make([]Entry, 0, len(batch))
	for _, r := range batch {
		entries = append(entries, Entry{ID: r.ID, UpdatedAt: r.UpdatedAt})
	}
	return Compute(entries)
}

func canonical(e Entry) string {
	return strings.TrimSpace(e.ID) + ":" + e.UpdatedAt.UTC().Format(time.RFC3339Nano)
}
