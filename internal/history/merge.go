// Package history keeps the bounded, key-stable log of published entries.
package history

import (
	"sort"
	"time"

	"HNDigest/internal/domain"
)

// Keys returns the identity keys present in entries.
func Keys(entries []domain.DigestEntry) map[string]struct{} {
	keys := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		keys[e.Key()] = struct{}{}
	}
	return keys
}

// Merge unions existing and fresh entries by identity key, with fresh entries
// replacing existing ones, then sorts newest first and keeps at most limit
// entries. A limit below one disables truncation. Inputs are not modified.
func Merge(existing, fresh []domain.DigestEntry, limit int) []domain.DigestEntry {
	index := make(map[string]int, len(existing)+len(fresh))
	merged := make([]domain.DigestEntry, 0, len(existing)+len(fresh))

	for _, batch := range [][]domain.DigestEntry{existing, fresh} {
		for _, e := range batch {
			key := e.Key()
			if pos, ok := index[key]; ok {
				merged[pos] = e
				continue
			}
			index[key] = len(merged)
			merged = append(merged, e)
		}
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return Less(merged[b], merged[a])
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// Less orders entries by publication time, then by score. Absent values sort
// first: the zero time and a score of zero.
func Less(a, b domain.DigestEntry) bool {
	ta, tb := publishedAt(a), publishedAt(b)
	if !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return score(a) < score(b)
}

func publishedAt(e domain.DigestEntry) time.Time {
	if e.PublishedAt == nil {
		return time.Time{}
	}
	return *e.PublishedAt
}

func score(e domain.DigestEntry) int {
	if e.Score == nil {
		return 0
	}
	return *e.Score
}
