package checkpoint

import (
	"encoding/json"
	"time"

	"continuum/internal/domain"
)

// IndexEntry is one row of a target's checkpoints/index.json.
type IndexEntry struct {
	ID         string                  `json:"id"`
	CreatedAt  time.Time               `json:"created_at"`
	Trigger    domain.CheckpointTrigger `json:"trigger"`
	SizeBytes  int64                   `json:"size_bytes"`
	Compressed bool                    `json:"compressed"`
}

// Index is the ordered (oldest-first) list of checkpoints retained on one
// target, spec.md §3 "checkpoints/index.json".
type Index struct {
	Entries []IndexEntry `json:"entries"`
}

func decodeIndex(data []byte) (Index, error) {
	if len(data) == 0 {
		return Index{}, nil
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return Index{}, err
	}
	return idx, nil
}

func (idx Index) encode() ([]byte, error) {
	return json.MarshalIndent(idx, "", "  ")
}

// Append adds entry at the tail and returns the new index. It does not
// re-sort: entries stay in append order, so the tail is the most recently
// appended entry.
func (idx Index) Append(entry IndexEntry) Index {
	idx.Entries = append(idx.Entries, entry)
	return idx
}

// Latest returns the most recently appended entry.
func (idx Index) Latest() (IndexEntry, bool) {
	if len(idx.Entries) == 0 {
		return IndexEntry{}, false
	}
	return idx.Entries[len(idx.Entries)-1], true
}

// Prune splits entries into the set to retain (the newest maxRetained,
// never including fewer than 1 when the index is non-empty) and the set
// to drop, which the caller compresses before removing. It never drops
// the latest entry (spec.md §4.7 invariant: rotation never deletes the
// newest or currently-pointed-to checkpoint).
func (idx Index) Prune(maxRetained int) (keep Index, drop []IndexEntry) {
	if maxRetained < 1 {
		maxRetained = 1
	}
	if len(idx.Entries) <= maxRetained {
		return idx, nil
	}
	cut := len(idx.Entries) - maxRetained
	drop = append(drop, idx.Entries[:cut]...)
	keep = Index{Entries: append([]IndexEntry{}, idx.Entries[cut:]...)}
	return keep, drop
}
