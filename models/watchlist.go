package models

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	// MediaTypeMovie marks a watchlist entry that refers to a movie.
	MediaTypeMovie = "movie"
	// MediaTypeTV marks a watchlist entry that refers to a TV show.
	MediaTypeTV = "tv"
)

// WatchlistEntry identifies a single piece of media on a watchlist.
// Identity is the (mediaType, id) pair; there are no other fields.
type WatchlistEntry struct {
	MediaType string `json:"mediaType"`
	ID        int    `json:"id"`
}

// Key returns a stable identifier for the entry combining media type and ID.
func (e WatchlistEntry) Key() string {
	return e.MediaType + ":" + strconv.Itoa(e.ID)
}

// Valid reports whether the entry carries a known media type and a usable id.
func (e WatchlistEntry) Valid() bool {
	if e.MediaType != MediaTypeMovie && e.MediaType != MediaTypeTV {
		return false
	}
	return e.ID > 0
}

// EntrySet is a set of watchlist entries keyed by (mediaType, id). Insertion
// order is preserved for stable serialization, but membership and equality are
// strictly set-based. Construct with NewEntrySet.
type EntrySet struct {
	entries []WatchlistEntry
	index   map[string]int
}

// NewEntrySet builds a set from the given entries, dropping duplicates.
func NewEntrySet(entries ...WatchlistEntry) *EntrySet {
	s := &EntrySet{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Has reports membership by (mediaType, id) identity.
func (s *EntrySet) Has(e WatchlistEntry) bool {
	_, ok := s.index[e.Key()]
	return ok
}

// Add inserts the entry and reports whether the set changed.
func (s *EntrySet) Add(e WatchlistEntry) bool {
	key := e.Key()
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, e)
	return true
}

// Remove deletes the entry and reports whether the set changed.
func (s *EntrySet) Remove(e WatchlistEntry) bool {
	key := e.Key()
	pos, ok := s.index[key]
	if !ok {
		return false
	}
	delete(s.index, key)
	s.entries = append(s.entries[:pos], s.entries[pos+1:]...)
	for i := pos; i < len(s.entries); i++ {
		s.index[s.entries[i].Key()] = i
	}
	return true
}

// Union adds every entry of other that is not already present. Existing
// entries win on conflict, which is a no-op since identity is the full entry.
func (s *EntrySet) Union(other *EntrySet) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		s.Add(e)
	}
}

// Clear empties the set.
func (s *EntrySet) Clear() {
	s.entries = nil
	s.index = make(map[string]int)
}

// Len returns the number of entries.
func (s *EntrySet) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in insertion order.
func (s *EntrySet) Entries() []WatchlistEntry {
	out := make([]WatchlistEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// MarshalJSON encodes the set as a JSON array of {mediaType, id} objects,
// the wire and storage format for watchlist items.
func (s *EntrySet) MarshalJSON() ([]byte, error) {
	if s == nil || len(s.entries) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s.entries)
}

// UnmarshalJSON decodes a JSON array of entries, discarding duplicates so a
// round trip always reproduces the exact set.
func (s *EntrySet) UnmarshalJSON(data []byte) error {
	var entries []WatchlistEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.entries = nil
	s.index = make(map[string]int, len(entries))
	for _, e := range entries {
		s.Add(e)
	}
	return nil
}

// Watchlist is a user's single de-duplicated collection of media entries.
// Its ID is stable for its lifetime and doubles as the import token other
// users pass to merge this list into their own.
type Watchlist struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Items     *EntrySet `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
