package models

import (
	"encoding/json"
	"testing"
)

func TestEntrySetDeduplicates(t *testing.T) {
	s := NewEntrySet(
		WatchlistEntry{MediaType: MediaTypeMovie, ID: 1},
		WatchlistEntry{MediaType: MediaTypeMovie, ID: 1},
		WatchlistEntry{MediaType: MediaTypeTV, ID: 1},
	)

	if s.Len() != 2 {
		t.Fatalf("expected 2 entries after dedup, got %d", s.Len())
	}
	if !s.Has(WatchlistEntry{MediaType: MediaTypeMovie, ID: 1}) {
		t.Fatalf("expected movie:1 to be present")
	}
	if !s.Has(WatchlistEntry{MediaType: MediaTypeTV, ID: 1}) {
		t.Fatalf("expected tv:1 to be present")
	}
}

func TestEntrySetAddRemove(t *testing.T) {
	s := NewEntrySet()
	e := WatchlistEntry{MediaType: MediaTypeMovie, ID: 27205}

	if !s.Add(e) {
		t.Fatalf("first add should change the set")
	}
	if s.Add(e) {
		t.Fatalf("second add should be a no-op")
	}
	if !s.Remove(e) {
		t.Fatalf("remove of present entry should change the set")
	}
	if s.Remove(e) {
		t.Fatalf("remove of absent entry should be a no-op")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty set, got %d entries", s.Len())
	}
}

func TestEntrySetRemoveKeepsIndexConsistent(t *testing.T) {
	s := NewEntrySet(
		WatchlistEntry{MediaType: MediaTypeMovie, ID: 1},
		WatchlistEntry{MediaType: MediaTypeMovie, ID: 2},
		WatchlistEntry{MediaType: MediaTypeMovie, ID: 3},
	)

	s.Remove(WatchlistEntry{MediaType: MediaTypeMovie, ID: 1})

	if !s.Has(WatchlistEntry{MediaType: MediaTypeMovie, ID: 2}) || !s.Has(WatchlistEntry{MediaType: MediaTypeMovie, ID: 3}) {
		t.Fatalf("remaining entries lost after removal")
	}
	if !s.Remove(WatchlistEntry{MediaType: MediaTypeMovie, ID: 3}) {
		t.Fatalf("expected removal of shifted entry to succeed")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestEntrySetUnionPrefersExisting(t *testing.T) {
	a := NewEntrySet(
		WatchlistEntry{MediaType: MediaTypeMovie, ID: 1},
		WatchlistEntry{MediaType: MediaTypeTV, ID: 2},
	)
	b := NewEntrySet(
		WatchlistEntry{MediaType: MediaTypeMovie, ID: 1},
		WatchlistEntry{MediaType: MediaTypeMovie, ID: 3},
	)

	a.Union(b)

	if a.Len() != 3 {
		t.Fatalf("expected union of 3 entries, got %d", a.Len())
	}
	if b.Len() != 2 {
		t.Fatalf("union must not modify the other set, got %d entries", b.Len())
	}

	// Union again must be a no-op.
	a.Union(b)
	if a.Len() != 3 {
		t.Fatalf("repeated union changed the set, got %d entries", a.Len())
	}
}

func TestEntrySetJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", `[]`, 0},
		{"simple", `[{"mediaType":"movie","id":27205}]`, 1},
		{"duplicates dropped", `[{"mediaType":"movie","id":1},{"mediaType":"movie","id":1},{"mediaType":"tv","id":1}]`, 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := NewEntrySet()
			if err := json.Unmarshal([]byte(test.in), s); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if s.Len() != test.want {
				t.Fatalf("expected %d entries, got %d", test.want, s.Len())
			}

			data, err := json.Marshal(s)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}

			back := NewEntrySet()
			if err := json.Unmarshal(data, back); err != nil {
				t.Fatalf("round trip unmarshal failed: %v", err)
			}
			if back.Len() != s.Len() {
				t.Fatalf("round trip changed set size: %d != %d", back.Len(), s.Len())
			}
			for _, e := range s.Entries() {
				if !back.Has(e) {
					t.Fatalf("round trip lost entry %s", e.Key())
				}
			}
		})
	}
}

func TestWatchlistEntryValid(t *testing.T) {
	tests := []struct {
		entry    WatchlistEntry
		expected bool
	}{
		{WatchlistEntry{MediaType: MediaTypeMovie, ID: 1}, true},
		{WatchlistEntry{MediaType: MediaTypeTV, ID: 42}, true},
		{WatchlistEntry{MediaType: "series", ID: 1}, false},
		{WatchlistEntry{MediaType: "", ID: 1}, false},
		{WatchlistEntry{MediaType: MediaTypeMovie, ID: 0}, false},
		{WatchlistEntry{MediaType: MediaTypeMovie, ID: -5}, false},
	}

	for _, test := range tests {
		if got := test.entry.Valid(); got != test.expected {
			t.Errorf("Valid(%+v) = %v, expected %v", test.entry, got, test.expected)
		}
	}
}
