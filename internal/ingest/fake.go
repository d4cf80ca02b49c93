package ingest

import (
	"context"
	"time"
)

// FakeIngestor serves canned raw matches; used by tests and local runs
// without a scraper attached.
type FakeIngestor struct {
	Matches map[uint][]RawMatch
}

func NewFakeIngestor() *FakeIngestor {
	return &FakeIngestor{Matches: make(map[uint][]RawMatch)}
}

func (f *FakeIngestor) Add(m RawMatch) {
	f.Matches[m.LeagueID] = append(f.Matches[m.LeagueID], m)
}

func (f *FakeIngestor) FetchMatches(_ context.Context, leagueID uint, seen map[string]bool, upto time.Time) ([]RawMatch, error) {
	var out []RawMatch
	for _, m := range f.Matches[leagueID] {
		if seen[m.URL] || m.Kickoff.After(upto) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
