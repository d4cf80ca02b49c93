package training

import (
	"sort"

	"github.com/venomio5/VPFM7/internal/ingest"
	"github.com/venomio5/VPFM7/internal/store"
)

type breakdownAcc struct {
	store.MatchBreakdown
}

type breakdownBuilder struct {
	players map[string]*breakdownAcc
}

func newBreakdownBuilder() *breakdownBuilder {
	return &breakdownBuilder{players: make(map[string]*breakdownAcc)}
}

func (b *breakdownBuilder) get(id string) *breakdownAcc {
	if acc, ok := b.players[id]; ok {
		return acc
	}
	acc := &breakdownAcc{}
	acc.PlayerID = id
	b.players[id] = acc
	return acc
}

func (b *breakdownBuilder) recordShot(shooterID, assisterID string, s *ingest.RawShot) {
	shooter := b.get(shooterID)
	if s.BodyPart == ingest.Head {
		shooter.Headers++
		shooter.HxG += s.XG
		shooter.HPSxG += s.PSxG
	} else {
		shooter.Footers++
		shooter.FxG += s.XG
		shooter.FPSxG += s.PSxG
		if assisterID == "" {
			shooter.NonAssistedFooters++
		}
	}
	if assisterID != "" {
		assister := b.get(assisterID)
		if s.BodyPart == ingest.Head {
			assister.KpHxG += s.XG
		} else {
			assister.KpFxG += s.XG
		}
	}
}

func (b *breakdownBuilder) recordSub(offID, onID string, minute int, status string) {
	out := b.get(offID)
	m := minute
	out.SubOut = &m
	out.OutStatus = status

	in := b.get(onID)
	m2 := minute
	in.SubIn = &m2
	in.InStatus = status
}

// applyStats folds the counting stats onto the accumulated rows and sums the
// match discipline totals.
func (b *breakdownBuilder) applyStats(raw *ingest.RawMatch, idOf func(ingest.PlayerRef, ingest.Side) string, totals *MatchTotals) {
	for _, st := range raw.Stats {
		acc := b.get(idOf(st.Player, st.Side))
		acc.KeyPasses += st.KeyPasses
		acc.FoulsCommitted += st.FoulsCommitted
		acc.FoulsDrawn += st.FoulsDrawn
		acc.YellowCards += st.YellowCards
		acc.RedCards += st.RedCards
		acc.GkPSxG += st.GkPSxG
		acc.GkGA += st.GkGA

		totals.Fouls += st.FoulsCommitted
		totals.YellowCards += st.YellowCards
		totals.RedCards += st.RedCards
	}
}

func (b *breakdownBuilder) rows(minutes map[string]int) []store.MatchBreakdown {
	ids := make([]string, 0, len(b.players))
	for id := range b.players {
		ids = append(ids, id)
	}
	for id := range minutes {
		if _, ok := b.players[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]store.MatchBreakdown, 0, len(ids))
	for _, id := range ids {
		acc := b.get(id)
		acc.MinutesPlayed = minutes[id]
		out = append(out, acc.MatchBreakdown)
	}
	return out
}
