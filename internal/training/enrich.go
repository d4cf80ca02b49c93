package training

import (
	"github.com/venomio5/VPFM7/internal/store"
)

// PDRAS computes both teams' pre-defined rate-adjusted shots for a segment
// from the players_data coefficient snapshot: (sum off - sum opp def) times
// segment minutes.
func PDRAS(seg *store.MatchSegment, players map[string]store.PlayerRating) (teamA, teamB float64) {
	m := float64(seg.MinutesPlayed)
	var offA, defA, offB, defB float64
	for _, id := range seg.TeamAPlayers {
		p := players[id]
		offA += p.OffShCoef
		defA += p.DefShCoef
	}
	for _, id := range seg.TeamBPlayers {
		p := players[id]
		offB += p.OffShCoef
		defB += p.DefShCoef
	}
	return (offA - defB) * m, (offB - defA) * m
}

// EnrichShot fills the rating-derived shot columns from the player snapshot.
// RSQ is filled separately once the shot-quality model exists.
func EnrichShot(s *store.Shot, players map[string]store.PlayerRating) store.ShotEnrichment {
	head := s.ShotType == store.BodyPartHead

	var plsqa float64
	for _, id := range s.OffPlayers {
		p := players[id]
		if head {
			plsqa += p.OffHxGCoef
		} else {
			plsqa += p.OffFxGCoef
		}
	}
	for _, id := range s.DefPlayers {
		p := players[id]
		if head {
			plsqa -= p.DefHxGCoef
		} else {
			plsqa -= p.DefFxGCoef
		}
	}

	shooter := players[s.ShooterID]
	var shooterSQ, shooterA float64
	if head {
		if shooter.Headers > 0 {
			shooterSQ = shooter.HxG / float64(shooter.Headers)
		}
		if shooter.HxG > 0 {
			shooterA = shooter.HPSxG / shooter.HxG
		}
	} else {
		if shooter.Footers > 0 {
			shooterSQ = shooter.FxG / float64(shooter.Footers)
		}
		if shooter.FxG > 0 {
			shooterA = shooter.FPSxG / shooter.FxG
		}
	}

	var assisterSQ float64
	if s.AssisterID != "" {
		assister := players[s.AssisterID]
		if assister.KeyPasses > 0 {
			if head {
				assisterSQ = assister.KpHxG / float64(assister.KeyPasses)
			} else {
				assisterSQ = assister.KpFxG / float64(assister.KeyPasses)
			}
		}
	}

	// Keeper ability; undefined keepers get 0.
	var gkA float64
	if gk, ok := players[s.GkID]; ok && gk.GkPSxG > 0 {
		gkA = 1 - float64(gk.GkGA)/gk.GkPSxG
	}

	return store.ShotEnrichment{
		ShotID:     s.ShotID,
		TotalPLSQA: plsqa,
		ShooterSQ:  shooterSQ,
		AssisterSQ: assisterSQ,
		ShooterA:   shooterA,
		GkA:        gkA,
	}
}
