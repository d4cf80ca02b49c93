// Package contextmodel trains the three boosted-tree context models: RAS
// (shot rate per minute, Poisson with a PDRAS log offset), RSQ (shot xG
// regression) and PSxG (goal probability). The feature-row builders are
// exported because the simulator must construct prediction rows with exactly
// the training column names.
package contextmodel

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/venomio5/VPFM7/internal/boost"
	"github.com/venomio5/VPFM7/internal/frame"
	"github.com/venomio5/VPFM7/internal/matchstate"
	"github.com/venomio5/VPFM7/internal/store"
)

// pdrasFloor keeps the Poisson log offset finite for non-positive exposures.
const pdrasFloor = 1e-6

// FixtureContext is the per-match context shared by the RAS and PSxG rows.
type FixtureContext struct {
	HomeElevationDif float64
	AwayElevationDif float64
	AwayTravel       float64
	HomeRestDays     float64
	AwayRestDays     float64
	TemperatureC     float64
	IsRaining        bool
	KickoffHour      int
}

// FixtureFromMatch lifts the stored context columns, treating missing ones
// as zero.
func FixtureFromMatch(m *store.Match) FixtureContext {
	fx := FixtureContext{
		TemperatureC: deref(m.TemperatureC),
		IsRaining:    m.IsRaining,
		KickoffHour:  m.Date.Hour(),
	}
	fx.HomeElevationDif = deref(m.HomeElevationDif)
	fx.AwayElevationDif = deref(m.AwayElevationDif)
	fx.AwayTravel = deref(m.AwayTravel)
	if m.HomeRestDays != nil {
		fx.HomeRestDays = float64(*m.HomeRestDays)
	}
	if m.AwayRestDays != nil {
		fx.AwayRestDays = float64(*m.AwayRestDays)
	}
	return fx
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func levelLabel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ShotRateRow builds one RAS feature row from a side's perspective. state
// and playerDif must already be encoded from that side's point of view; the
// away perspective swaps travel and elevation columns.
func ShotRateRow(fx FixtureContext, isHome bool, state float64, segment int, playerDif float64) *frame.Row {
	r := frame.NewRow()
	r.SetBool("team_is_home", isHome)
	r.SetBool("is_raining", fx.IsRaining)
	if isHome {
		r.Set("team_elevation_dif", fx.HomeElevationDif)
		r.Set("opp_elevation_dif", fx.AwayElevationDif)
		r.Set("team_travel", 0)
		r.Set("opp_travel", fx.AwayTravel)
		r.Set("team_rest_days", fx.HomeRestDays)
		r.Set("opp_rest_days", fx.AwayRestDays)
	} else {
		r.Set("team_elevation_dif", fx.AwayElevationDif)
		r.Set("opp_elevation_dif", fx.HomeElevationDif)
		r.Set("team_travel", fx.AwayTravel)
		r.Set("opp_travel", 0)
		r.Set("team_rest_days", fx.AwayRestDays)
		r.Set("opp_rest_days", fx.HomeRestDays)
	}
	r.Set("temperature_c", fx.TemperatureC)
	r.SetOneHot("match_state", levelLabel(state))
	r.SetOneHot("match_segment", strconv.Itoa(segment))
	r.SetOneHot("player_dif", levelLabel(playerDif))
	r.SetOneHot("match_time", matchstate.TimeBucket(fx.KickoffHour))
	return r
}

// ShotQualityRow builds one RSQ feature row. hasAssister=false encodes the
// assister-dependent categorical levels as their nan dummies.
func ShotQualityRow(totalPLSQA, shooterSQ, assisterSQ float64, state, playerDif float64, hasAssister bool) *frame.Row {
	r := frame.NewRow()
	r.Set("total_plsqa", totalPLSQA)
	r.Set("shooter_sq", shooterSQ)
	if hasAssister {
		r.Set("assister_sq", assisterSQ)
	} else {
		r.Set("assister_sq", 0)
	}
	r.SetOneHot("match_state", matchstate.StateLabel(state))
	r.SetOneHot("player_dif", matchstate.DifLabel(playerDif))
	return r
}

// GoalProbRow builds one PSxG feature row from the shooting side's
// perspective.
func GoalProbRow(rsq, shooterA, gkA float64, fx FixtureContext, isHome bool) *frame.Row {
	r := frame.NewRow()
	r.Set("rsq", rsq)
	r.Set("shooter_a", shooterA)
	r.Set("gk_a", gkA)
	if isHome {
		r.Set("team_elevation_dif", fx.HomeElevationDif)
		r.Set("team_travel", 0)
		r.Set("team_rest_days", fx.HomeRestDays)
	} else {
		r.Set("team_elevation_dif", fx.AwayElevationDif)
		r.Set("team_travel", fx.AwayTravel)
		r.Set("team_rest_days", fx.AwayRestDays)
	}
	r.Set("temperature_c", fx.TemperatureC)
	r.SetBool("team_is_home", isHome)
	r.SetBool("is_raining", fx.IsRaining)
	r.SetOneHot("match_time", matchstate.TimeBucket(fx.KickoffHour))
	return r
}

type Trainer struct {
	Seed int64
	log  *logrus.Entry
}

func NewTrainer(seed int64, log *logrus.Logger) *Trainer {
	return &Trainer{
		Seed: seed,
		log:  log.WithField("component", "contextmodel"),
	}
}

// TrainRAS fits the shot-rate booster over both perspectives of every
// segment. The away perspective flips the state and player-advantage signs
// and swaps travel and elevation.
func (t *Trainer) TrainRAS(rows []store.SegmentContext) (*boost.Model, error) {
	b := frame.NewBuilder()
	var y, offset []float64

	for i := range rows {
		seg := &rows[i].Segment
		if seg.MinutesPlayed <= 0 {
			continue
		}
		fx := FixtureFromMatch(&rows[i].Match)

		// Targets are segment shot counts; the PDRAS offset already carries
		// the segment length, so the fitted margin is the pure context effect.
		homeShots := float64(seg.TeamAHeaders + seg.TeamAFooters)
		b.Add(ShotRateRow(fx, true, seg.MatchState, seg.MatchSegment, seg.PlayerDif))
		y = append(y, homeShots)
		offset = append(offset, math.Log(math.Max(deref(seg.TeamAPDRAS), pdrasFloor)))

		awayShots := float64(seg.TeamBHeaders + seg.TeamBFooters)
		b.Add(ShotRateRow(fx, false, -seg.MatchState, seg.MatchSegment, -seg.PlayerDif))
		y = append(y, awayShots)
		offset = append(offset, math.Log(math.Max(deref(seg.TeamBPDRAS), pdrasFloor)))
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("train ras: %w", boost.ErrNoRows)
	}

	t.log.WithField("rows", b.Len()).Info("Training shot-rate model")
	return boost.Train(b.Build(), y, offset, boost.Params{
		Rounds:         300,
		MaxDepth:       6,
		Eta:            0.05,
		Subsample:      0.8,
		Colsample:      0.8,
		MinChildWeight: 5,
		Objective:      boost.ObjPoisson,
		Seed:           t.Seed,
	})
}

// TrainRSQ fits the shot-quality regression over enriched shots. Shots still
// missing their rating-derived fields are skipped.
func (t *Trainer) TrainRSQ(shots []store.Shot) (*boost.Model, error) {
	b := frame.NewBuilder()
	var y []float64

	for i := range shots {
		s := &shots[i]
		if s.TotalPLSQA == nil || s.ShooterSQ == nil {
			continue
		}
		hasAssister := s.AssisterID != ""
		b.Add(ShotQualityRow(*s.TotalPLSQA, *s.ShooterSQ, deref(s.AssisterSQ), s.MatchState, s.PlayerDif, hasAssister))
		y = append(y, s.XG)
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("train rsq: %w", boost.ErrNoRows)
	}

	t.log.WithField("rows", b.Len()).Info("Training shot-quality model")
	return boost.Train(b.Build(), y, nil, boost.Params{
		Rounds:         400,
		MaxDepth:       6,
		Eta:            0.05,
		Subsample:      0.8,
		Colsample:      0.8,
		MinChildWeight: 2,
		Objective:      boost.ObjSquared,
		Seed:           t.Seed,
	})
}

// TrainPSxG fits the goal-probability booster. matches maps match_id to its
// info row for the fixture context.
func (t *Trainer) TrainPSxG(shots []store.Shot, matches map[uint]store.Match) (*boost.Model, error) {
	b := frame.NewBuilder()
	var y []float64

	for i := range shots {
		s := &shots[i]
		if s.RSQ == nil || s.ShooterA == nil || s.GkA == nil {
			continue
		}
		m, ok := matches[s.MatchID]
		if !ok {
			continue
		}
		fx := FixtureFromMatch(&m)
		isHome := s.TeamID == m.HomeTeamID
		b.Add(GoalProbRow(*s.RSQ, *s.ShooterA, *s.GkA, fx, isHome))
		y = append(y, float64(s.Outcome))
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("train psxg: %w", boost.ErrNoRows)
	}

	t.log.WithField("rows", b.Len()).Info("Training goal-probability model")
	return boost.Train(b.Build(), y, nil, boost.Params{
		Rounds:         300,
		MaxDepth:       5,
		Eta:            0.05,
		Subsample:      0.9,
		Colsample:      0.9,
		MinChildWeight: 2,
		Objective:      boost.ObjLogistic,
		Seed:           t.Seed,
	})
}

// Models bundles the three trained boosters handed to the simulator.
type Models struct {
	RAS  *boost.Model
	RSQ  *boost.Model
	PSxG *boost.Model
}
