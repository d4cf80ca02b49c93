package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/venomio5/VPFM7/internal/contextmodel"
	"github.com/venomio5/VPFM7/internal/frame"
	"github.com/venomio5/VPFM7/internal/ingest"
	"github.com/venomio5/VPFM7/internal/prematch"
	"github.com/venomio5/VPFM7/internal/ratings"
	"github.com/venomio5/VPFM7/internal/store"
)

// Pipeline runs the full TrainAndExtract pass: ingest finished matches,
// rebuild the derived player and referee tables, backfill PDRAS, enrich
// shots and train the three context models.
type Pipeline struct {
	store     store.Store
	ingestor  ingest.MatchIngestor
	prematch  *prematch.Builder
	estimator *ratings.Estimator
	trainer   *contextmodel.Trainer
	log       *logrus.Entry
}

func NewPipeline(
	st store.Store,
	ingestor ingest.MatchIngestor,
	pm *prematch.Builder,
	trainer *contextmodel.Trainer,
	log *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		store:     st,
		ingestor:  ingestor,
		prematch:  pm,
		estimator: ratings.NewEstimator(),
		trainer:   trainer,
		log:       log.WithField("component", "training"),
	}
}

// TrainAndExtract is the public training operation. It is resumable per
// league: a league whose ingestion or ridge fit fails is logged and skipped
// without aborting the rest.
func (p *Pipeline) TrainAndExtract(ctx context.Context, upto time.Time) (*contextmodel.Models, error) {
	if err := p.ingestLeagues(ctx, upto); err != nil {
		return nil, err
	}

	segCtxs, err := p.store.SegmentContexts(ctx, upto)
	if err != nil {
		return nil, fmt.Errorf("load segments: %w", err)
	}
	coeffs, err := p.fitRidgePerLeague(segCtxs)
	if err != nil {
		return nil, err
	}

	players, err := p.rebuildDerived(ctx, segCtxs, coeffs, upto)
	if err != nil {
		return nil, err
	}

	if err := p.backfillPDRAS(ctx, players, segCtxs); err != nil {
		return nil, err
	}

	shots, err := p.enrichShots(ctx, players, upto)
	if err != nil {
		return nil, err
	}

	return p.trainModels(ctx, segCtxs, shots, upto)
}

func (p *Pipeline) ingestLeagues(ctx context.Context, upto time.Time) error {
	leagues, err := p.store.ActiveLeagues(ctx)
	if err != nil {
		return fmt.Errorf("load leagues: %w", err)
	}
	for _, league := range leagues {
		if err := p.ingestLeague(ctx, league, upto); err != nil {
			p.log.WithError(err).WithField("league", league.LeagueName).
				Error("League ingestion failed, skipping")
			continue
		}
		if err := p.store.TouchLeague(ctx, league.LeagueID, upto); err != nil {
			return fmt.Errorf("touch league %d: %w", league.LeagueID, err)
		}
	}
	return nil
}

func (p *Pipeline) ingestLeague(ctx context.Context, league store.League, upto time.Time) error {
	seen, err := p.store.MatchURLsSeen(ctx, league.LeagueID)
	if err != nil {
		return err
	}
	raws, err := p.ingestor.FetchMatches(ctx, league.LeagueID, seen, upto)
	if err != nil {
		return err
	}
	for i := range raws {
		if err := p.persistRawMatch(ctx, &raws[i]); err != nil {
			return fmt.Errorf("persist match %q: %w", raws[i].URL, err)
		}
	}
	if len(raws) > 0 {
		p.log.WithFields(logrus.Fields{
			"league":  league.LeagueName,
			"matches": len(raws),
		}).Info("Ingested new matches")
	}
	return nil
}

func (p *Pipeline) persistRawMatch(ctx context.Context, raw *ingest.RawMatch) error {
	home, err := p.resolveTeam(ctx, raw.LeagueID, raw.HomeTeam)
	if err != nil {
		return err
	}
	away, err := p.resolveTeam(ctx, raw.LeagueID, raw.AwayTeam)
	if err != nil {
		return err
	}

	data := BuildMatchData(raw)
	match := &store.Match{
		HomeTeamID:  home.TeamID,
		AwayTeamID:  away.TeamID,
		Date:        raw.Kickoff,
		LeagueID:    raw.LeagueID,
		RefereeName: raw.Referee,
		URL:         raw.URL,
		TotalFouls:  data.Totals.Fouls,
		YellowCards: data.Totals.YellowCards,
		RedCards:    data.Totals.RedCards,
	}

	if p.prematch != nil {
		fx, err := p.prematch.Build(ctx, home, away, raw.Kickoff)
		if err != nil {
			p.log.WithError(err).WithField("url", raw.URL).
				Warn("Fixture context unavailable, storing match without it")
		} else {
			match.HomeElevationDif = &fx.HomeElevationDif
			match.AwayElevationDif = &fx.AwayElevationDif
			match.AwayTravel = &fx.AwayTravelKm
			match.HomeRestDays = &fx.HomeRestDays
			match.AwayRestDays = &fx.AwayRestDays
			match.TemperatureC = &fx.TemperatureC
			match.IsRaining = fx.IsRaining
		}
	}

	if err := p.store.InsertMatch(ctx, match); err != nil {
		return err
	}
	for i := range data.Segments {
		data.Segments[i].MatchID = match.MatchID
	}
	for i := range data.Breakdowns {
		data.Breakdowns[i].MatchID = match.MatchID
	}
	for i := range data.Shots {
		data.Shots[i].MatchID = match.MatchID
		if data.ShotSides[i] == ingest.Away {
			data.Shots[i].TeamID = away.TeamID
		} else {
			data.Shots[i].TeamID = home.TeamID
		}
	}

	if err := p.store.InsertSegments(ctx, data.Segments); err != nil {
		return err
	}
	if err := p.store.InsertBreakdowns(ctx, data.Breakdowns); err != nil {
		return err
	}
	return p.store.InsertShots(ctx, data.Shots)
}

func (p *Pipeline) resolveTeam(ctx context.Context, leagueID uint, name string) (*store.Team, error) {
	teams, err := p.store.TeamsByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		if teams[i].TeamName == name {
			return &teams[i], nil
		}
	}
	t := &store.Team{TeamName: name, LeagueID: leagueID}
	if err := p.store.UpsertTeam(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// fitRidgePerLeague fits one estimator per league; leagues with an empty
// design matrix are skipped.
func (p *Pipeline) fitRidgePerLeague(segCtxs []store.SegmentContext) (map[string]ratings.PlayerCoeffs, error) {
	byLeague := make(map[uint][]store.MatchSegment)
	for i := range segCtxs {
		l := segCtxs[i].Match.LeagueID
		byLeague[l] = append(byLeague[l], segCtxs[i].Segment)
	}

	merged := make(map[string]ratings.PlayerCoeffs)
	for leagueID, segs := range byLeague {
		obs := SegmentObservations(segs)
		coeffs, err := p.estimator.FitLeague(obs)
		if err != nil {
			if errors.Is(err, ratings.ErrEmptyDesignMatrix) {
				p.log.WithField("league_id", leagueID).Warn("Empty design matrix, skipping league")
				continue
			}
			return nil, fmt.Errorf("ridge fit for league %d: %w", leagueID, err)
		}
		for id, c := range coeffs {
			merged[id] = c
		}
	}
	return merged, nil
}

func (p *Pipeline) rebuildDerived(
	ctx context.Context,
	segCtxs []store.SegmentContext,
	coeffs map[string]ratings.PlayerCoeffs,
	upto time.Time,
) (map[string]store.PlayerRating, error) {
	breakdowns, err := p.store.BreakdownsUpTo(ctx, upto)
	if err != nil {
		return nil, fmt.Errorf("load breakdowns: %w", err)
	}
	matches, err := p.store.MatchesUpTo(ctx, upto)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}

	rows := BuildPlayerRatings(breakdowns, segCtxs, coeffs)
	if err := p.store.ReplacePlayerRatings(ctx, rows); err != nil {
		return nil, fmt.Errorf("replace players_data: %w", err)
	}
	if err := p.store.ReplaceRefereeStats(ctx, BuildRefereeStats(matches)); err != nil {
		return nil, fmt.Errorf("replace referee_data: %w", err)
	}
	p.log.WithField("players", len(rows)).Info("Rebuilt derived tables")

	byID := make(map[string]store.PlayerRating, len(rows))
	for _, r := range rows {
		byID[r.PlayerID] = r
	}
	return byID, nil
}

// backfillPDRAS fills missing segment exposures both in the store and on the
// in-memory segment list used for RAS training.
func (p *Pipeline) backfillPDRAS(ctx context.Context, players map[string]store.PlayerRating, segCtxs []store.SegmentContext) error {
	missing, err := p.store.SegmentsMissingPDRAS(ctx)
	if err != nil {
		return fmt.Errorf("load segments missing pdras: %w", err)
	}
	filled := make(map[uint][2]float64, len(missing))
	for i := range missing {
		a, b := PDRAS(&missing[i], players)
		if err := p.store.UpdateSegmentPDRAS(ctx, missing[i].DetailID, a, b); err != nil {
			return fmt.Errorf("update pdras for segment %d: %w", missing[i].DetailID, err)
		}
		filled[missing[i].DetailID] = [2]float64{a, b}
	}
	for i := range segCtxs {
		seg := &segCtxs[i].Segment
		if v, ok := filled[seg.DetailID]; ok {
			a, b := v[0], v[1]
			seg.TeamAPDRAS = &a
			seg.TeamBPDRAS = &b
		}
	}
	if len(missing) > 0 {
		p.log.WithField("segments", len(missing)).Info("Backfilled PDRAS")
	}
	return nil
}

// enrichShots computes the rating-derived shot columns, trains the RSQ model
// and writes predicted RSQ back. It returns every enriched shot up to the
// date for PSxG training.
func (p *Pipeline) enrichShots(ctx context.Context, players map[string]store.PlayerRating, upto time.Time) ([]store.Shot, error) {
	pending, err := p.store.ShotsMissingEnrichment(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shots missing enrichment: %w", err)
	}
	already, err := p.store.EnrichedShots(ctx, upto)
	if err != nil {
		return nil, fmt.Errorf("load enriched shots: %w", err)
	}

	// Static enrichment in memory first.
	enrichments := make([]store.ShotEnrichment, len(pending))
	for i := range pending {
		enrichments[i] = EnrichShot(&pending[i], players)
		s := &pending[i]
		s.TotalPLSQA = &enrichments[i].TotalPLSQA
		s.ShooterSQ = &enrichments[i].ShooterSQ
		s.AssisterSQ = &enrichments[i].AssisterSQ
		s.ShooterA = &enrichments[i].ShooterA
		s.GkA = &enrichments[i].GkA
	}

	all := append(append([]store.Shot(nil), already...), pending...)
	if len(all) == 0 {
		return nil, nil
	}

	rsqModel, err := p.trainer.TrainRSQ(all)
	if err != nil {
		return nil, fmt.Errorf("train rsq: %w", err)
	}

	if len(pending) > 0 {
		b := frame.NewBuilder()
		for i := range pending {
			s := &pending[i]
			b.Add(contextmodel.ShotQualityRow(*s.TotalPLSQA, *s.ShooterSQ, *s.AssisterSQ, s.MatchState, s.PlayerDif, s.AssisterID != ""))
		}
		preds := rsqModel.Predict(b.Build())
		for i := range pending {
			enrichments[i].RSQ = preds[i]
			pending[i].RSQ = &enrichments[i].RSQ
		}
		if err := p.store.UpdateShotEnrichment(ctx, enrichments); err != nil {
			return nil, fmt.Errorf("write shot enrichment: %w", err)
		}
		p.log.WithField("shots", len(pending)).Info("Enriched shots")
	}
	return all, nil
}

func (p *Pipeline) trainModels(ctx context.Context, segCtxs []store.SegmentContext, shots []store.Shot, upto time.Time) (*contextmodel.Models, error) {
	rasModel, err := p.trainer.TrainRAS(segCtxs)
	if err != nil {
		return nil, fmt.Errorf("train ras: %w", err)
	}
	rsqModel, err := p.trainer.TrainRSQ(shots)
	if err != nil {
		return nil, fmt.Errorf("train rsq: %w", err)
	}

	matches, err := p.store.MatchesUpTo(ctx, upto)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	byID := make(map[uint]store.Match, len(matches))
	for _, m := range matches {
		byID[m.MatchID] = m
	}
	psxgModel, err := p.trainer.TrainPSxG(shots, byID)
	if err != nil {
		return nil, fmt.Errorf("train psxg: %w", err)
	}

	return &contextmodel.Models{RAS: rasModel, RSQ: rsqModel, PSxG: psxgModel}, nil
}
