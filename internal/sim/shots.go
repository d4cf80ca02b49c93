package sim

import (
	"math"
	"math/rand"
	"sync"

	"github.com/venomio5/VPFM7/internal/contextmodel"
	"github.com/venomio5/VPFM7/internal/frame"
	"github.com/venomio5/VPFM7/internal/matchstate"
	"github.com/venomio5/VPFM7/internal/store"
)

// teamRatings are the lineup-sum rates for one side against the current
// opposing lineup. They are recomputed only when a roster changes.
type teamRatings struct {
	RAS   float64 // shots per minute
	RAHS  float64 // headed shots per minute
	RAFS  float64 // footed shots per minute
	PLHSQ float64 // header shot-quality adjustment
	PLFSQ float64 // footer shot-quality adjustment
}

func computeRatings(active, oppActive []string, players, oppPlayers map[string]*Player) teamRatings {
	var r teamRatings
	for _, id := range active {
		p := players[id]
		r.RAS += p.OffSh
		r.RAHS += p.OffHeaders
		r.RAFS += p.OffFooters
		r.PLHSQ += p.OffHxG
		r.PLFSQ += p.OffFxG
	}
	for _, id := range oppActive {
		p := oppPlayers[id]
		r.RAS -= p.DefSh
		r.RAHS -= p.DefHeaders
		r.RAFS -= p.DefFooters
		r.PLHSQ -= p.DefHxG
		r.PLFSQ -= p.DefFxG
	}
	return r
}

type ctxKey struct {
	State   float64
	Segment int
	Dif     float64
	Home    bool
}

// CtxTable maps a context bucket to the multiplicative model effect on the
// lineup shot rate.
type CtxTable map[ctxKey]float64

var ctxLevels = []float64{-1.5, -1, 0, 1, 1.5}

// PrecomputeCtxMult evaluates the RAS booster over the full Cartesian
// context grid in one batch, with unit exposure so the raw margin is the
// pure model effect, then exponentiates.
func PrecomputeCtxMult(ras interface {
	PredictMargin(*frame.Table) []float64
}, fx contextmodel.FixtureContext) CtxTable {
	b := frame.NewBuilder()
	var keys []ctxKey
	for _, home := range []bool{true, false} {
		for _, state := range ctxLevels {
			for seg := 1; seg <= 6; seg++ {
				for _, dif := range ctxLevels {
					b.Add(contextmodel.ShotRateRow(fx, home, state, seg, dif))
					keys = append(keys, ctxKey{State: state, Segment: seg, Dif: dif, Home: home})
				}
			}
		}
	}
	margins := ras.PredictMargin(b.Build())
	out := make(CtxTable, len(keys))
	for i, k := range keys {
		out[k] = math.Exp(margins[i])
	}
	return out
}

// Prediction cache keys are rounded to 4 decimals so float jitter cannot
// fragment the cache.
func round4(v float64) int64 { return int64(math.Round(v * 10000)) }

type rsqKey struct {
	PLSQA      int64
	ShooterSQ  int64
	AssisterSQ int64
	State      string
	Dif        string
	Assisted   bool
}

type psxgKey struct {
	RSQ      int64
	ShooterA int64
	GkA      int64
	Home     bool
}

// predCache shares RSQ and goal-probability lookups across workers. Both
// boosters are read-only; only the maps need locking.
type predCache struct {
	mu     sync.RWMutex
	models *contextmodel.Models
	fx     contextmodel.FixtureContext
	rsq    map[rsqKey]float64
	psxg   map[psxgKey]float64
}

func newPredCache(models *contextmodel.Models, fx contextmodel.FixtureContext) *predCache {
	return &predCache{
		models: models,
		fx:     fx,
		rsq:    make(map[rsqKey]float64),
		psxg:   make(map[psxgKey]float64),
	}
}

func (c *predCache) shotQuality(plsqa, shooterSQ, assisterSQ, state, dif float64, assisted bool) float64 {
	key := rsqKey{
		PLSQA:      round4(plsqa),
		ShooterSQ:  round4(shooterSQ),
		AssisterSQ: round4(assisterSQ),
		State:      matchstate.StateLabel(state),
		Dif:        matchstate.DifLabel(dif),
		Assisted:   assisted,
	}
	c.mu.RLock()
	v, ok := c.rsq[key]
	c.mu.RUnlock()
	if ok {
		return v
	}

	b := frame.NewBuilder()
	b.Add(contextmodel.ShotQualityRow(plsqa, shooterSQ, assisterSQ, state, dif, assisted))
	v = c.models.RSQ.Predict(b.Build())[0]

	c.mu.Lock()
	c.rsq[key] = v
	c.mu.Unlock()
	return v
}

func (c *predCache) goalProb(rsq, shooterA, gkA float64, isHome bool) float64 {
	key := psxgKey{RSQ: round4(rsq), ShooterA: round4(shooterA), GkA: round4(gkA), Home: isHome}
	c.mu.RLock()
	v, ok := c.psxg[key]
	c.mu.RUnlock()
	if ok {
		return v
	}

	b := frame.NewBuilder()
	b.Add(contextmodel.GoalProbRow(rsq, shooterA, gkA, c.fx, isHome))
	v = c.models.PSxG.Predict(b.Build())[0]
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	c.mu.Lock()
	c.psxg[key] = v
	c.mu.Unlock()
	return v
}

// shotEvent is one sampled shot before it becomes a store row.
type shotEvent struct {
	Minute   int
	Shooter  string
	TeamID   uint
	Goal     bool
	BodyPart string
	Assister string
}

// sampleTeamShots draws this minute's shots for one side and resolves each
// to a shooter, assister, body part and outcome.
func sampleTeamShots(
	setup *TeamSetup,
	active []string,
	ratings teamRatings,
	mult float64,
	state, dif float64,
	oppGkA float64,
	cache *predCache,
	minute int,
	rng *rand.Rand,
) []shotEvent {
	lambda := ratings.RAS
	if lambda < 0 {
		lambda = 0
	}
	lambda *= mult
	n := samplePoisson(lambda, rng)
	if n == 0 || len(active) == 0 {
		return nil
	}

	events := make([]shotEvent, 0, n)
	for i := 0; i < n; i++ {
		headW := math.Max(0, ratings.RAHS)
		footW := math.Max(0, ratings.RAFS)
		if headW == 0 && footW == 0 {
			headW, footW = 0.5, 0.5
		}
		head := sampleCategorical([]float64{headW, footW}, rng) == 0

		shooterW := make([]float64, len(active))
		for j, id := range active {
			p := setup.Players[id]
			if p.Minutes <= 0 {
				continue
			}
			if head {
				shooterW[j] = p.Headers / p.Minutes
			} else {
				shooterW[j] = p.Footers / p.Minutes
			}
		}
		shooter := setup.Players[active[sampleCategorical(shooterW, rng)]]

		// Assister pool: everyone else by key passes per minute; footed
		// shots add an unassisted option from the shooter's history.
		assistIDs := make([]string, 0, len(active))
		assistW := make([]float64, 0, len(active)+1)
		for _, id := range active {
			if id == shooter.ID {
				continue
			}
			p := setup.Players[id]
			w := 0.0
			if p.Minutes > 0 {
				w = p.KeyPasses / p.Minutes
			}
			assistIDs = append(assistIDs, id)
			assistW = append(assistW, w)
		}
		if !head {
			w := 0.0
			if shooter.Minutes > 0 {
				w = shooter.NonAssistedFooters / shooter.Minutes
			}
			assistIDs = append(assistIDs, "")
			assistW = append(assistW, w)
		}
		var assister *Player
		var assisterID string
		if len(assistIDs) > 0 {
			assisterID = assistIDs[sampleCategorical(assistW, rng)]
			if assisterID != "" {
				assister = setup.Players[assisterID]
			}
		}

		var shooterSQ, shooterA, plsqa, assisterSQ float64
		bodyPart := store.BodyPartFoot
		if head {
			bodyPart = store.BodyPartHead
			shooterSQ = shooter.HeaderSQ
			shooterA = shooter.HeaderA
			plsqa = ratings.PLHSQ
			if assister != nil {
				assisterSQ = assister.AssistSQHead
			}
		} else {
			shooterSQ = shooter.FooterSQ
			shooterA = shooter.FooterA
			plsqa = ratings.PLFSQ
			if assister != nil {
				assisterSQ = assister.AssistSQFoot
			}
		}

		rsq := cache.shotQuality(plsqa, shooterSQ, assisterSQ, state, dif, assister != nil)
		psxg := cache.goalProb(rsq, shooterA, oppGkA, setup.IsHome)

		events = append(events, shotEvent{
			Minute:   minute,
			Shooter:  shooter.ID,
			TeamID:   setup.TeamID,
			Goal:     rng.Float64() < psxg,
			BodyPart: bodyPart,
			Assister: assisterID,
		})
	}
	return events
}
