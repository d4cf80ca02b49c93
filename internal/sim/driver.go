package sim

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/venomio5/VPFM7/internal/contextmodel"
	"github.com/venomio5/VPFM7/internal/store"
)

// NumSims picks the simulation count from the starting minute: full-match
// runs get the deepest sample, live resumes progressively fewer.
func NumSims(startMinute int) int {
	switch {
	case startMinute < 1:
		return 20000
	case startMinute < 45:
		return 8000
	default:
		return 2000
	}
}

// CardRow is an aggregated booking row. Cards are not persisted; they feed
// the run summary.
type CardRow struct {
	SimID  int
	Minute int
	Player string
	TeamID uint
	Card   string
}

// Result summarizes one simulation run.
type Result struct {
	RunID         uuid.UUID
	NSims         int
	HomeGoalsMean float64
	AwayGoalsMean float64
	Shots         []store.SimShot
	Cards         []CardRow
}

// Driver fans simulations out over a worker pool and persists the shot rows.
type Driver struct {
	store    store.Store
	workers  int
	baseSeed int64
	log      *logrus.Entry
}

func NewDriver(st store.Store, workers int, baseSeed int64, log *logrus.Logger) *Driver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Driver{
		store:    st,
		workers:  workers,
		baseSeed: baseSeed,
		log:      log.WithField("component", "sim"),
	}
}

// SimulateSchedule runs the full Monte Carlo pass for one fixture and
// replaces its simulation_data. The delete and insert share one transaction,
// so a failed run never clobbers the previous one.
func (d *Driver) SimulateSchedule(ctx context.Context, in *MatchInput, models *contextmodel.Models) (*Result, error) {
	nSims := NumSims(in.StartMinute)
	res, err := d.Run(ctx, in, models, nSims)
	if err != nil {
		return nil, err
	}
	if err := d.store.ReplaceSimulation(ctx, in.ScheduleID, res.Shots); err != nil {
		return nil, fmt.Errorf("persist simulation for schedule %d: %w", in.ScheduleID, err)
	}
	d.log.WithFields(logrus.Fields{
		"schedule_id": in.ScheduleID,
		"run_id":      res.RunID,
		"sims":        nSims,
		"shot_rows":   len(res.Shots),
	}).Info("Simulation run persisted")
	return res, nil
}

// Run executes nSims independent simulations across the worker pool and
// aggregates their rows. Simulation i always uses seed base+i, so results
// are reproducible regardless of worker scheduling.
func (d *Driver) Run(ctx context.Context, in *MatchInput, models *contextmodel.Models, nSims int) (*Result, error) {
	ctxTable := PrecomputeCtxMult(models.RAS, in.Fixture)
	cache := newPredCache(models, in.Fixture)

	type simOut struct {
		idx   int
		shots []shotEvent
		cards []cardEvent
	}

	jobs := make(chan int)
	results := make(chan simOut, d.workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < d.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rng := rand.New(rand.NewSource(d.baseSeed + int64(idx)))
				shots, cards := runSimulation(in, ctxTable, cache, rng)
				select {
				case results <- simOut{idx: idx, shots: shots, cards: cards}:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < nSims; i++ {
			select {
			case jobs <- i:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Arrival order is nondeterministic; index per-sim outputs and flatten
	// in sim order so replays with the same seed are byte-identical.
	perSimShots := make([][]shotEvent, nSims)
	perSimCards := make([][]cardEvent, nSims)
	collected := 0
	for collected < nSims {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case out, ok := <-results:
			if !ok {
				return nil, fmt.Errorf("simulation pool closed after %d of %d sims", collected, nSims)
			}
			perSimShots[out.idx] = out.shots
			perSimCards[out.idx] = out.cards
			collected++
		}
	}

	res := &Result{RunID: uuid.New(), NSims: nSims}
	var homeGoals, awayGoals int
	for idx := 0; idx < nSims; idx++ {
		for _, s := range perSimShots[idx] {
			outcome := 0
			if s.Goal {
				outcome = 1
				if s.TeamID == in.Home.TeamID {
					homeGoals++
				} else {
					awayGoals++
				}
			}
			res.Shots = append(res.Shots, store.SimShot{
				SimID:      idx,
				ScheduleID: in.ScheduleID,
				Minute:     s.Minute,
				Shooter:    s.Shooter,
				Squad:      s.TeamID,
				Outcome:    outcome,
				BodyPart:   s.BodyPart,
				Assister:   s.Assister,
			})
		}
		for _, c := range perSimCards[idx] {
			card := "yellow"
			if c.Card == cardRed {
				card = "red"
			}
			res.Cards = append(res.Cards, CardRow{
				SimID:  idx,
				Minute: c.Minute,
				Player: c.Player,
				TeamID: c.TeamID,
				Card:   card,
			})
		}
	}

	res.HomeGoalsMean = float64(homeGoals) / float64(nSims)
	res.AwayGoalsMean = float64(awayGoals) / float64(nSims)
	return res, nil
}
