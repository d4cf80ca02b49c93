// Package handlers exposes the HTTP surface: training, schedule management,
// simulation runs and run summaries.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/venomio5/VPFM7/internal/cache"
	"github.com/venomio5/VPFM7/internal/contextmodel"
	"github.com/venomio5/VPFM7/internal/prematch"
	"github.com/venomio5/VPFM7/internal/sim"
	"github.com/venomio5/VPFM7/internal/store"
	"github.com/venomio5/VPFM7/internal/training"
)

// ForecastHandler carries the trained models behind a lock; the nightly
// scheduler and the train endpoint both swap them in.
type ForecastHandler struct {
	store    store.Store
	pipeline *training.Pipeline
	driver   *sim.Driver
	prematch *prematch.Builder
	onboard  *prematch.Onboarder
	cache    *cache.SummaryCache
	log      *logrus.Entry

	mu     sync.RWMutex
	models *contextmodel.Models
}

func NewForecastHandler(
	st store.Store,
	pipeline *training.Pipeline,
	driver *sim.Driver,
	pm *prematch.Builder,
	onboard *prematch.Onboarder,
	summaryCache *cache.SummaryCache,
	log *logrus.Logger,
) *ForecastHandler {
	return &ForecastHandler{
		store:    st,
		pipeline: pipeline,
		driver:   driver,
		prematch: pm,
		onboard:  onboard,
		cache:    summaryCache,
		log:      log.WithField("component", "api"),
	}
}

// SetModels swaps in a freshly trained model set.
func (h *ForecastHandler) SetModels(m *contextmodel.Models) {
	h.mu.Lock()
	h.models = m
	h.mu.Unlock()
}

func (h *ForecastHandler) currentModels() *contextmodel.Models {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.models
}

// Train runs the full train-and-extract pass synchronously and publishes the
// resulting models.
func (h *ForecastHandler) Train(c *gin.Context) {
	start := time.Now()
	models, err := h.pipeline.TrainAndExtract(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.log.WithError(err).Error("Training failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "training failed"})
		return
	}
	h.SetModels(models)
	c.JSON(http.StatusOK, gin.H{
		"status":   "trained",
		"duration": time.Since(start).String(),
	})
}

type scheduleRequest struct {
	HomeTeamID  uint      `json:"home_team_id" binding:"required"`
	AwayTeamID  uint      `json:"away_team_id" binding:"required"`
	LeagueID    uint      `json:"league_id" binding:"required"`
	Date        time.Time `json:"date" binding:"required"`
	RefereeName string    `json:"referee_name"`
	HomePlayers []string  `json:"home_players"`
	AwayPlayers []string  `json:"away_players"`
}

// CreateSchedule registers an upcoming fixture. When the pre-match builder is
// wired, the geography and weather context is resolved here so simulation
// requests stay cheap.
func (h *ForecastHandler) CreateSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.HomeTeamID == req.AwayTeamID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "home and away team must differ"})
		return
	}

	sch := &store.Schedule{
		HomeTeamID:  req.HomeTeamID,
		AwayTeamID:  req.AwayTeamID,
		LeagueID:    req.LeagueID,
		Date:        req.Date,
		RefereeName: req.RefereeName,
		HomePlayers: datatypes.JSONSlice[string](req.HomePlayers),
		AwayPlayers: datatypes.JSONSlice[string](req.AwayPlayers),
	}

	if h.prematch != nil {
		home, err := h.store.TeamByID(c.Request.Context(), req.HomeTeamID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown home team"})
			return
		}
		away, err := h.store.TeamByID(c.Request.Context(), req.AwayTeamID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown away team"})
			return
		}
		fx, err := h.prematch.Build(c.Request.Context(), home, away, req.Date)
		if err != nil {
			h.log.WithError(err).Warn("Fixture context unavailable, storing schedule without it")
		} else {
			sch.HomeElevationDif = fx.HomeElevationDif
			sch.AwayElevationDif = fx.AwayElevationDif
			sch.AwayTravel = fx.AwayTravelKm
			sch.HomeRestDays = fx.HomeRestDays
			sch.AwayRestDays = fx.AwayRestDays
			sch.TemperatureC = fx.TemperatureC
			sch.IsRaining = fx.IsRaining
		}
	}

	if err := h.store.UpsertSchedule(c.Request.Context(), sch); err != nil {
		h.log.WithError(err).Error("Failed to store schedule")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store schedule"})
		return
	}
	// A re-registered fixture (new lineups, new referee) outdates any summary.
	h.cache.Invalidate(c.Request.Context(), sch.ScheduleID)
	c.JSON(http.StatusCreated, sch)
}

// GetSchedule returns one stored fixture.
func (h *ForecastHandler) GetSchedule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sch, err := h.store.ScheduleByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load schedule"})
		return
	}
	c.JSON(http.StatusOK, sch)
}

type simulateRequest struct {
	StartMinute int      `json:"start_minute"`
	HomeGoals   int      `json:"home_goals"`
	AwayGoals   int      `json:"away_goals"`
	HomeReds    int      `json:"home_reds"`
	AwayReds    int      `json:"away_reds"`
	HomeSubUsed int      `json:"home_subs_used"`
	AwaySubUsed int      `json:"away_subs_used"`
	HomePlayers []string `json:"home_players"`
	AwayPlayers []string `json:"away_players"`
	HomeBench   []string `json:"home_bench"`
	AwayBench   []string `json:"away_bench"`
}

// Simulate runs the Monte Carlo pass for one schedule. Lineups default to
// the ones stored on the schedule; live resumes pass the current score,
// reds and substitutions used.
func (h *ForecastHandler) Simulate(c *gin.Context) {
	models := h.currentModels()
	if models == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "models not trained yet"})
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}
	sch, err := h.store.ScheduleByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load schedule"})
		return
	}

	// An empty body means a plain pre-match run.
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.StartMinute < 0 || req.StartMinute >= 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_minute must be in [0, 90)"})
		return
	}

	homeXI := req.HomePlayers
	if len(homeXI) == 0 {
		homeXI = []string(sch.HomePlayers)
	}
	awayXI := req.AwayPlayers
	if len(awayXI) == 0 {
		awayXI = []string(sch.AwayPlayers)
	}
	if len(homeXI) == 0 || len(awayXI) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "both lineups are required"})
		return
	}

	ids := make([]string, 0, len(homeXI)+len(awayXI)+len(req.HomeBench)+len(req.AwayBench))
	ids = append(ids, homeXI...)
	ids = append(ids, awayXI...)
	ids = append(ids, req.HomeBench...)
	ids = append(ids, req.AwayBench...)
	snapshot, err := h.store.PlayerRatings(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load player ratings"})
		return
	}

	referee := sim.DefaultRefereePrior
	if sch.RefereeName != "" {
		if ref, err := h.store.RefereeByName(c.Request.Context(), sch.RefereeName); err == nil {
			referee = *ref
		}
	}

	home := sim.BuildTeamSetup(sch.HomeTeamID, true, homeXI, req.HomeBench, snapshot)
	away := sim.BuildTeamSetup(sch.AwayTeamID, false, awayXI, req.AwayBench, snapshot)
	home.RemainingSubs -= req.HomeSubUsed
	away.RemainingSubs -= req.AwaySubUsed
	if home.RemainingSubs < 0 {
		home.RemainingSubs = 0
	}
	if away.RemainingSubs < 0 {
		away.RemainingSubs = 0
	}

	in := &sim.MatchInput{
		ScheduleID: sch.ScheduleID,
		Fixture: contextmodel.FixtureContext{
			HomeElevationDif: sch.HomeElevationDif,
			AwayElevationDif: sch.AwayElevationDif,
			AwayTravel:       sch.AwayTravel,
			HomeRestDays:     float64(sch.HomeRestDays),
			AwayRestDays:     float64(sch.AwayRestDays),
			TemperatureC:     sch.TemperatureC,
			IsRaining:        sch.IsRaining,
			KickoffHour:      sch.Date.Hour(),
		},
		Home:         home,
		Away:         away,
		Referee:      referee,
		StartMinute:  req.StartMinute,
		InitialGoals: [2]int{req.HomeGoals, req.AwayGoals},
		InitialReds:  [2]int{req.HomeReds, req.AwayReds},
	}

	res, err := h.driver.SimulateSchedule(c.Request.Context(), in, models)
	if err != nil {
		h.log.WithError(err).WithField("schedule_id", sch.ScheduleID).Error("Simulation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "simulation failed"})
		return
	}

	summary := sim.Summarize(sch.ScheduleID, sch.HomeTeamID, res.NSims, res.Shots)
	h.cache.Set(c.Request.Context(), summary)

	c.JSON(http.StatusOK, gin.H{
		"run_id":  res.RunID,
		"summary": summary,
	})
}

// GetSummary serves the aggregated view of the latest persisted run, cached
// in Redis when available.
func (h *ForecastHandler) GetSummary(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if s := h.cache.Get(c.Request.Context(), id); s != nil {
		c.JSON(http.StatusOK, s)
		return
	}

	sch, err := h.store.ScheduleByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load schedule"})
		return
	}
	rows, err := h.store.SimulationRows(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load simulation"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule has no simulation yet"})
		return
	}

	// Shotless trailing sims leave no rows, so this only ever undercounts by
	// a handful out of thousands.
	nSims := 0
	for _, r := range rows {
		if r.SimID+1 > nSims {
			nSims = r.SimID + 1
		}
	}
	summary := sim.Summarize(id, sch.HomeTeamID, nSims, rows)
	h.cache.Set(c.Request.Context(), summary)
	c.JSON(http.StatusOK, summary)
}

type teamRequest struct {
	Name        string `json:"name" binding:"required"`
	Stadium     string `json:"stadium" binding:"required"`
	LeagueID    uint   `json:"league_id" binding:"required"`
	FixturesURL string `json:"fixtures_url"`
}

// CreateTeam registers a team, resolving its stadium coordinates and
// elevation through the external providers.
func (h *ForecastHandler) CreateTeam(c *gin.Context) {
	if h.onboard == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "team onboarding providers not configured"})
		return
	}
	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	team, err := h.onboard.RegisterTeam(c.Request.Context(), req.Name, req.Stadium, req.LeagueID, req.FixturesURL)
	if err != nil {
		h.log.WithError(err).WithField("team", req.Name).Error("Team registration failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to resolve stadium"})
		return
	}
	c.JSON(http.StatusCreated, team)
}

// TeamPlayers lists a team's rated players for lineup building.
func (h *ForecastHandler) TeamPlayers(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	players, err := h.store.PlayersByTeam(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load players"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"team_id": id, "players": players})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
