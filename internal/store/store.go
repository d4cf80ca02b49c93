package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")
)

// SegmentContext is a match_detail row joined with its match_info row. The
// context-model trainers expand each of these into a home and an away
// perspective.
type SegmentContext struct {
	Segment MatchSegment
	Match   Match
}

// ShotEnrichment carries the rating-derived columns written back onto a shot.
type ShotEnrichment struct {
	ShotID     uint
	TotalPLSQA float64
	ShooterSQ  float64
	AssisterSQ float64
	RSQ        float64
	ShooterA   float64
	GkA        float64
}

// Store is the persistence boundary. The gorm implementation is the only
// production one; tests use it against in-memory sqlite.
type Store interface {
	// Reference data.
	ActiveLeagues(ctx context.Context) ([]League, error)
	TouchLeague(ctx context.Context, id uint, updated time.Time) error
	TeamByID(ctx context.Context, id uint) (*Team, error)
	TeamsByLeague(ctx context.Context, leagueID uint) ([]Team, error)
	UpsertTeam(ctx context.Context, t *Team) error
	LeagueAvgElevation(ctx context.Context, leagueID uint) (float64, error)

	// Match ingestion.
	InsertMatch(ctx context.Context, m *Match) error
	InsertSegments(ctx context.Context, segs []MatchSegment) error
	InsertBreakdowns(ctx context.Context, rows []MatchBreakdown) error
	InsertShots(ctx context.Context, shots []Shot) error
	MatchURLsSeen(ctx context.Context, leagueID uint) (map[string]bool, error)
	LastMatchDate(ctx context.Context, teamID uint, before time.Time) (*time.Time, error)

	// Training queries.
	SegmentContexts(ctx context.Context, upto time.Time) ([]SegmentContext, error)
	SegmentsMissingPDRAS(ctx context.Context) ([]MatchSegment, error)
	UpdateSegmentPDRAS(ctx context.Context, detailID uint, teamA, teamB float64) error
	ShotsMissingEnrichment(ctx context.Context) ([]Shot, error)
	EnrichedShots(ctx context.Context, upto time.Time) ([]Shot, error)
	UpdateShotEnrichment(ctx context.Context, rows []ShotEnrichment) error
	BreakdownsUpTo(ctx context.Context, upto time.Time) ([]MatchBreakdown, error)
	MatchesUpTo(ctx context.Context, upto time.Time) ([]Match, error)

	// Derived tables, rebuilt wholesale each training pass.
	ReplacePlayerRatings(ctx context.Context, rows []PlayerRating) error
	ReplaceRefereeStats(ctx context.Context, rows []RefereeStats) error
	PlayerRatings(ctx context.Context, playerIDs []string) (map[string]PlayerRating, error)
	PlayersByTeam(ctx context.Context, teamID uint) ([]PlayerRating, error)
	RefereeByName(ctx context.Context, name string) (*RefereeStats, error)

	// Fixtures and simulation output.
	ScheduleByID(ctx context.Context, id uint) (*Schedule, error)
	UpsertSchedule(ctx context.Context, s *Schedule) error
	ReplaceSimulation(ctx context.Context, scheduleID uint, rows []SimShot) error
	SimulationRows(ctx context.Context, scheduleID uint) ([]SimShot, error)
	PurgeSimulations(ctx context.Context, olderThan time.Time) (int64, error)

	Close() error
}
