package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// insertBatchSize caps multi-row inserts so a simulation flush never exceeds
// the driver placeholder limit.
const insertBatchSize = 200

type GormStore struct {
	db  *gorm.DB
	log *logrus.Entry
}

// Open connects to the database named by databaseURL. Postgres URLs get the
// postgres driver; anything else is treated as a sqlite DSN, which is also
// what tests use (file::memory:?cache=shared).
func Open(databaseURL string, isDevelopment bool, log *logrus.Logger) (*GormStore, error) {
	logLevel := gormlogger.Error
	if isDevelopment {
		logLevel = gormlogger.Warn
	}

	cfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		db, err = gorm.Open(postgres.Open(databaseURL), cfg)
	} else {
		db, err = gorm.Open(sqlite.Open(databaseURL), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&League{}, &Team{}, &Match{}, &MatchSegment{}, &MatchBreakdown{},
		&Shot{}, &PlayerRating{}, &RefereeStats{}, &Schedule{}, &SimShot{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Database connection established successfully")

	return &GormStore{
		db:  db,
		log: log.WithField("component", "store"),
	}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the underlying handle for migrations and test seeding.
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) ActiveLeagues(ctx context.Context) ([]League, error) {
	var out []League
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load active leagues: %w", err)
	}
	return out, nil
}

func (s *GormStore) TouchLeague(ctx context.Context, id uint, updated time.Time) error {
	return s.db.WithContext(ctx).Model(&League{}).
		Where("league_id = ?", id).
		Update("last_updated_date", updated).Error
}

func (s *GormStore) TeamByID(ctx context.Context, id uint) (*Team, error) {
	var t Team
	if err := s.db.WithContext(ctx).First(&t, "team_id = ?", id).Error; err != nil {
		return nil, translateErr(err, "team %d", id)
	}
	return &t, nil
}

func (s *GormStore) TeamsByLeague(ctx context.Context, leagueID uint) ([]Team, error) {
	var out []Team
	if err := s.db.WithContext(ctx).Where("league_id = ?", leagueID).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load teams for league %d: %w", leagueID, err)
	}
	return out, nil
}

func (s *GormStore) UpsertTeam(ctx context.Context, t *Team) error {
	var existing Team
	err := s.db.WithContext(ctx).
		Where("league_id = ? AND team_name = ?", t.LeagueID, t.TeamName).
		First(&existing).Error
	switch {
	case err == nil:
		t.TeamID = existing.TeamID
		return s.db.WithContext(ctx).Save(t).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(t).Error
	default:
		return fmt.Errorf("failed to upsert team %q: %w", t.TeamName, err)
	}
}

func (s *GormStore) LeagueAvgElevation(ctx context.Context, leagueID uint) (float64, error) {
	var avg *float64
	err := s.db.WithContext(ctx).Model(&Team{}).
		Where("league_id = ?", leagueID).
		Select("AVG(team_elevation)").
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("failed to average elevation for league %d: %w", leagueID, err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (s *GormStore) InsertMatch(ctx context.Context, m *Match) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *GormStore) InsertSegments(ctx context.Context, segs []MatchSegment) error {
	if len(segs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(segs, insertBatchSize).Error
}

func (s *GormStore) InsertBreakdowns(ctx context.Context, rows []MatchBreakdown) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error
}

func (s *GormStore) InsertShots(ctx context.Context, shots []Shot) error {
	if len(shots) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(shots, insertBatchSize).Error
}

func (s *GormStore) MatchURLsSeen(ctx context.Context, leagueID uint) (map[string]bool, error) {
	var urls []string
	err := s.db.WithContext(ctx).Model(&Match{}).
		Where("league_id = ?", leagueID).
		Pluck("url", &urls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load match urls for league %d: %w", leagueID, err)
	}
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		seen[u] = true
	}
	return seen, nil
}

func (s *GormStore) LastMatchDate(ctx context.Context, teamID uint, before time.Time) (*time.Time, error) {
	var m Match
	err := s.db.WithContext(ctx).
		Where("(home_team_id = ? OR away_team_id = ?) AND date < ?", teamID, teamID, before).
		Order("date DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last match for team %d: %w", teamID, err)
	}
	return &m.Date, nil
}

func (s *GormStore) SegmentContexts(ctx context.Context, upto time.Time) ([]SegmentContext, error) {
	var segs []MatchSegment
	err := s.db.WithContext(ctx).
		Joins("JOIN match_info ON match_info.match_id = match_detail.match_id").
		Where("match_info.date <= ?", upto).
		Find(&segs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load segment contexts: %w", err)
	}

	matchIDs := make([]uint, 0, len(segs))
	seen := make(map[uint]bool)
	for _, sg := range segs {
		if !seen[sg.MatchID] {
			seen[sg.MatchID] = true
			matchIDs = append(matchIDs, sg.MatchID)
		}
	}
	var matches []Match
	if len(matchIDs) > 0 {
		if err := s.db.WithContext(ctx).Where("match_id IN ?", matchIDs).Find(&matches).Error; err != nil {
			return nil, fmt.Errorf("failed to load matches for segment contexts: %w", err)
		}
	}
	byID := make(map[uint]Match, len(matches))
	for _, m := range matches {
		byID[m.MatchID] = m
	}

	out := make([]SegmentContext, 0, len(segs))
	for _, sg := range segs {
		m, ok := byID[sg.MatchID]
		if !ok {
			continue
		}
		out = append(out, SegmentContext{Segment: sg, Match: m})
	}
	return out, nil
}

func (s *GormStore) SegmentsMissingPDRAS(ctx context.Context) ([]MatchSegment, error) {
	var out []MatchSegment
	err := s.db.WithContext(ctx).
		Where("teamA_pdras IS NULL OR teamB_pdras IS NULL").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load segments missing pdras: %w", err)
	}
	return out, nil
}

func (s *GormStore) UpdateSegmentPDRAS(ctx context.Context, detailID uint, teamA, teamB float64) error {
	return s.db.WithContext(ctx).Model(&MatchSegment{}).
		Where("detail_id = ?", detailID).
		Updates(map[string]interface{}{
			"teamA_pdras": teamA,
			"teamB_pdras": teamB,
		}).Error
}

func (s *GormStore) ShotsMissingEnrichment(ctx context.Context) ([]Shot, error) {
	var out []Shot
	err := s.db.WithContext(ctx).
		Where("total_PLSQA IS NULL OR RSQ IS NULL").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shots missing enrichment: %w", err)
	}
	return out, nil
}

func (s *GormStore) EnrichedShots(ctx context.Context, upto time.Time) ([]Shot, error) {
	var out []Shot
	err := s.db.WithContext(ctx).
		Joins("JOIN match_info ON match_info.match_id = shots_data.match_id").
		Where("match_info.date <= ? AND shots_data.total_PLSQA IS NOT NULL", upto).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load enriched shots: %w", err)
	}
	return out, nil
}

func (s *GormStore) UpdateShotEnrichment(ctx context.Context, rows []ShotEnrichment) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			err := tx.Model(&Shot{}).
				Where("shot_id = ?", r.ShotID).
				Updates(map[string]interface{}{
					"total_PLSQA": r.TotalPLSQA,
					"shooter_SQ":  r.ShooterSQ,
					"assister_SQ": r.AssisterSQ,
					"RSQ":         r.RSQ,
					"shooter_A":   r.ShooterA,
					"GK_A":        r.GkA,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to update shot %d: %w", r.ShotID, err)
			}
		}
		return nil
	})
}

func (s *GormStore) BreakdownsUpTo(ctx context.Context, upto time.Time) ([]MatchBreakdown, error) {
	var out []MatchBreakdown
	err := s.db.WithContext(ctx).
		Joins("JOIN match_info ON match_info.match_id = match_breakdown.match_id").
		Where("match_info.date <= ?", upto).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load breakdowns: %w", err)
	}
	return out, nil
}

func (s *GormStore) MatchesUpTo(ctx context.Context, upto time.Time) ([]Match, error) {
	var out []Match
	if err := s.db.WithContext(ctx).Where("date <= ?", upto).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	return out, nil
}

func (s *GormStore) ReplacePlayerRatings(ctx context.Context, rows []PlayerRating) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&PlayerRating{}).Error; err != nil {
			return fmt.Errorf("failed to clear players_data: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}

func (s *GormStore) ReplaceRefereeStats(ctx context.Context, rows []RefereeStats) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&RefereeStats{}).Error; err != nil {
			return fmt.Errorf("failed to clear referee_data: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}

func (s *GormStore) PlayerRatings(ctx context.Context, playerIDs []string) (map[string]PlayerRating, error) {
	var rows []PlayerRating
	if err := s.db.WithContext(ctx).Where("player_id IN ?", playerIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load player ratings: %w", err)
	}
	out := make(map[string]PlayerRating, len(rows))
	for _, r := range rows {
		out[r.PlayerID] = r
	}
	return out, nil
}

func (s *GormStore) PlayersByTeam(ctx context.Context, teamID uint) ([]PlayerRating, error) {
	var rows []PlayerRating
	if err := s.db.WithContext(ctx).Where("current_team = ?", teamID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load players for team %d: %w", teamID, err)
	}
	return rows, nil
}

func (s *GormStore) RefereeByName(ctx context.Context, name string) (*RefereeStats, error) {
	var r RefereeStats
	if err := s.db.WithContext(ctx).First(&r, "referee_name = ?", name).Error; err != nil {
		return nil, translateErr(err, "referee %q", name)
	}
	return &r, nil
}

func (s *GormStore) ScheduleByID(ctx context.Context, id uint) (*Schedule, error) {
	var sch Schedule
	if err := s.db.WithContext(ctx).First(&sch, "schedule_id = ?", id).Error; err != nil {
		return nil, translateErr(err, "schedule %d", id)
	}
	return &sch, nil
}

func (s *GormStore) UpsertSchedule(ctx context.Context, sch *Schedule) error {
	if sch.ScheduleID != 0 {
		return s.db.WithContext(ctx).Save(sch).Error
	}
	return s.db.WithContext(ctx).Create(sch).Error
}

// ReplaceSimulation swaps out a schedule's simulation rows atomically. Delete
// and inserts run in one transaction so readers never observe a partial run.
func (s *GormStore) ReplaceSimulation(ctx context.Context, scheduleID uint, rows []SimShot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", scheduleID).Delete(&SimShot{}).Error; err != nil {
			return fmt.Errorf("failed to clear simulation rows for schedule %d: %w", scheduleID, err)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
}

func (s *GormStore) SimulationRows(ctx context.Context, scheduleID uint) ([]SimShot, error) {
	var out []SimShot
	err := s.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("sim_id, minute").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load simulation rows for schedule %d: %w", scheduleID, err)
	}
	return out, nil
}

func (s *GormStore) PurgeSimulations(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("schedule_id IN (?)",
			s.db.Model(&Schedule{}).Select("schedule_id").Where("date < ?", olderThan),
		).
		Delete(&SimShot{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge simulations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func translateErr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", fmt.Sprintf(format, args...), err)
}
