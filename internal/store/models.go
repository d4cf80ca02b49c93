package store

import (
	"time"

	"gorm.io/datatypes"
)

// Game status from a team's own perspective.
const (
	StatusLeading  = "Leading"
	StatusLevel    = "Level"
	StatusTrailing = "Trailing"
)

// Shot body parts as stored in shots_data and simulation_data.
const (
	BodyPartHead = "head"
	BodyPartFoot = "foot"
)

type League struct {
	LeagueID        uint      `gorm:"column:league_id;primaryKey;autoIncrement" json:"league_id"`
	LeagueName      string    `gorm:"column:league_name;not null" json:"league_name"`
	FixturesURL     string    `gorm:"column:fbref_fixtures_url" json:"fixtures_url"`
	LastUpdatedDate time.Time `gorm:"column:last_updated_date" json:"last_updated_date"`
	IsActive        bool      `gorm:"column:is_active;default:true" json:"is_active"`
}

func (League) TableName() string { return "league_data" }

type Team struct {
	TeamID        uint    `gorm:"column:team_id;primaryKey;autoIncrement" json:"team_id"`
	TeamName      string  `gorm:"column:team_name;not null;uniqueIndex:idx_league_team" json:"team_name"`
	TeamElevation float64 `gorm:"column:team_elevation" json:"team_elevation"`
	// "lat,lon" pair, the format the geocoder boundary hands back.
	TeamCoordinates string `gorm:"column:team_coordinates" json:"team_coordinates"`
	TeamFixturesURL string `gorm:"column:team_fixtures_url" json:"team_fixtures_url"`
	LeagueID        uint   `gorm:"column:league_id;not null;uniqueIndex:idx_league_team" json:"league_id"`
}

func (Team) TableName() string { return "team_data" }

type Match struct {
	MatchID          uint      `gorm:"column:match_id;primaryKey;autoIncrement" json:"match_id"`
	HomeTeamID       uint      `gorm:"column:home_team_id;not null" json:"home_team_id"`
	AwayTeamID       uint      `gorm:"column:away_team_id;not null" json:"away_team_id"`
	Date             time.Time `gorm:"column:date;not null" json:"date"`
	LeagueID         uint      `gorm:"column:league_id;not null;index" json:"league_id"`
	RefereeName      string    `gorm:"column:referee_name" json:"referee_name"`
	URL              string    `gorm:"column:url" json:"url"`
	HomeElevationDif *float64  `gorm:"column:home_elevation_dif" json:"home_elevation_dif"`
	AwayElevationDif *float64  `gorm:"column:away_elevation_dif" json:"away_elevation_dif"`
	AwayTravel       *float64  `gorm:"column:away_travel" json:"away_travel"`
	HomeRestDays     *int      `gorm:"column:home_rest_days" json:"home_rest_days"`
	AwayRestDays     *int      `gorm:"column:away_rest_days" json:"away_rest_days"`
	TemperatureC     *float64  `gorm:"column:temperature_c" json:"temperature_c"`
	IsRaining        bool      `gorm:"column:is_raining" json:"is_raining"`
	TotalFouls       int       `gorm:"column:total_fouls" json:"total_fouls"`
	YellowCards      int       `gorm:"column:yellow_cards" json:"yellow_cards"`
	RedCards         int       `gorm:"column:red_cards" json:"red_cards"`
}

func (Match) TableName() string { return "match_info" }

// MatchSegment is one lineup-stable window of a match. Segments partition
// [0, total_minutes] at {0,15,30,45,60,75,end} plus every sub, goal and red
// card minute.
type MatchSegment struct {
	DetailID     uint                          `gorm:"column:detail_id;primaryKey;autoIncrement" json:"detail_id"`
	MatchID      uint                          `gorm:"column:match_id;not null;index" json:"match_id"`
	TeamAPlayers datatypes.JSONSlice[string]   `gorm:"column:teamA_players" json:"teamA_players"`
	TeamBPlayers datatypes.JSONSlice[string]   `gorm:"column:teamB_players" json:"teamB_players"`
	TeamAHeaders int                           `gorm:"column:teamA_headers" json:"teamA_headers"`
	TeamAFooters int                           `gorm:"column:teamA_footers" json:"teamA_footers"`
	TeamAHxG     float64                       `gorm:"column:teamA_hxg" json:"teamA_hxg"`
	TeamAFxG     float64                       `gorm:"column:teamA_fxg" json:"teamA_fxg"`
	TeamBHeaders int                           `gorm:"column:teamB_headers" json:"teamB_headers"`
	TeamBFooters int                           `gorm:"column:teamB_footers" json:"teamB_footers"`
	TeamBHxG     float64                       `gorm:"column:teamB_hxg" json:"teamB_hxg"`
	TeamBFxG     float64                       `gorm:"column:teamB_fxg" json:"teamB_fxg"`
	MinutesPlayed int                          `gorm:"column:minutes_played" json:"minutes_played"`
	MatchState   float64                       `gorm:"column:match_state" json:"match_state"`
	MatchSegment int                           `gorm:"column:match_segment" json:"match_segment"`
	PlayerDif    float64                       `gorm:"column:player_dif" json:"player_dif"`
	TeamAPDRAS   *float64                      `gorm:"column:teamA_pdras" json:"teamA_pdras"`
	TeamBPDRAS   *float64                      `gorm:"column:teamB_pdras" json:"teamB_pdras"`
}

func (MatchSegment) TableName() string { return "match_detail" }

// MatchBreakdown holds one player's aggregates for one match.
type MatchBreakdown struct {
	ID                 uint    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MatchID            uint    `gorm:"column:match_id;not null;index" json:"match_id"`
	PlayerID           string  `gorm:"column:player_id;not null;index" json:"player_id"`
	Headers            int     `gorm:"column:headers" json:"headers"`
	Footers            int     `gorm:"column:footers" json:"footers"`
	KeyPasses          int     `gorm:"column:key_passes" json:"key_passes"`
	NonAssistedFooters int     `gorm:"column:non_assisted_footers" json:"non_assisted_footers"`
	HxG                float64 `gorm:"column:hxg" json:"hxg"`
	FxG                float64 `gorm:"column:fxg" json:"fxg"`
	KpHxG              float64 `gorm:"column:kp_hxg" json:"kp_hxg"`
	KpFxG              float64 `gorm:"column:kp_fxg" json:"kp_fxg"`
	HPSxG              float64 `gorm:"column:hpsxg" json:"hpsxg"`
	FPSxG              float64 `gorm:"column:fpsxg" json:"fpsxg"`
	GkPSxG             float64 `gorm:"column:gk_psxg" json:"gk_psxg"`
	GkGA               int     `gorm:"column:gk_ga" json:"gk_ga"`
	FoulsCommitted     int     `gorm:"column:fouls_committed" json:"fouls_committed"`
	FoulsDrawn         int     `gorm:"column:fouls_drawn" json:"fouls_drawn"`
	YellowCards        int     `gorm:"column:yellow_cards" json:"yellow_cards"`
	RedCards           int     `gorm:"column:red_cards" json:"red_cards"`
	SubIn              *int    `gorm:"column:sub_in" json:"sub_in"`
	SubOut             *int    `gorm:"column:sub_out" json:"sub_out"`
	InStatus           string  `gorm:"column:in_status" json:"in_status"`
	OutStatus          string  `gorm:"column:out_status" json:"out_status"`
	MinutesPlayed      int     `gorm:"column:minutes_played" json:"minutes_played"`
}

func (MatchBreakdown) TableName() string { return "match_breakdown" }

type Shot struct {
	ShotID     uint                        `gorm:"column:shot_id;primaryKey;autoIncrement" json:"shot_id"`
	MatchID    uint                        `gorm:"column:match_id;not null;index" json:"match_id"`
	XG         float64                     `gorm:"column:xg" json:"xg"`
	PSxG       float64                     `gorm:"column:psxg" json:"psxg"`
	Outcome    int                         `gorm:"column:outcome" json:"outcome"`
	ShooterID  string                      `gorm:"column:shooter_id;not null" json:"shooter_id"`
	AssisterID string                      `gorm:"column:assister_id" json:"assister_id"`
	TeamID     uint                        `gorm:"column:team_id;not null" json:"team_id"`
	GkID       string                      `gorm:"column:GK_id" json:"gk_id"`
	OffPlayers datatypes.JSONSlice[string] `gorm:"column:off_players" json:"off_players"`
	DefPlayers datatypes.JSONSlice[string] `gorm:"column:def_players" json:"def_players"`
	MatchState float64                     `gorm:"column:match_state" json:"match_state"`
	PlayerDif  float64                     `gorm:"column:player_dif" json:"player_dif"`
	ShotType   string                      `gorm:"column:shot_type" json:"shot_type"`

	// Rating-derived fields, recomputed whenever upstream coefficients change.
	TotalPLSQA *float64 `gorm:"column:total_PLSQA" json:"total_plsqa"`
	ShooterSQ  *float64 `gorm:"column:shooter_SQ" json:"shooter_sq"`
	AssisterSQ *float64 `gorm:"column:assister_SQ" json:"assister_sq"`
	RSQ        *float64 `gorm:"column:RSQ" json:"rsq"`
	ShooterA   *float64 `gorm:"column:shooter_A" json:"shooter_a"`
	GkA        *float64 `gorm:"column:GK_A" json:"gk_a"`
}

func (Shot) TableName() string { return "shots_data" }

// PlayerRating is the training pipeline's per-player record. It is truncated
// and rebuilt from match_detail and match_breakdown on every training pass;
// simulations only ever read a snapshot of it.
type PlayerRating struct {
	PlayerID           string                           `gorm:"column:player_id;primaryKey" json:"player_id"`
	CurrentTeam        uint                             `gorm:"column:current_team;index" json:"current_team"`
	MinutesPlayed      int                              `gorm:"column:minutes_played" json:"minutes_played"`
	Headers            int                              `gorm:"column:headers" json:"headers"`
	Footers            int                              `gorm:"column:footers" json:"footers"`
	KeyPasses          int                              `gorm:"column:key_passes" json:"key_passes"`
	NonAssistedFooters int                              `gorm:"column:non_assisted_footers" json:"non_assisted_footers"`
	HxG                float64                          `gorm:"column:hxg" json:"hxg"`
	FxG                float64                          `gorm:"column:fxg" json:"fxg"`
	KpHxG              float64                          `gorm:"column:kp_hxg" json:"kp_hxg"`
	KpFxG              float64                          `gorm:"column:kp_fxg" json:"kp_fxg"`
	HPSxG              float64                          `gorm:"column:hpsxg" json:"hpsxg"`
	FPSxG              float64                          `gorm:"column:fpsxg" json:"fpsxg"`
	GkPSxG             float64                          `gorm:"column:gk_psxg" json:"gk_psxg"`
	GkGA               int                              `gorm:"column:gk_ga" json:"gk_ga"`
	FoulsCommitted     int                              `gorm:"column:fouls_committed" json:"fouls_committed"`
	FoulsDrawn         int                              `gorm:"column:fouls_drawn" json:"fouls_drawn"`
	YellowCards        int                              `gorm:"column:yellow_cards" json:"yellow_cards"`
	RedCards           int                              `gorm:"column:red_cards" json:"red_cards"`
	OffShCoef          float64                          `gorm:"column:off_sh_coef" json:"off_sh_coef"`
	DefShCoef          float64                          `gorm:"column:def_sh_coef" json:"def_sh_coef"`
	OffHeadersCoef     float64                          `gorm:"column:off_headers_coef" json:"off_headers_coef"`
	DefHeadersCoef     float64                          `gorm:"column:def_headers_coef" json:"def_headers_coef"`
	OffFootersCoef     float64                          `gorm:"column:off_footers_coef" json:"off_footers_coef"`
	DefFootersCoef     float64                          `gorm:"column:def_footers_coef" json:"def_footers_coef"`
	OffHxGCoef         float64                          `gorm:"column:off_hxg_coef" json:"off_hxg_coef"`
	DefHxGCoef         float64                          `gorm:"column:def_hxg_coef" json:"def_hxg_coef"`
	OffFxGCoef         float64                          `gorm:"column:off_fxg_coef" json:"off_fxg_coef"`
	DefFxGCoef         float64                          `gorm:"column:def_fxg_coef" json:"def_fxg_coef"`
	InStatus           datatypes.JSONType[map[string]int] `gorm:"column:in_status" json:"in_status"`
	OutStatus          datatypes.JSONType[map[string]int] `gorm:"column:out_status" json:"out_status"`
	SubIn              datatypes.JSONSlice[int]         `gorm:"column:sub_in" json:"sub_in"`
	SubOut             datatypes.JSONSlice[int]         `gorm:"column:sub_out" json:"sub_out"`
	IsGoalkeeper       bool                             `gorm:"column:is_goalkeeper" json:"is_goalkeeper"`
}

func (PlayerRating) TableName() string { return "players_data" }

type RefereeStats struct {
	RefereeName   string  `gorm:"column:referee_name;primaryKey" json:"referee_name"`
	Fouls         float64 `gorm:"column:fouls" json:"fouls"`
	YellowCards   float64 `gorm:"column:yellow_cards" json:"yellow_cards"`
	RedCards      float64 `gorm:"column:red_cards" json:"red_cards"`
	MatchesPlayed int     `gorm:"column:matches_played" json:"matches_played"`
}

func (RefereeStats) TableName() string { return "referee_data" }

type Schedule struct {
	ScheduleID       uint                        `gorm:"column:schedule_id;primaryKey;autoIncrement" json:"schedule_id"`
	HomeTeamID       uint                        `gorm:"column:home_team_id;not null" json:"home_team_id"`
	AwayTeamID       uint                        `gorm:"column:away_team_id;not null" json:"away_team_id"`
	Date             time.Time                   `gorm:"column:date;not null" json:"date"`
	LeagueID         uint                        `gorm:"column:league_id;not null" json:"league_id"`
	RefereeName      string                      `gorm:"column:referee_name" json:"referee_name"`
	HomeElevationDif float64                     `gorm:"column:home_elevation_dif" json:"home_elevation_dif"`
	AwayElevationDif float64                     `gorm:"column:away_elevation_dif" json:"away_elevation_dif"`
	AwayTravel       float64                     `gorm:"column:away_travel" json:"away_travel"`
	HomeRestDays     int                         `gorm:"column:home_rest_days" json:"home_rest_days"`
	AwayRestDays     int                         `gorm:"column:away_rest_days" json:"away_rest_days"`
	TemperatureC     float64                     `gorm:"column:temperature" json:"temperature_c"`
	IsRaining        bool                        `gorm:"column:is_raining" json:"is_raining"`
	HomePlayers      datatypes.JSONSlice[string] `gorm:"column:home_players" json:"home_players"`
	AwayPlayers      datatypes.JSONSlice[string] `gorm:"column:away_players" json:"away_players"`
}

func (Schedule) TableName() string { return "schedule_data" }

// SimShot is a single sampled shot event; simulation_data for a schedule is
// replaced wholesale on each run.
type SimShot struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SimID      int    `gorm:"column:sim_id;not null;index" json:"sim_id"`
	ScheduleID uint   `gorm:"column:schedule_id;not null;index" json:"schedule_id"`
	Minute     int    `gorm:"column:minute" json:"minute"`
	Shooter    string `gorm:"column:shooter" json:"shooter"`
	Squad      uint   `gorm:"column:squad" json:"squad"`
	Outcome    int    `gorm:"column:outcome" json:"outcome"`
	BodyPart   string `gorm:"column:body_part" json:"body_part"`
	Assister   string `gorm:"column:assister" json:"assister"`
}

func (SimShot) TableName() string { return "simulation_data" }
