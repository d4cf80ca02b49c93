// Package ingest defines the raw-match boundary. Scrapers live behind the
// MatchIngestor interface; the training pipeline only sees raw records.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Side distinguishes the two teams in a raw record.
type Side int

const (
	Home Side = iota
	Away
)

type EventType int

const (
	EventGoal EventType = iota
	EventSub
	EventRed
)

// PlayerRef identifies a player inside one raw match, before the stable
// player id is derived.
type PlayerRef struct {
	Name  string
	Shirt int
}

// PlayerID derives the stable identifier "<name>_<shirt#>_<team initials>".
// Team initials are the uppercase first letters of each space-separated
// token in the team name.
func PlayerID(ref PlayerRef, teamName string) string {
	return fmt.Sprintf("%s_%d_%s", ref.Name, ref.Shirt, TeamInitials(teamName))
}

func TeamInitials(teamName string) string {
	var b strings.Builder
	for _, tok := range strings.Fields(teamName) {
		r := []rune(tok)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

type RawPlayer struct {
	Ref       PlayerRef
	Side      Side
	IsStarter bool
	IsGK      bool
}

// RawEvent is a goal, substitution or red card at a given minute. Goals and
// reds fill Player; subs fill Off and On.
type RawEvent struct {
	Minute int
	Side   Side
	Type   EventType
	Player PlayerRef
	Off    PlayerRef
	On     PlayerRef
}

type BodyPart int

const (
	Foot BodyPart = iota
	Head
)

type RawShot struct {
	Minute   int
	Side     Side
	Shooter  PlayerRef
	Assister *PlayerRef
	BodyPart BodyPart
	XG       float64
	PSxG     float64
	Goal     bool
}

// RawPlayerStat carries the per-player counting stats not derivable from the
// shot table.
type RawPlayerStat struct {
	Player         PlayerRef
	Side           Side
	KeyPasses      int
	FoulsCommitted int
	FoulsDrawn     int
	YellowCards    int
	RedCards       int
	GkPSxG         float64
	GkGA           int
}

type RawMatch struct {
	LeagueID     uint
	HomeTeam     string
	AwayTeam     string
	URL          string
	Kickoff      time.Time
	Referee      string
	TotalMinutes int
	Players      []RawPlayer
	Events       []RawEvent
	Shots        []RawShot
	Stats        []RawPlayerStat
}

// TeamName returns the raw match's team name for a side.
func (m *RawMatch) TeamName(s Side) string {
	if s == Home {
		return m.HomeTeam
	}
	return m.AwayTeam
}

// MatchIngestor yields finished raw matches for a league that are not in the
// seen set, up to the given date.
type MatchIngestor interface {
	FetchMatches(ctx context.Context, leagueID uint, seen map[string]bool, upto time.Time) ([]RawMatch, error)
}
