package entity

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidStatsRecord = errors.New("invalid stats record")

// StatsRecord is the remote service's aggregate for one agent. It is never computed locally.
type StatsRecord struct {
	GamesPlayed    int     `json:"games_played"`
	Wins           int     `json:"wins"`
	WinRatePercent float64 `json:"win_rate"`
	IsTrained      bool    `json:"model_trained"`
}

func (that StatsRecord) Validate() error {
	switch {
	case that.GamesPlayed < 0:
		return fmt.Errorf("%w: games played %d", ErrInvalidStatsRecord, that.GamesPlayed)
	case that.Wins < 0 || that.Wins > that.GamesPlayed:
		return fmt.Errorf("%w: wins %d of %d", ErrInvalidStatsRecord, that.Wins, that.GamesPlayed)
	case that.WinRatePercent < 0 || that.WinRatePercent > 100:
		return fmt.Errorf("%w: win rate %.2f", ErrInvalidStatsRecord, that.WinRatePercent)
	default:
		return nil
	}
}

// Stats maps every agent to its aggregate record.
type Stats map[AgentKind]StatsRecord

func (that Stats) Clone() Stats {
	if that == nil {
		return nil
	}

	clone := make(Stats, len(that))
	for kind, record := range that {
		clone[kind] = record
	}

	return clone
}

// OrderedKinds - known agents first in AgentKinds order, then any other keys sorted by name.
func (that Stats) OrderedKinds() []AgentKind {
	kinds := make([]AgentKind, 0, len(that))
	known := make(map[AgentKind]bool, len(that))

	for _, kind := range AgentKinds() {
		if _, ok := that[kind]; ok {
			kinds = append(kinds, kind)
			known[kind] = true
		}
	}

	extra := make([]AgentKind, 0)
	for kind := range that {
		if !known[kind] {
			extra = append(extra, kind)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(kinds, extra...)
}
