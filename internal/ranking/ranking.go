// Package ranking folds completed round results into season standings.
package ranking

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/abrezinsky/pokerleague/internal/models"
	"github.com/abrezinsky/pokerleague/internal/prize"
)

// Policy configures discards and the final-table pot.
type Policy struct {
	DiscardCount      int
	DiscardAfterRound int
	Cut               prize.CutPolicy
	FinalTableTopN    int
}

// Entry is one player's line in the standings.
type Entry struct {
	Rank               int             `json:"rank"`
	PlayerID           int64           `json:"player_id"`
	TotalPoints        int             `json:"total_points"`
	RoundPoints        map[int]int     `json:"round_points"`
	RoundsPlayed       int             `json:"rounds_played"`
	BestPosition       int             `json:"best_position"`
	AveragePosition    float64         `json:"average_position"`
	TotalPrize         decimal.Decimal `json:"total_prize"`
	TotalEntries       decimal.Decimal `json:"total_entries"`
	DiscardedRounds    []int           `json:"discarded_rounds"`
	PointsWithDiscards int             `json:"points_with_discards"`
}

// Standings is the full season table.
type Standings struct {
	Entries         []Entry         `json:"entries"`
	CompletedRounds int             `json:"completed_rounds"`
	DiscardsActive  bool            `json:"discards_active"`
	FinalTablePot   decimal.Decimal `json:"final_table_pot"`
	Qualifiers      []int64         `json:"final_table_qualifiers"`
}

type accumulator struct {
	entry       Entry
	positionSum int
}

// Compute builds the standings from every completed round. Final-table rounds
// are ignored. The result depends only on the input, so repeated calls over
// the same history agree exactly.
func Compute(rounds []models.CompletedRound, policy Policy) Standings {
	regular := make([]models.CompletedRound, 0, len(rounds))
	for _, cr := range rounds {
		if cr.Round.IsFinalTable || cr.Round.Status != models.StatusCompleted {
			continue
		}
		regular = append(regular, cr)
	}
	sort.SliceStable(regular, func(i, j int) bool {
		return regular[i].Round.RoundNumber < regular[j].Round.RoundNumber
	})

	players := make(map[int64]*accumulator)
	pot := decimal.Zero

	for _, cr := range regular {
		round := cr.Round
		rebuys := 0
		for _, res := range cr.Results {
			rebuys += res.Rebuys
			acc, ok := players[res.PlayerID]
			if !ok {
				acc = &accumulator{entry: Entry{
					PlayerID:     res.PlayerID,
					RoundPoints:  make(map[int]int),
					TotalPrize:   decimal.Zero,
					TotalEntries: decimal.Zero,
				}}
				players[res.PlayerID] = acc
			}
			e := &acc.entry
			e.RoundPoints[round.RoundNumber] = res.Points
			e.TotalPoints += res.Points
			e.RoundsPlayed++
			if e.BestPosition == 0 || (res.Position > 0 && res.Position < e.BestPosition) {
				e.BestPosition = res.Position
			}
			acc.positionSum += res.Position
			e.TotalPrize = e.TotalPrize.Add(res.Prize).Add(res.KnockoutEarnings)
			cost := round.BuyIn.Add(round.EffectiveRebuyValue().Mul(decimal.NewFromInt(int64(res.Rebuys))))
			e.TotalEntries = e.TotalEntries.Add(cost)
		}
		// rounds stored before the cut column existed fall back to their results
		if round.FinalTableCut.Valid {
			pot = pot.Add(round.FinalTableCut.Decimal)
		} else {
			pot = pot.Add(prize.Cut(prize.EntryFor(round, len(cr.Results), rebuys), policy.Cut))
		}
	}

	completed := len(regular)
	discards := policy.DiscardCount > 0 && completed >= policy.DiscardAfterRound
	roundNumbers := make([]int, completed)
	for i, cr := range regular {
		roundNumbers[i] = cr.Round.RoundNumber
	}

	entries := make([]Entry, 0, len(players))
	for _, acc := range players {
		e := acc.entry
		if e.RoundsPlayed > 0 {
			e.AveragePosition = math.Round(float64(acc.positionSum)/float64(e.RoundsPlayed)*100) / 100
		}
		e.DiscardedRounds = []int{}
		e.PointsWithDiscards = e.TotalPoints
		if discards {
			e.DiscardedRounds, e.PointsWithDiscards = applyDiscards(e.RoundPoints, roundNumbers, policy.DiscardCount)
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		pa, pb := a.TotalPoints, b.TotalPoints
		if discards {
			pa, pb = a.PointsWithDiscards, b.PointsWithDiscards
		}
		if pa != pb {
			return pa > pb
		}
		if a.BestPosition != b.BestPosition {
			return a.BestPosition < b.BestPosition
		}
		if a.RoundsPlayed != b.RoundsPlayed {
			return a.RoundsPlayed > b.RoundsPlayed
		}
		return a.PlayerID < b.PlayerID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return Standings{
		Entries:         entries,
		CompletedRounds: completed,
		DiscardsActive:  discards,
		FinalTablePot:   pot,
		Qualifiers:      Qualifiers(entries, policy.FinalTableTopN),
	}
}

// applyDiscards scores every completed round, counting rounds the player
// missed as zero, and drops the lowest n. Ties keep round order.
func applyDiscards(roundPoints map[int]int, roundNumbers []int, n int) ([]int, int) {
	type scored struct {
		round  int
		points int
	}
	vector := make([]scored, len(roundNumbers))
	for i, rn := range roundNumbers {
		vector[i] = scored{round: rn, points: roundPoints[rn]}
	}
	sort.SliceStable(vector, func(i, j int) bool {
		return vector[i].points < vector[j].points
	})

	if n > len(vector) {
		n = len(vector)
	}
	discarded := make([]int, 0, n)
	total := 0
	for i, s := range vector {
		if i < n {
			discarded = append(discarded, s.round)
			continue
		}
		total += s.points
	}
	sort.Ints(discarded)
	return discarded, total
}

// Qualifiers returns the player ids of the first n entries.
func Qualifiers(entries []Entry, n int) []int64 {
	if n <= 0 {
		return []int64{}
	}
	if n > len(entries) {
		n = len(entries)
	}
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		ids[i] = entries[i].PlayerID
	}
	return ids
}
