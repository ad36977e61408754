package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoundType decides rebuy and bounty rules for a round
type RoundType string

const (
	RoundRegular   RoundType = "regular"
	RoundFreezeout RoundType = "freezeout"
	RoundKnockout  RoundType = "knockout"
)

// Valid reports whether t is one of the known round types
func (t RoundType) Valid() bool {
	switch t {
	case RoundRegular, RoundFreezeout, RoundKnockout:
		return true
	}
	return false
}

// RoundStatus is the lifecycle state persisted on a round
type RoundStatus string

const (
	StatusScheduled RoundStatus = "scheduled"
	StatusActive    RoundStatus = "active"
	StatusCompleted RoundStatus = "completed"
)

// Round is one tournament session of the season, including its clock snapshot
type Round struct {
	ID            int64           `json:"id"`
	RoundNumber   int             `json:"round_number"`
	Type          RoundType       `json:"round_type"`
	BuyIn         decimal.Decimal `json:"buy_in_value"`
	RebuyValue    decimal.Decimal `json:"rebuy_value"`
	KnockoutValue decimal.Decimal `json:"knockout_value"`
	IsFinalTable  bool            `json:"is_final_table"`
	Status        RoundStatus     `json:"status"`

	IsStarted            bool       `json:"is_started"`
	CurrentLevel         int        `json:"current_level"`
	IsPaused             bool       `json:"is_paused"`
	TimerStartedAt       *time.Time `json:"timer_started_at"`
	TimeRemainingSeconds int        `json:"time_remaining_seconds"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// FinalTableCut is the amount withheld for the final table, fixed at completion.
	FinalTableCut decimal.NullDecimal `json:"final_table_cut"`
}

// EffectiveRebuyValue is the rebuy price, defaulting to half the buy-in when unset.
func (r Round) EffectiveRebuyValue() decimal.Decimal {
	if r.RebuyValue.IsPositive() {
		return r.RebuyValue
	}
	return r.BuyIn.Div(decimal.NewFromInt(2))
}

// SeatedPlayer is a player's live state while a round is active
type SeatedPlayer struct {
	PlayerID         int64           `json:"player_id"`
	IsActive         bool            `json:"is_active"`
	Position         *int            `json:"position"`
	EliminatedAt     *time.Time      `json:"eliminated_at"`
	EliminatedBy     *int64          `json:"eliminated_by,omitempty"`
	BountyPaid       decimal.Decimal `json:"bounty_paid"` // credited to EliminatedBy
	Rebuys           int             `json:"rebuys"`
	KnockoutEarnings decimal.Decimal `json:"knockout_earnings"`
}

// RoundResult is the immutable outcome of one player in a completed round
type RoundResult struct {
	RoundID          int64           `json:"round_id"`
	PlayerID         int64           `json:"player_id"`
	Position         int             `json:"position"`
	Points           int             `json:"points"`
	Rebuys           int             `json:"rebuys"`
	KnockoutEarnings decimal.Decimal `json:"knockout_earnings"`
	Prize            decimal.Decimal `json:"prize"`
}

// CompletedRound pairs a completed round with its results
type CompletedRound struct {
	Round   Round         `json:"round"`
	Results []RoundResult `json:"results"`
}

// EventType names an entry in the round event log
type EventType string

const (
	EventRoundCreated     EventType = "round_created"
	EventRoundActivated   EventType = "round_activated"
	EventRoundStarted     EventType = "round_started"
	EventClockPaused      EventType = "clock_paused"
	EventClockResumed     EventType = "clock_resumed"
	EventLevelChanged     EventType = "level_changed"
	EventPlayerEliminated EventType = "player_eliminated"
	EventPlayerRebought   EventType = "player_rebought"
	EventPlayerRestored   EventType = "player_restored"
	EventPlayerRemoved    EventType = "player_removed"
	EventRoundCompleted   EventType = "round_completed"
)

// RoundEvent is an append-only record of a state change on a round
type RoundEvent struct {
	ID           string          `json:"id"`
	RoundID      int64           `json:"round_id"`
	Type         EventType       `json:"type"`
	PlayerID     *int64          `json:"player_id,omitempty"`
	EliminatorID *int64          `json:"eliminator_id,omitempty"`
	Position     *int            `json:"position,omitempty"`
	Level        *int            `json:"level,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TournamentSettings is the season configuration consumed by the round engine.
// The final-table cut and the prize shares each accept two forms; services
// translate them into a single representation before use.
type TournamentSettings struct {
	BlindLevels           []string    `json:"blind_levels"`
	BreakMarker           string      `json:"break_marker"`
	LevelMinutes          int         `json:"level_minutes"`
	LevelMinutesOverrides map[int]int `json:"level_minutes_overrides,omitempty"`

	DefaultBuyIn         decimal.Decimal `json:"default_buy_in"`
	DefaultKnockoutValue decimal.Decimal `json:"default_knockout_value"`
	MaxRebuys            int             `json:"max_rebuys"`
	RebuyDeadlineLevel   int             `json:"rebuy_deadline_level"`

	FinalTablePercentage decimal.Decimal `json:"final_table_percentage"`
	FinalTableFixedValue decimal.Decimal `json:"final_table_fixed_value"`
	SingleTournament     bool            `json:"single_tournament"`

	PrizeDistribution     []decimal.Decimal `json:"prize_distribution,omitempty"`
	FirstPlacePercentage  decimal.Decimal   `json:"first_place_percentage"`
	SecondPlacePercentage decimal.Decimal   `json:"second_place_percentage"`
	ThirdPlacePercentage  decimal.Decimal   `json:"third_place_percentage"`
	FourthPlacePercentage decimal.Decimal   `json:"fourth_place_percentage"`
	FifthPlacePercentage  decimal.Decimal   `json:"fifth_place_percentage"`

	DiscardCount      int `json:"discard_count"`
	DiscardAfterRound int `json:"discard_after_round"`

	FinalTableTopN           int             `json:"final_table_top_n"`
	FinalTableFirstPlacePct  decimal.Decimal `json:"final_table_first_place_percentage"`
	FinalTableSecondPlacePct decimal.Decimal `json:"final_table_second_place_percentage"`
	FinalTableThirdPlacePct  decimal.Decimal `json:"final_table_third_place_percentage"`
	FinalTableFourthPlacePct decimal.Decimal `json:"final_table_fourth_place_percentage"`
	FinalTableFifthPlacePct  decimal.Decimal `json:"final_table_fifth_place_percentage"`

	ScoringTable map[int]int `json:"scoring_table"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
