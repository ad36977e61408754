// Package elimination turns eliminations, rebuys, restores and no-show
// removals into a finishing order for the players seated in a round.
package elimination

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/abrezinsky/pokerleague/internal/errors"
	"github.com/abrezinsky/pokerleague/internal/models"
)

// DefaultMaxRebuys is the per-player rebuy cap when settings leave it unset.
const DefaultMaxRebuys = 2

// RebuyPolicy is decided by the caller from the clock and settings.
type RebuyPolicy struct {
	Open      bool
	MaxRebuys int
}

// Outcome describes the effect of one elimination.
type Outcome struct {
	PlayerID     int64           `json:"player_id"`
	Position     int             `json:"position"`
	EliminatorID *int64          `json:"eliminator_id,omitempty"`
	Bounty       decimal.Decimal `json:"bounty"`
	ChampionID   *int64          `json:"champion_id,omitempty"`
	// CompletionDue is set only on the elimination that takes the active count to zero.
	CompletionDue bool `json:"completion_due"`
}

// RestoreOutcome describes the effect of undoing one elimination.
type RestoreOutcome struct {
	PlayerID         int64  `json:"player_id"`
	PreviousPosition int    `json:"previous_position"`
	ReopenedChampion *int64 `json:"reopened_champion,omitempty"`
}

// Tracker holds the seat state of one round. It is not safe for concurrent
// use; callers serialize access per round.
type Tracker struct {
	roundType models.RoundType
	seats     []models.SeatedPlayer
	index     map[int64]int
}

// New seats every player active with no position.
func New(roundType models.RoundType, playerIDs []int64) (*Tracker, error) {
	if len(playerIDs) == 0 {
		return nil, errors.Validation("at least one player must be seated")
	}
	seats := make([]models.SeatedPlayer, 0, len(playerIDs))
	seen := make(map[int64]bool, len(playerIDs))
	for _, id := range playerIDs {
		if seen[id] {
			return nil, errors.Validationf("player %d is seated twice", id)
		}
		seen[id] = true
		seats = append(seats, models.SeatedPlayer{PlayerID: id, IsActive: true})
	}
	return FromSnapshot(roundType, seats), nil
}

// FromSnapshot rebuilds a tracker from persisted seats.
func FromSnapshot(roundType models.RoundType, seats []models.SeatedPlayer) *Tracker {
	t := &Tracker{
		roundType: roundType,
		seats:     copySeats(seats),
		index:     make(map[int64]int, len(seats)),
	}
	for i, s := range t.seats {
		t.index[s.PlayerID] = i
	}
	return t
}

// Snapshot returns a copy of the seats in seating order.
func (t *Tracker) Snapshot() []models.SeatedPlayer {
	return copySeats(t.seats)
}

// SeatedCount is the number of players in the round, excluding removed no-shows.
func (t *Tracker) SeatedCount() int {
	return len(t.seats)
}

// ActiveCount is the number of players still in the tournament.
func (t *Tracker) ActiveCount() int {
	n := 0
	for _, s := range t.seats {
		if s.IsActive {
			n++
		}
	}
	return n
}

// NextPosition is the finishing position the next eliminated player receives.
// It always equals the active count.
func (t *Tracker) NextPosition() int {
	return t.ActiveCount()
}

// TotalRebuys sums rebuys across all seats.
func (t *Tracker) TotalRebuys() int {
	n := 0
	for _, s := range t.seats {
		n += s.Rebuys
	}
	return n
}

// Unplaced returns the players that have no finishing position yet.
func (t *Tracker) Unplaced() []int64 {
	var ids []int64
	for _, s := range t.seats {
		if s.Position == nil {
			ids = append(ids, s.PlayerID)
		}
	}
	return ids
}

// Seat returns the seat of playerID.
func (t *Tracker) Seat(playerID int64) (models.SeatedPlayer, bool) {
	i, ok := t.index[playerID]
	if !ok {
		return models.SeatedPlayer{}, false
	}
	return copySeats(t.seats[i : i+1])[0], true
}

func (t *Tracker) seat(playerID int64) (*models.SeatedPlayer, error) {
	i, ok := t.index[playerID]
	if !ok {
		return nil, errors.NotFoundf("player %d is not seated in this round", playerID)
	}
	return &t.seats[i], nil
}

// Eliminate knocks playerID out of the round.
//
// With exactly two players left this is the final hand: the eliminated player
// finishes second, the survivor first, and the survivor collects the bounty
// whether or not an eliminator was given. Otherwise the player takes the next
// position and, in knockout rounds, an eliminator is required.
func (t *Tracker) Eliminate(playerID int64, eliminatorID *int64, bounty decimal.Decimal, at time.Time) (Outcome, error) {
	p, err := t.seat(playerID)
	if err != nil {
		return Outcome{}, err
	}
	if !p.IsActive {
		if p.Position != nil {
			return Outcome{}, errors.InvalidTransitionf("player %d already finished in position %d", playerID, *p.Position)
		}
		return Outcome{}, errors.InvalidTransitionf("player %d is not active", playerID)
	}
	if bounty.IsNegative() {
		return Outcome{}, errors.InvalidInput("bounty must not be negative")
	}

	var eliminator *models.SeatedPlayer
	if eliminatorID != nil {
		if *eliminatorID == playerID {
			return Outcome{}, errors.InvalidInput("a player cannot eliminate themselves")
		}
		eliminator, err = t.seat(*eliminatorID)
		if err != nil {
			return Outcome{}, err
		}
		if !eliminator.IsActive {
			return Outcome{}, errors.InvalidInputf("eliminator %d is no longer active", *eliminatorID)
		}
	}

	active := t.ActiveCount()
	when := at

	if active == 2 {
		survivor := t.otherActive(playerID)
		survivorID := survivor.PlayerID
		second, first := 2, 1

		p.IsActive = false
		p.Position = &second
		p.EliminatedAt = &when
		p.EliminatedBy = &survivorID
		p.BountyPaid = bounty

		survivor.IsActive = false
		survivor.Position = &first
		survivor.KnockoutEarnings = survivor.KnockoutEarnings.Add(bounty)

		return Outcome{
			PlayerID:      playerID,
			Position:      second,
			EliminatorID:  &survivorID,
			Bounty:        bounty,
			ChampionID:    &survivorID,
			CompletionDue: true,
		}, nil
	}

	if t.roundType == models.RoundKnockout && active > 2 && eliminator == nil {
		return Outcome{}, errors.MissingEliminator(playerID)
	}

	position := active
	p.IsActive = false
	p.Position = &position
	p.EliminatedAt = &when
	p.EliminatedBy = nil
	p.BountyPaid = decimal.Zero

	out := Outcome{PlayerID: playerID, Position: position}
	if eliminator != nil {
		id := eliminator.PlayerID
		p.EliminatedBy = &id
		p.BountyPaid = bounty
		eliminator.KnockoutEarnings = eliminator.KnockoutEarnings.Add(bounty)
		out.EliminatorID = &id
		out.Bounty = bounty
	}
	out.CompletionDue = active == 1
	return out, nil
}

func (t *Tracker) otherActive(playerID int64) *models.SeatedPlayer {
	for i := range t.seats {
		if t.seats[i].IsActive && t.seats[i].PlayerID != playerID {
			return &t.seats[i]
		}
	}
	return nil
}

// champion returns the winner of a played final hand, if any.
func (t *Tracker) champion() *models.SeatedPlayer {
	for i := range t.seats {
		s := &t.seats[i]
		if !s.IsActive && s.EliminatedAt == nil && s.Position != nil && *s.Position == 1 {
			return s
		}
	}
	return nil
}

// Rebuy records one rebuy for an active player.
func (t *Tracker) Rebuy(playerID int64, policy RebuyPolicy) (int, error) {
	if t.roundType != models.RoundRegular {
		return 0, errors.InvalidTransitionf("rebuys are not allowed in %s rounds", t.roundType)
	}
	if !policy.Open {
		return 0, errors.InvalidTransitionf("the rebuy period is over")
	}
	p, err := t.seat(playerID)
	if err != nil {
		return 0, err
	}
	if !p.IsActive {
		return 0, errors.InvalidTransitionf("player %d is not active", playerID)
	}
	limit := policy.MaxRebuys
	if limit <= 0 {
		limit = DefaultMaxRebuys
	}
	if p.Rebuys >= limit {
		return 0, errors.InvalidTransitionf("player %d reached the limit of %d rebuys", playerID, limit)
	}
	p.Rebuys++
	return p.Rebuys, nil
}

// Restore undoes the elimination of playerID. Players eliminated after it move
// one place down so positions stay contiguous, and the bounty paid for this
// elimination is taken back from whoever received it. After the final hand
// only the runner-up can be restored, which reopens the champion as well.
func (t *Tracker) Restore(playerID int64) (RestoreOutcome, error) {
	p, err := t.seat(playerID)
	if err != nil {
		return RestoreOutcome{}, err
	}
	if p.IsActive || p.Position == nil {
		return RestoreOutcome{}, errors.InvalidTransitionf("player %d is not eliminated", playerID)
	}
	if p.EliminatedAt == nil {
		return RestoreOutcome{}, errors.InvalidTransitionf("player %d won the round; restore the runner-up instead", playerID)
	}

	pos := *p.Position
	out := RestoreOutcome{PlayerID: playerID, PreviousPosition: pos}

	if champ := t.champion(); champ != nil {
		if pos != 2 {
			return RestoreOutcome{}, errors.InvalidTransitionf("the final hand has been played; only the runner-up can be restored")
		}
		champ.IsActive = true
		champ.Position = nil
		champ.KnockoutEarnings = subtractFloor(champ.KnockoutEarnings, p.BountyPaid)
		id := champ.PlayerID
		out.ReopenedChampion = &id
	} else if p.EliminatedBy != nil {
		if e, err := t.seat(*p.EliminatedBy); err == nil {
			e.KnockoutEarnings = subtractFloor(e.KnockoutEarnings, p.BountyPaid)
		}
	}

	for i := range t.seats {
		q := &t.seats[i]
		if q.PlayerID == playerID || q.Position == nil || q.EliminatedAt == nil {
			continue
		}
		if *q.Position < pos {
			shifted := *q.Position + 1
			q.Position = &shifted
		}
	}

	p.IsActive = true
	p.Position = nil
	p.EliminatedAt = nil
	p.EliminatedBy = nil
	p.BountyPaid = decimal.Zero
	return out, nil
}

// Remove drops a no-show from the round. Eliminated players keep contiguous
// positions by moving one place up.
func (t *Tracker) Remove(playerID int64) error {
	p, err := t.seat(playerID)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return errors.InvalidTransitionf("player %d has already been eliminated; restore them first", playerID)
	}
	for _, s := range t.seats {
		if s.EliminatedBy != nil && *s.EliminatedBy == playerID {
			return errors.InvalidTransitionf("player %d has eliminated other players and cannot be removed", playerID)
		}
	}
	if t.ActiveCount() == 1 && len(t.seats) > 1 {
		return errors.InvalidTransitionf("player %d is the last active player", playerID)
	}

	i := t.index[playerID]
	t.seats = append(t.seats[:i], t.seats[i+1:]...)
	t.index = make(map[int64]int, len(t.seats))
	for j := range t.seats {
		t.index[t.seats[j].PlayerID] = j
		if q := &t.seats[j]; q.Position != nil {
			shifted := *q.Position - 1
			q.Position = &shifted
		}
	}
	return nil
}

func subtractFloor(a, b decimal.Decimal) decimal.Decimal {
	d := a.Sub(b)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func copySeats(seats []models.SeatedPlayer) []models.SeatedPlayer {
	out := make([]models.SeatedPlayer, len(seats))
	for i, s := range seats {
		c := s
		if s.Position != nil {
			v := *s.Position
			c.Position = &v
		}
		if s.EliminatedAt != nil {
			v := *s.EliminatedAt
			c.EliminatedAt = &v
		}
		if s.EliminatedBy != nil {
			v := *s.EliminatedBy
			c.EliminatedBy = &v
		}
		out[i] = c
	}
	return out
}
