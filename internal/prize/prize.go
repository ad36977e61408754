// Package prize computes round prize pools and per-position payouts.
//
// All amounts are decimals in whole currency units. Percentages are plain
// percent values (33.33 means 33.33%).
package prize

import (
	"github.com/shopspring/decimal"

	"github.com/abrezinsky/pokerleague/internal/errors"
	"github.com/abrezinsky/pokerleague/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// DefaultPercentages is used when no share is configured.
func DefaultPercentages() []decimal.Decimal {
	return []decimal.Decimal{decimal.NewFromInt(60), decimal.NewFromInt(30), decimal.NewFromInt(10)}
}

// Percentages picks the canonical ordered share list: the explicit list when it
// has a positive entry, else the per-place fields up to the last positive one,
// else DefaultPercentages.
func Percentages(list []decimal.Decimal, fields []decimal.Decimal) []decimal.Decimal {
	if anyPositive(list) {
		return append([]decimal.Decimal(nil), list...)
	}
	last := -1
	for i, f := range fields {
		if f.IsPositive() {
			last = i
		}
	}
	if last >= 0 {
		out := make([]decimal.Decimal, last+1)
		for i := 0; i <= last; i++ {
			if fields[i].IsPositive() {
				out[i] = fields[i]
			}
		}
		return out
	}
	return DefaultPercentages()
}

func anyPositive(values []decimal.Decimal) bool {
	for _, v := range values {
		if v.IsPositive() {
			return true
		}
	}
	return false
}

// CutPolicy is the final-table withholding applied to every regular round.
// A positive FixedValue takes precedence over Percentage.
type CutPolicy struct {
	Percentage       decimal.Decimal `json:"percentage"`
	FixedValue       decimal.Decimal `json:"fixed_value"`
	SingleTournament bool            `json:"single_tournament"`
}

// Entry is the money-relevant shape of a regular round.
type Entry struct {
	Type       models.RoundType
	BuyIn      decimal.Decimal
	RebuyValue decimal.Decimal
	Seated     int
	Rebuys     int
}

// EntryFor builds an Entry from a round, applying the rebuy default.
func EntryFor(round models.Round, seated, rebuys int) Entry {
	return Entry{
		Type:       round.Type,
		BuyIn:      round.BuyIn,
		RebuyValue: round.EffectiveRebuyValue(),
		Seated:     seated,
		Rebuys:     rebuys,
	}
}

// Pool is the money collected by a round.
type Pool struct {
	TotalEntries int             `json:"total_entries"`
	Gross        decimal.Decimal `json:"gross_pool"`
	Cut          decimal.Decimal `json:"final_table_cut"`
	Net          decimal.Decimal `json:"net_pool"`
}

// Cut returns the final-table contribution of one regular round.
func Cut(e Entry, policy CutPolicy) decimal.Decimal {
	if policy.SingleTournament {
		return decimal.Zero
	}
	entries := decimal.NewFromInt(int64(e.Seated + e.Rebuys))
	if policy.FixedValue.IsPositive() {
		mult := one
		if e.Type == models.RoundFreezeout {
			mult = decimal.NewFromInt(2)
		}
		return policy.FixedValue.Mul(mult).Mul(entries)
	}
	return gross(e).Mul(policy.Percentage).Div(hundred).Round(0)
}

func gross(e Entry) decimal.Decimal {
	return e.BuyIn.Mul(decimal.NewFromInt(int64(e.Seated))).
		Add(e.RebuyValue.Mul(decimal.NewFromInt(int64(e.Rebuys))))
}

// ComputePool returns gross, cut and net for a regular round.
func ComputePool(e Entry, policy CutPolicy) Pool {
	g := gross(e)
	c := Cut(e, policy)
	net := g.Sub(c)
	if net.IsNegative() {
		net = decimal.Zero
	}
	return Pool{
		TotalEntries: e.Seated + e.Rebuys,
		Gross:        g,
		Cut:          c,
		Net:          net,
	}
}

// Share returns round(net × pct / 100).
func Share(net, pct decimal.Decimal) decimal.Decimal {
	return net.Mul(pct).Div(hundred).Round(0)
}

// Placement is a finishing position known so far.
type Placement struct {
	PlayerID int64
	Position int
}

// Payout is the computed prize of one paid position.
type Payout struct {
	Position   int             `json:"position"`
	PlayerID   int64           `json:"player_id"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// Distribution is a payout proposal. Amounts and Dealer stay editable until
// the round is completed; CheckBalance is the gate before persisting.
type Distribution struct {
	Pool    Pool            `json:"pool"`
	Payouts []Payout        `json:"payouts"`
	Dealer  decimal.Decimal `json:"dealer"`
}

// Total sums the payout amounts.
func (d Distribution) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range d.Payouts {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Difference returns total + dealer − net.
func Difference(total, dealer, net decimal.Decimal) decimal.Decimal {
	return total.Add(dealer).Sub(net)
}

// CheckBalance fails with ImbalancedDistribution unless |total + dealer − net| < 1.
func CheckBalance(total, dealer, net decimal.Decimal) error {
	diff := Difference(total, dealer, net)
	if diff.Abs().LessThan(one) {
		return nil
	}
	return errors.ImbalancedDistributionf("prizes %s plus dealer %s differ from net pool %s by %s",
		total.String(), dealer.String(), net.String(), diff.String())
}

func byPosition(placements []Placement) map[int]int64 {
	m := make(map[int]int64, len(placements))
	for _, p := range placements {
		m[p.Position] = p.PlayerID
	}
	return m
}

// Regular distributes the net pool of a regular round over the positions in
// percentages. Paid positions that exist in the round must all be assigned.
func Regular(e Entry, policy CutPolicy, percentages []decimal.Decimal, placements []Placement) (Distribution, error) {
	pool := ComputePool(e, policy)
	placed := byPosition(placements)

	dist := Distribution{Pool: pool}
	for i, pct := range percentages {
		position := i + 1
		if position > e.Seated {
			break
		}
		if !pct.IsPositive() {
			continue
		}
		playerID, ok := placed[position]
		if !ok {
			return Distribution{}, errors.IncompletePositionsf("position %d has not been decided", position)
		}
		dist.Payouts = append(dist.Payouts, Payout{
			Position:   position,
			PlayerID:   playerID,
			Percentage: pct,
			Amount:     Share(pool.Net, pct),
		})
	}
	return dist, nil
}

// FinalTable distributes the season pot. Positions 1 to 3 must be decided;
// 4th and 5th are paid only when those positions exist.
func FinalTable(pot decimal.Decimal, percentages []decimal.Decimal, placements []Placement) (Distribution, error) {
	placed := byPosition(placements)
	for position := 1; position <= 3; position++ {
		if _, ok := placed[position]; !ok {
			return Distribution{}, errors.IncompletePositionsf("final table position %d has not been decided", position)
		}
	}

	dist := Distribution{Pool: Pool{Gross: pot, Net: pot}}
	for i, pct := range percentages {
		position := i + 1
		if position > 5 {
			break
		}
		playerID, ok := placed[position]
		if !ok || !pct.IsPositive() {
			continue
		}
		dist.Payouts = append(dist.Payouts, Payout{
			Position:   position,
			PlayerID:   playerID,
			Percentage: pct,
			Amount:     Share(pot, pct),
		})
	}
	return dist, nil
}
