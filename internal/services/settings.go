package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/abrezinsky/pokerleague/internal/clock"
	"github.com/abrezinsky/pokerleague/internal/elimination"
	"github.com/abrezinsky/pokerleague/internal/errors"
	"github.com/abrezinsky/pokerleague/internal/logger"
	"github.com/abrezinsky/pokerleague/internal/models"
	"github.com/abrezinsky/pokerleague/internal/prize"
	"github.com/abrezinsky/pokerleague/internal/ranking"
	"github.com/abrezinsky/pokerleague/internal/repository"
	"github.com/abrezinsky/pokerleague/internal/scoring"
)

const (
	settingTournament   = "tournament_settings"
	settingBaseURL      = "base_url"
	settingPollInterval = "poll_interval_seconds"

	defaultPollInterval = 5
)

// DefaultTournamentSettings returns the settings used until an admin saves their own
func DefaultTournamentSettings() models.TournamentSettings {
	return models.TournamentSettings{
		BlindLevels: []string{
			"25/50", "50/100", "75/150", "100/200", "Break",
			"150/300", "200/400", "300/600", "400/800", "Break",
			"500/1000", "700/1400", "1000/2000", "1500/3000", "2000/4000",
		},
		BreakMarker:              "break",
		LevelMinutes:             15,
		DefaultBuyIn:             decimal.NewFromInt(50),
		DefaultKnockoutValue:     decimal.NewFromInt(10),
		MaxRebuys:                elimination.DefaultMaxRebuys,
		FinalTablePercentage:     decimal.NewFromInt(10),
		FirstPlacePercentage:     decimal.NewFromInt(60),
		SecondPlacePercentage:    decimal.NewFromInt(30),
		ThirdPlacePercentage:     decimal.NewFromInt(10),
		FinalTableTopN:           9,
		FinalTableFirstPlacePct:  decimal.NewFromInt(50),
		FinalTableSecondPlacePct: decimal.NewFromInt(30),
		FinalTableThirdPlacePct:  decimal.NewFromInt(20),
		ScoringTable:             scoring.Default(),
	}
}

// TournamentConfig is the canonical form of TournamentSettings consumed by the
// round engine: one ladder, one percentage list per round kind, one cut policy.
type TournamentConfig struct {
	Settings              models.TournamentSettings `json:"settings"`
	Ladder                clock.Ladder              `json:"ladder"`
	Percentages           []decimal.Decimal         `json:"percentages"`
	FinalTablePercentages []decimal.Decimal         `json:"final_table_percentages"`
	Cut                   prize.CutPolicy           `json:"cut"`
	Scoring               scoring.Table             `json:"scoring"`
	Ranking               ranking.Policy            `json:"-"`
	MaxRebuys             int                       `json:"max_rebuys"`
	RebuyDeadlineLevel    int                       `json:"rebuy_deadline_level"`
}

// Resolve translates settings into a TournamentConfig
func Resolve(s models.TournamentSettings) TournamentConfig {
	cut := prize.CutPolicy{SingleTournament: s.SingleTournament}
	if s.FinalTableFixedValue.IsPositive() {
		cut.FixedValue = s.FinalTableFixedValue
	} else {
		cut.Percentage = s.FinalTablePercentage
	}

	table := scoring.Table(s.ScoringTable)
	if len(table) == 0 {
		table = scoring.Default()
	}

	maxRebuys := s.MaxRebuys
	if maxRebuys <= 0 {
		maxRebuys = elimination.DefaultMaxRebuys
	}

	return TournamentConfig{
		Settings: s,
		Ladder:   clock.BuildLadder(s.BlindLevels, s.BreakMarker, s.LevelMinutes, s.LevelMinutesOverrides),
		Percentages: prize.Percentages(s.PrizeDistribution, []decimal.Decimal{
			s.FirstPlacePercentage, s.SecondPlacePercentage, s.ThirdPlacePercentage,
			s.FourthPlacePercentage, s.FifthPlacePercentage,
		}),
		FinalTablePercentages: prize.Percentages(nil, []decimal.Decimal{
			s.FinalTableFirstPlacePct, s.FinalTableSecondPlacePct, s.FinalTableThirdPlacePct,
			s.FinalTableFourthPlacePct, s.FinalTableFifthPlacePct,
		}),
		Cut:     cut,
		Scoring: table,
		Ranking: ranking.Policy{
			DiscardCount:      s.DiscardCount,
			DiscardAfterRound: s.DiscardAfterRound,
			Cut:               cut,
			FinalTableTopN:    s.FinalTableTopN,
		},
		MaxRebuys:          maxRebuys,
		RebuyDeadlineLevel: s.RebuyDeadlineLevel,
	}
}

// RebuysOpen decides whether the rebuy period is still running at level.
// An explicit deadline level wins; otherwise rebuys close at the first break.
func (c TournamentConfig) RebuysOpen(level int) bool {
	if c.RebuyDeadlineLevel > 0 {
		return level < c.RebuyDeadlineLevel
	}
	if first := c.Ladder.FirstBreak(); first >= 0 {
		return level < first
	}
	return true
}

// ValidateTournamentSettings checks settings before they are saved
func ValidateTournamentSettings(s models.TournamentSettings) error {
	if len(s.BlindLevels) == 0 {
		return errors.Validation("at least one blind level is required")
	}
	if s.LevelMinutes <= 0 {
		return errors.Validation("level minutes must be positive")
	}
	for level, minutes := range s.LevelMinutesOverrides {
		if level < 0 || level >= len(s.BlindLevels) {
			return errors.Validationf("duration override for unknown level %d", level)
		}
		if minutes <= 0 {
			return errors.Validationf("duration override for level %d must be positive", level)
		}
	}
	if s.FinalTablePercentage.IsPositive() && s.FinalTableFixedValue.IsPositive() {
		return errors.Validation("final table cut takes either a percentage or a fixed value, not both")
	}
	if s.FinalTablePercentage.IsNegative() || s.FinalTablePercentage.GreaterThan(decimal.NewFromInt(100)) {
		return errors.Validation("final table percentage must be between 0 and 100")
	}
	for name, v := range map[string]decimal.Decimal{
		"final table fixed value": s.FinalTableFixedValue,
		"default buy-in":          s.DefaultBuyIn,
		"default knockout value":  s.DefaultKnockoutValue,
	} {
		if v.IsNegative() {
			return errors.Validationf("%s must not be negative", name)
		}
	}
	if s.MaxRebuys < 0 || s.RebuyDeadlineLevel < 0 {
		return errors.Validation("rebuy limits must not be negative")
	}
	if s.DiscardCount < 0 || s.DiscardAfterRound < 0 || s.FinalTableTopN < 0 {
		return errors.Validation("discard and final table counts must not be negative")
	}
	if position, ok := scoring.Table(s.ScoringTable).Validate(); !ok {
		return errors.Validationf("scoring table entry for position %d is invalid", position)
	}

	cfg := Resolve(s)
	if err := checkPercentages("prize distribution", cfg.Percentages); err != nil {
		return err
	}
	return checkPercentages("final table distribution", cfg.FinalTablePercentages)
}

func checkPercentages(name string, pcts []decimal.Decimal) error {
	sum := decimal.Zero
	for _, p := range pcts {
		if p.IsNegative() {
			return errors.Validationf("%s has a negative share", name)
		}
		sum = sum.Add(p)
	}
	if sum.GreaterThan(decimal.NewFromInt(100)) {
		return errors.Validationf("%s adds up to %s%%", name, sum.String())
	}
	return nil
}

// SettingsService handles settings-related business logic
type SettingsService struct {
	log  logger.Logger
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// GetTournamentSettings returns the saved settings, or the defaults if none were saved
func (s *SettingsService) GetTournamentSettings(ctx context.Context) (models.TournamentSettings, error) {
	value, err := s.repo.GetSetting(ctx, settingTournament)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return DefaultTournamentSettings(), nil
		}
		return models.TournamentSettings{}, storeErr(err, "settings")
	}

	settings := DefaultTournamentSettings()
	settings.ScoringTable = nil
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		s.log.Error("Stored tournament settings are unreadable, using defaults", "error", err)
		return DefaultTournamentSettings(), nil
	}
	if len(settings.ScoringTable) == 0 {
		settings.ScoringTable = scoring.Default()
	}
	return settings, nil
}

// UpdateTournamentSettings validates and saves settings
func (s *SettingsService) UpdateTournamentSettings(ctx context.Context, settings models.TournamentSettings) error {
	if err := ValidateTournamentSettings(settings); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return errors.Internal(err)
	}
	if err := s.repo.SetSetting(ctx, settingTournament, string(data)); err != nil {
		return storeErr(err, "settings")
	}
	s.log.Info("Tournament settings updated", "levels", len(settings.BlindLevels))
	return nil
}

// Config returns the resolved configuration for the round engine
func (s *SettingsService) Config(ctx context.Context) (TournamentConfig, error) {
	settings, err := s.GetTournamentSettings(ctx)
	if err != nil {
		return TournamentConfig{}, err
	}
	return Resolve(settings), nil
}

// GetBaseURL returns the application base URL
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	value, err := s.repo.GetSetting(ctx, settingBaseURL)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return "", nil // not yet configured
		}
		return "", storeErr(err, "setting")
	}
	return value, nil
}

// SetBaseURL saves the application base URL
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	return storeErr(s.repo.SetSetting(ctx, settingBaseURL, url), "setting")
}

// GetPollInterval returns the observer refresh interval in seconds
func (s *SettingsService) GetPollInterval(ctx context.Context) (int, error) {
	value, err := s.repo.GetSetting(ctx, settingPollInterval)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return defaultPollInterval, nil
		}
		return 0, storeErr(err, "setting")
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return defaultPollInterval, nil
	}
	return seconds, nil
}

// SetPollInterval saves the observer refresh interval in seconds
func (s *SettingsService) SetPollInterval(ctx context.Context, seconds int) error {
	if seconds <= 0 || seconds > 60 {
		return errors.Validation("poll interval must be between 1 and 60 seconds")
	}
	return storeErr(s.repo.SetSetting(ctx, settingPollInterval, strconv.Itoa(seconds)), "setting")
}
