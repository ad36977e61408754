package handlers

// LoginRequest represents an admin login
type LoginRequest struct {
	Password string `json:"password"`
}

// ActivateRoundRequest seats players into a scheduled round
type ActivateRoundRequest struct {
	PlayerIDs []int64 `json:"player_ids"`
}

// PausedRequest represents a request to pause or resume the clock
type PausedRequest struct {
	Paused *bool `json:"paused"`
}

// AdvanceRequest moves the clock one level forward (1) or back (-1)
type AdvanceRequest struct {
	Direction int `json:"direction"`
}

// PlayerRequest names a seated player
type PlayerRequest struct {
	PlayerID int64 `json:"player_id"`
}

// AppSettingsRequest represents a request to update the app settings
type AppSettingsRequest struct {
	BaseURL             *string `json:"base_url"`
	PollIntervalSeconds *int    `json:"poll_interval_seconds"`
}
