package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/abrezinsky/pokerleague/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection; it also keeps :memory: databases shared
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round_number INTEGER NOT NULL UNIQUE,
			round_type TEXT NOT NULL DEFAULT 'regular',
			buy_in_value TEXT NOT NULL DEFAULT '0',
			rebuy_value TEXT NOT NULL DEFAULT '0',
			knockout_value TEXT NOT NULL DEFAULT '0',
			is_final_table BOOLEAN NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'scheduled',
			is_started BOOLEAN NOT NULL DEFAULT 0,
			current_level INTEGER NOT NULL DEFAULT 0,
			is_paused BOOLEAN NOT NULL DEFAULT 0,
			timer_started_at DATETIME,
			time_remaining_seconds INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			completed_at DATETIME,
			final_table_cut TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS round_players (
			round_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			seat_order INTEGER NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			position INTEGER,
			eliminated_at DATETIME,
			eliminated_by INTEGER,
			bounty_paid TEXT NOT NULL DEFAULT '0',
			rebuys INTEGER NOT NULL DEFAULT 0,
			knockout_earnings TEXT NOT NULL DEFAULT '0',
			PRIMARY KEY (round_id, player_id),
			FOREIGN KEY (round_id) REFERENCES rounds(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS round_results (
			round_id INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			rebuys INTEGER NOT NULL DEFAULT 0,
			knockout_earnings TEXT NOT NULL DEFAULT '0',
			prize TEXT NOT NULL DEFAULT '0',
			PRIMARY KEY (round_id, player_id),
			FOREIGN KEY (round_id) REFERENCES rounds(id)
		)`,
		`CREATE TABLE IF NOT EXISTS round_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			round_id INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			player_id INTEGER,
			eliminator_id INTEGER,
			position INTEGER,
			level INTEGER,
			amount TEXT NOT NULL DEFAULT '0',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (round_id) REFERENCES rounds(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_status ON rounds(status)`,
		`CREATE INDEX IF NOT EXISTS idx_round_events_round ON round_events(round_id)`,
		`CREATE INDEX IF NOT EXISTS idx_round_results_player ON round_results(player_id)`,
	}

	additionalMigrations := []string{
		`ALTER TABLE rounds ADD COLUMN final_table_cut TEXT`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	for _, migration := range additionalMigrations {
		r.db.Exec(migration) // Ignore errors - columns may already exist
	}

	// base_url is set by app.go with the detected LAN address on startup
	defaultSettings := map[string]string{
		"poll_interval_seconds": "5",
	}

	for key, value := range defaultSettings {
		_, err := r.db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value)
		if err != nil {
			return err
		}
	}

	return nil
}

// ==================== Round Methods ====================

const roundColumns = `id, round_number, round_type, buy_in_value, rebuy_value, knockout_value,
	is_final_table, status, is_started, current_level, is_paused, timer_started_at,
	time_remaining_seconds, created_at, completed_at, final_table_cut`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (*models.Round, error) {
	var (
		round       models.Round
		roundType   string
		status      string
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(
		&round.ID, &round.RoundNumber, &roundType, &round.BuyIn, &round.RebuyValue, &round.KnockoutValue,
		&round.IsFinalTable, &status, &round.IsStarted, &round.CurrentLevel, &round.IsPaused, &startedAt,
		&round.TimeRemainingSeconds, &round.CreatedAt, &completedAt, &round.FinalTableCut,
	)
	if err != nil {
		return nil, err
	}
	round.Type = models.RoundType(roundType)
	round.Status = models.RoundStatus(status)
	if startedAt.Valid {
		t := startedAt.Time
		round.TimerStartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		round.CompletedAt = &t
	}
	return &round, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// CreateRound inserts a round together with its seats and creation event.
// No round is created while another round is active.
func (r *Repository) CreateRound(ctx context.Context, round *models.Round, seats []models.SeatedPlayer, event *models.RoundEvent) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := ensureNoActiveRound(ctx, tx, 0); err != nil {
		return 0, err
	}

	createdAt := round.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO rounds (round_number, round_type, buy_in_value, rebuy_value, knockout_value,
			is_final_table, status, is_started, current_level, is_paused, timer_started_at,
			time_remaining_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, 0, NULL, 0, ?)
	`, round.RoundNumber, string(round.Type), round.BuyIn, round.RebuyValue, round.KnockoutValue,
		round.IsFinalTable, string(round.Status), createdAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateRoundNumber
		}
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := insertSeats(ctx, tx, id, seats); err != nil {
		return 0, err
	}
	if event != nil {
		event.RoundID = id
		if err := insertEvent(ctx, tx, event); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func ensureNoActiveRound(ctx context.Context, tx *sql.Tx, except int64) error {
	var activeID int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM rounds WHERE status = 'active' AND id != ? LIMIT 1`, except).Scan(&activeID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrActiveRoundExists
}

// ActivateRound moves a scheduled round to active and seats its players.
func (r *Repository) ActivateRound(ctx context.Context, roundID int64, seats []models.SeatedPlayer, event *models.RoundEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status, err := roundStatus(ctx, tx, roundID)
	if err != nil {
		return err
	}
	switch status {
	case models.StatusCompleted:
		return ErrRoundCompleted
	case models.StatusActive:
		return ErrActiveRoundExists
	}
	if err := ensureNoActiveRound(ctx, tx, roundID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE rounds SET status = 'active', is_started = 0, current_level = 0, is_paused = 0,
			timer_started_at = NULL, time_remaining_seconds = 0 WHERE id = ?`, roundID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM round_players WHERE round_id = ?`, roundID); err != nil {
		return err
	}
	if err := insertSeats(ctx, tx, roundID, seats); err != nil {
		return err
	}
	if event != nil {
		event.RoundID = roundID
		if err := insertEvent(ctx, tx, event); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func roundStatus(ctx context.Context, tx *sql.Tx, roundID int64) (models.RoundStatus, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM rounds WHERE id = ?`, roundID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return models.RoundStatus(status), nil
}

// GetRound retrieves a round by ID
func (r *Repository) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = ?`, id)
	round, err := scanRound(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return round, err
}

// GetActiveRound returns the round with status active, or ErrNotFound
func (r *Repository) GetActiveRound(ctx context.Context) (*models.Round, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM rounds WHERE status = 'active' ORDER BY id LIMIT 1`)
	round, err := scanRound(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return round, err
}

// ListRounds returns all rounds ordered by round number
func (r *Repository) ListRounds(ctx context.Context) ([]models.Round, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roundColumns+` FROM rounds ORDER BY round_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := []models.Round{}
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *round)
	}
	return rounds, rows.Err()
}

// RoundNumberExists checks whether a round number is taken
func (r *Repository) RoundNumberExists(ctx context.Context, roundNumber int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rounds WHERE round_number = ?`, roundNumber).Scan(&count)
	return count > 0, err
}

// SaveClock writes the clock fields of an active round, with an optional event.
func (r *Repository) SaveClock(ctx context.Context, round *models.Round, event *models.RoundEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE rounds SET is_started = ?, current_level = ?, is_paused = ?, timer_started_at = ?,
			time_remaining_seconds = ?
		WHERE id = ? AND status = 'active'
	`, round.IsStarted, round.CurrentLevel, round.IsPaused, nullTime(round.TimerStartedAt),
		round.TimeRemainingSeconds, round.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := roundStatus(ctx, tx, round.ID); err != nil {
			return err
		}
		return ErrRoundNotActive
	}

	if event != nil {
		event.RoundID = round.ID
		if err := insertEvent(ctx, tx, event); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ==================== Seat Methods ====================

func insertSeats(ctx context.Context, tx *sql.Tx, roundID int64, seats []models.SeatedPlayer) error {
	if len(seats) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO round_players (round_id, player_id, seat_order, is_active, position, eliminated_at,
			eliminated_by, bounty_paid, rebuys, knockout_earnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range seats {
		_, err := stmt.ExecContext(ctx, roundID, s.PlayerID, i, s.IsActive, nullInt(s.Position),
			nullTime(s.EliminatedAt), nullInt64(s.EliminatedBy), s.BountyPaid, s.Rebuys, s.KnockoutEarnings)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveSeats replaces the whole seat snapshot of an active round and appends
// the event describing the mutation, in one transaction.
func (r *Repository) SaveSeats(ctx context.Context, roundID int64, seats []models.SeatedPlayer, event *models.RoundEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status, err := roundStatus(ctx, tx, roundID)
	if err != nil {
		return err
	}
	if status != models.StatusActive {
		return ErrRoundNotActive
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM round_players WHERE round_id = ?`, roundID); err != nil {
		return err
	}
	if err := insertSeats(ctx, tx, roundID, seats); err != nil {
		return err
	}
	if event != nil {
		event.RoundID = roundID
		if err := insertEvent(ctx, tx, event); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSeats returns the seat snapshot of a round in seating order
func (r *Repository) ListSeats(ctx context.Context, roundID int64) ([]models.SeatedPlayer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, is_active, position, eliminated_at, eliminated_by, bounty_paid, rebuys, knockout_earnings
		FROM round_players
		WHERE round_id = ?
		ORDER BY seat_order
	`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := []models.SeatedPlayer{}
	for rows.Next() {
		var (
			s            models.SeatedPlayer
			position     sql.NullInt64
			eliminatedAt sql.NullTime
			eliminatedBy sql.NullInt64
		)
		if err := rows.Scan(&s.PlayerID, &s.IsActive, &position, &eliminatedAt, &eliminatedBy,
			&s.BountyPaid, &s.Rebuys, &s.KnockoutEarnings); err != nil {
			return nil, err
		}
		if position.Valid {
			p := int(position.Int64)
			s.Position = &p
		}
		if eliminatedAt.Valid {
			t := eliminatedAt.Time
			s.EliminatedAt = &t
		}
		if eliminatedBy.Valid {
			id := eliminatedBy.Int64
			s.EliminatedBy = &id
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ==================== Result Methods ====================

// CompleteRound writes every result row, flips the round to completed and
// drops its seats in a single transaction. Nothing is written on failure.
// finalTableCut is stored on the round so season totals do not depend on
// who was still seated.
func (r *Repository) CompleteRound(ctx context.Context, roundID int64, results []models.RoundResult, finalTableCut decimal.Decimal, completedAt time.Time, event *models.RoundEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status, err := roundStatus(ctx, tx, roundID)
	if err != nil {
		return err
	}
	if status == models.StatusCompleted {
		return ErrRoundCompleted
	}
	if status != models.StatusActive {
		return ErrRoundNotActive
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO round_results (round_id, player_id, position, points, rebuys, knockout_earnings, prize)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, res := range results {
		if _, err := stmt.ExecContext(ctx, roundID, res.PlayerID, res.Position, res.Points, res.Rebuys,
			res.KnockoutEarnings, res.Prize); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE rounds SET status = 'completed', completed_at = ?, final_table_cut = ?, is_started = 0,
			is_paused = 0, timer_started_at = NULL
		WHERE id = ?
	`, completedAt.UTC(), finalTableCut, roundID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM round_players WHERE round_id = ?`, roundID); err != nil {
		return err
	}
	if event != nil {
		event.RoundID = roundID
		if err := insertEvent(ctx, tx, event); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanResult(row rowScanner) (models.RoundResult, error) {
	var res models.RoundResult
	err := row.Scan(&res.RoundID, &res.PlayerID, &res.Position, &res.Points, &res.Rebuys,
		&res.KnockoutEarnings, &res.Prize)
	return res, err
}

const resultColumns = `round_id, player_id, position, points, rebuys, knockout_earnings, prize`

// ListResults returns the results of one round ordered by position
func (r *Repository) ListResults(ctx context.Context, roundID int64) ([]models.RoundResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM round_results WHERE round_id = ? ORDER BY position`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.RoundResult{}
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ListCompletedRounds returns every completed round with its results
func (r *Repository) ListCompletedRounds(ctx context.Context) ([]models.CompletedRound, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE status = 'completed' ORDER BY round_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completed := []models.CompletedRound{}
	index := make(map[int64]int)
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		index[round.ID] = len(completed)
		completed = append(completed, models.CompletedRound{Round: *round, Results: []models.RoundResult{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	resultRows, err := r.db.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM round_results ORDER BY round_id, position`)
	if err != nil {
		return nil, err
	}
	defer resultRows.Close()

	for resultRows.Next() {
		res, err := scanResult(resultRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[res.RoundID]; ok {
			completed[i].Results = append(completed[i].Results, res)
		}
	}
	return completed, resultRows.Err()
}

// ==================== Event Methods ====================

func insertEvent(ctx context.Context, tx *sql.Tx, event *models.RoundEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO round_events (id, round_id, event_type, player_id, eliminator_id, position, level, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.RoundID, string(event.Type), nullInt64(event.PlayerID), nullInt64(event.EliminatorID),
		nullInt(event.Position), nullInt(event.Level), event.Amount, event.CreatedAt.UTC())
	return err
}

// AppendEvent records a standalone event
func (r *Repository) AppendEvent(ctx context.Context, event *models.RoundEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertEvent(ctx, tx, event); err != nil {
		return err
	}
	return tx.Commit()
}

// ListEvents returns the events of a round in insertion order. A limit of
// zero or less returns all events.
func (r *Repository) ListEvents(ctx context.Context, roundID int64, limit int) ([]models.RoundEvent, error) {
	query := `
		SELECT id, round_id, event_type, player_id, eliminator_id, position, level, amount, created_at
		FROM round_events
		WHERE round_id = ?
		ORDER BY seq`
	args := []any{roundID}
	if limit > 0 {
		// newest N, returned oldest first
		query = `
			SELECT id, round_id, event_type, player_id, eliminator_id, position, level, amount, created_at
			FROM (SELECT * FROM round_events WHERE round_id = ? ORDER BY seq DESC LIMIT ?)
			ORDER BY seq`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.RoundEvent{}
	for rows.Next() {
		var (
			e            models.RoundEvent
			eventType    string
			playerID     sql.NullInt64
			eliminatorID sql.NullInt64
			position     sql.NullInt64
			level        sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.RoundID, &eventType, &playerID, &eliminatorID, &position, &level,
			&e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = models.EventType(eventType)
		if playerID.Valid {
			v := playerID.Int64
			e.PlayerID = &v
		}
		if eliminatorID.Valid {
			v := eliminatorID.Int64
			e.EliminatorID = &v
		}
		if position.Valid {
			v := int(position.Int64)
			e.Position = &v
		}
		if level.Valid {
			v := int(level.Int64)
			e.Level = &v
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting saves a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}
