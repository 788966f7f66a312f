package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KirkDiggler/horserace/internal/models"
	"github.com/KirkDiggler/horserace/internal/repositories/game/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLiteConfig holds configuration for the SQLite game repository
type SQLiteConfig struct {
	// Path of the database file
	Path string
}

// sqliteRepository implements the Repository interface on normalised SQLite tables.
// Seat, color and login uniqueness and the single pending dice per player are also
// enforced by the schema.
type sqliteRepository struct {
	db *sql.DB
}

// querier is satisfied by *sql.DB and *sql.Conn
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLite opens a SQLite-backed game repository and applies the embedded migrations
func NewSQLite(cfg *SQLiteConfig) (*sqliteRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}

	dsn := filepath.Clean(cfg.Path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &sqliteRepository{db: db}, nil
}

// Close closes the SQLite handle
func (r *sqliteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func nullable(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

// CreateGame inserts a new game row
func (r *sqliteRepository) CreateGame(ctx context.Context, input *CreateGameInput) error {
	if input == nil || input.Game == nil || input.Game.ID == "" {
		return errors.New("input and game cannot be nil")
	}
	g := input.Game

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO games (
		   id, step_time_seconds, player_capacity, status, current_turn_player_id,
		   winner_color, winner_login, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.StepTimeSeconds, g.PlayerCapacity, string(g.Status), nullable(g.CurrentTurnPlayerID),
		string(g.WinnerColor), g.WinnerLogin, toMillis(g.CreatedAt), toMillis(g.UpdatedAt),
	)
	if err != nil {
		return mapSQLiteError("create game", err)
	}
	return nil
}

// GetState loads a game aggregate
func (r *sqliteRepository) GetState(ctx context.Context, input *GetStateInput) (*models.GameState, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}
	return loadState(ctx, r.db, input.GameID)
}

func loadState(ctx context.Context, q querier, gameID string) (*models.GameState, error) {
	var (
		g         models.Game
		status    string
		turn      sql.NullString
		winner    string
		createdAt int64
		updatedAt int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, step_time_seconds, player_capacity, status, current_turn_player_id,
		        winner_color, winner_login, created_at, updated_at
		   FROM games WHERE id = ?`, gameID,
	).Scan(&g.ID, &g.StepTimeSeconds, &g.PlayerCapacity, &status, &turn, &winner, &g.WinnerLogin, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, mapSQLiteError("get game", err)
	}
	g.Status = models.GameStatus(status)
	g.CurrentTurnPlayerID = turn.String
	g.WinnerColor = models.Color(winner)
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)

	state := &models.GameState{
		Game:    &g,
		Players: []*models.Player{},
		Horses:  []*models.Horse{},
		Dice:    []*models.DiceRoll{},
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, game_id, login, color, seat_number FROM players WHERE game_id = ? ORDER BY seat_number`, gameID)
	if err != nil {
		return nil, mapSQLiteError("list players", err)
	}
	for rows.Next() {
		var p models.Player
		var color string
		if err := rows.Scan(&p.ID, &p.GameID, &p.Login, &color, &p.SeatNumber); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Color = models.Color(color)
		state.Players = append(state.Players, &p)
	}
	if err := closeRows(rows); err != nil {
		return nil, mapSQLiteError("list players", err)
	}

	rows, err = q.QueryContext(ctx,
		`SELECT h.id, h.player_id, h.number, h.position
		   FROM horses h JOIN players p ON p.id = h.player_id
		  WHERE p.game_id = ? ORDER BY p.seat_number, h.number`, gameID)
	if err != nil {
		return nil, mapSQLiteError("list horses", err)
	}
	for rows.Next() {
		var h models.Horse
		if err := rows.Scan(&h.ID, &h.PlayerID, &h.Number, &h.Position); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan horse: %w", err)
		}
		state.Horses = append(state.Horses, &h)
	}
	if err := closeRows(rows); err != nil {
		return nil, mapSQLiteError("list horses", err)
	}

	rows, err = q.QueryContext(ctx,
		`SELECT d.id, d.player_id, d.value, d.rolled, d.consumed, d.expires_at, d.created_at
		   FROM dice d JOIN players p ON p.id = d.player_id
		  WHERE p.game_id = ? ORDER BY d.created_at`, gameID)
	if err != nil {
		return nil, mapSQLiteError("list dice", err)
	}
	for rows.Next() {
		var d models.DiceRoll
		var expiresAt, created int64
		if err := rows.Scan(&d.ID, &d.PlayerID, &d.Value, &d.Rolled, &d.Consumed, &expiresAt, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan dice: %w", err)
		}
		d.ExpiresAt = fromMillis(expiresAt)
		d.CreatedAt = fromMillis(created)
		state.Dice = append(state.Dice, &d)
	}
	if err := closeRows(rows); err != nil {
		return nil, mapSQLiteError("list dice", err)
	}

	return state, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

// Update runs the callback inside a transaction on a dedicated connection. Strict updates
// take the write lock up front with BEGIN IMMEDIATE; the others start deferred and fail
// with ErrConflict if another writer committed since they read.
func (r *sqliteRepository) Update(ctx context.Context, input *UpdateInput) (*UpdateOutput, error) {
	if input == nil || input.GameID == "" || input.Mutate == nil {
		return nil, errors.New("input, game ID and mutate cannot be empty")
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, mapSQLiteError("get connection", err)
	}
	defer conn.Close()

	begin := "BEGIN DEFERRED"
	if input.Strict {
		begin = "BEGIN IMMEDIATE"
	}
	if _, err := conn.ExecContext(ctx, begin); err != nil {
		return nil, mapSQLiteError("begin", err)
	}

	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	state, err := loadState(ctx, conn, input.GameID)
	if err != nil {
		return nil, err
	}

	view := &View{State: state.Clone()}
	if input.Login != "" {
		err := conn.QueryRowContext(ctx, `SELECT game_id FROM players WHERE login = ?`, input.Login).Scan(&view.SeatedGameID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, mapSQLiteError("get login seat", err)
		}
	}

	changes, err := input.Mutate(view)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return &UpdateOutput{State: state}, nil
	}

	next := state.Clone()
	deleted, err := ApplyChanges(next, changes)
	if err != nil {
		return nil, err
	}

	for _, change := range changes {
		if err := writeChange(ctx, conn, input.GameID, change); err != nil {
			return nil, err
		}
	}
	if !deleted && !input.Now.IsZero() {
		next.Game.UpdatedAt = input.Now
		if _, err := conn.ExecContext(ctx, `UPDATE games SET updated_at = ? WHERE id = ?`, toMillis(input.Now), input.GameID); err != nil {
			return nil, mapSQLiteError("touch game", err)
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return nil, mapSQLiteError("commit", err)
	}
	committed = true

	output := &UpdateOutput{Changes: changes}
	if !deleted {
		output.State = next
	}
	return output, nil
}

func writeChange(ctx context.Context, conn querier, gameID string, change Change) error {
	switch c := change.(type) {
	case InsertPlayer:
		p := c.Player
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO players (id, game_id, login, color, seat_number) VALUES (?, ?, ?, ?, ?)`,
			p.ID, gameID, p.Login, string(p.Color), p.SeatNumber,
		); err != nil {
			return mapSQLiteError("insert player", err)
		}
		for _, h := range c.Horses {
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO horses (id, player_id, number, position) VALUES (?, ?, ?, ?)`,
				h.ID, h.PlayerID, h.Number, h.Position,
			); err != nil {
				return mapSQLiteError("insert horse", err)
			}
		}

	case RemovePlayer:
		for _, stmt := range []string{
			`DELETE FROM dice WHERE player_id = ?`,
			`DELETE FROM horses WHERE player_id = ?`,
		} {
			if _, err := conn.ExecContext(ctx, stmt, c.PlayerID); err != nil {
				return mapSQLiteError("remove player", err)
			}
		}
		return expectRow(conn.ExecContext(ctx, `DELETE FROM players WHERE id = ? AND game_id = ?`, c.PlayerID, gameID))

	case MoveHorse:
		return expectRow(conn.ExecContext(ctx, `UPDATE horses SET position = ? WHERE id = ?`, c.Position, c.HorseID))

	case InsertDice:
		d := c.Dice
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO dice (id, player_id, value, rolled, consumed, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.PlayerID, d.Value, d.Rolled, d.Consumed, toMillis(d.ExpiresAt), toMillis(d.CreatedAt),
		); err != nil {
			return mapSQLiteError("insert dice", err)
		}

	case RevealDice:
		return expectRow(conn.ExecContext(ctx, `UPDATE dice SET rolled = 1 WHERE id = ? AND consumed = 0`, c.DiceID))

	case ConsumeDice:
		return expectRow(conn.ExecContext(ctx, `UPDATE dice SET consumed = 1 WHERE id = ? AND consumed = 0`, c.DiceID))

	case ClearDice:
		if _, err := conn.ExecContext(ctx, `DELETE FROM dice WHERE player_id = ?`, c.PlayerID); err != nil {
			return mapSQLiteError("clear dice", err)
		}

	case SetTurn:
		// the conditional update is what makes a stale turn holder lose
		return expectRow(conn.ExecContext(ctx,
			`UPDATE games SET current_turn_player_id = ? WHERE id = ? AND current_turn_player_id IS ?`,
			nullable(c.Next), gameID, nullable(c.Expected),
		))

	case SetStatus:
		return expectRow(conn.ExecContext(ctx,
			`UPDATE games SET status = ?, winner_color = ?, winner_login = ? WHERE id = ?`,
			string(c.Status), string(c.WinnerColor), c.WinnerLogin, gameID,
		))

	case DeleteGame:
		for _, stmt := range []string{
			`DELETE FROM dice WHERE player_id IN (SELECT id FROM players WHERE game_id = ?)`,
			`DELETE FROM horses WHERE player_id IN (SELECT id FROM players WHERE game_id = ?)`,
			`DELETE FROM players WHERE game_id = ?`,
			`DELETE FROM games WHERE id = ?`,
		} {
			if _, err := conn.ExecContext(ctx, stmt, gameID); err != nil {
				return mapSQLiteError("delete game", err)
			}
		}

	default:
		return fmt.Errorf("unknown change %T", change)
	}
	return nil
}

// expectRow turns a write that matched nothing into ErrConflict
func expectRow(result sql.Result, err error) error {
	if err != nil {
		return mapSQLiteError("update", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: no rows matched", ErrConflict)
	}
	return nil
}

// ListGames loads every game, oldest first
func (r *sqliteRepository) ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	query := `SELECT id FROM games ORDER BY created_at, id`
	var args []any
	if input != nil && input.Status != "" {
		query = `SELECT id FROM games WHERE status = ? ORDER BY created_at, id`
		args = append(args, string(input.Status))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError("list games", err)
	}
	var gameIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		gameIDs = append(gameIDs, id)
	}
	if err := closeRows(rows); err != nil {
		return nil, mapSQLiteError("list games", err)
	}

	states := make([]*models.GameState, 0, len(gameIDs))
	for _, id := range gameIDs {
		state, err := loadState(ctx, r.db, id)
		if err != nil {
			if errors.Is(err, ErrGameNotFound) {
				continue
			}
			return nil, err
		}
		states = append(states, state)
	}

	return &ListGamesOutput{States: states}, nil
}

// GetGameByLogin returns the game a login is seated in
func (r *sqliteRepository) GetGameByLogin(ctx context.Context, input *GetGameByLoginInput) (*GetGameByLoginOutput, error) {
	if input == nil || input.Login == "" {
		return nil, errors.New("input and login cannot be empty")
	}

	var gameID string
	err := r.db.QueryRowContext(ctx, `SELECT game_id FROM players WHERE login = ?`, input.Login).Scan(&gameID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, mapSQLiteError("get game by login", err)
	}
	return &GetGameByLoginOutput{GameID: gameID}, nil
}

// mapSQLiteError converts lock contention and uniqueness violations into ErrConflict
func mapSQLiteError(op string, err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		// extended result codes keep the primary code in the low byte
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED, sqlite3lib.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %s: %w", ErrConflict, op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
