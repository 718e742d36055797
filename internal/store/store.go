// Package store persists hand history to a SQL database. It implements
// game.Store over database/sql with sqlite3 (the default) or postgres
// drivers; the schema is created on open if it does not exist.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"pokerroomd/internal/game"
	"pokerroomd/poker"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store is a SQL-backed hand history store. It is safe for concurrent
// use by multiple room engines.
type Store struct {
	db      *sql.DB
	dialect dialect
}

var _ game.Store = (*Store)(nil)

// Open connects to the database named by driver ("sqlite3" or
// "postgres") and dsn, and creates the schema if needed.
func Open(driver, dsn string) (*Store, error) {
	var d dialect
	switch driver {
	case "sqlite3":
		d = dialectSQLite
	case "postgres":
		d = dialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if d == dialectSQLite {
		// sqlite allows a single writer, and each pooled connection to a
		// :memory: DSN would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, dialect: d}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialectPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hands (
			id ` + serial + `,
			game_id TEXT NOT NULL,
			hand_number BIGINT NOT NULL,
			dealer_seat INTEGER NOT NULL,
			sb_seat INTEGER NOT NULL,
			bb_seat INTEGER NOT NULL,
			current_street TEXT NOT NULL,
			pot_size INTEGER NOT NULL,
			board_cards TEXT NOT NULL DEFAULT '',
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			start_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS hand_cards (
			hand_id BIGINT NOT NULL,
			user_id TEXT NOT NULL,
			card_1 TEXT NOT NULL,
			card_2 TEXT NOT NULL,
			PRIMARY KEY (hand_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS actions (
			id ` + serial + `,
			hand_id BIGINT NOT NULL,
			user_id TEXT NOT NULL,
			action_type TEXT NOT NULL,
			amount INTEGER NOT NULL,
			street TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS winners (
			hand_id BIGINT NOT NULL,
			user_id TEXT NOT NULL,
			amount_won INTEGER NOT NULL,
			hand_rank TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $1..$N for postgres. Queries are
// written in sqlite form.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertHand records the start of a hand and returns its row id.
func (s *Store) InsertHand(ctx context.Context, gameID string, handNumber int64, dealerSeat, sbSeat, bbSeat int, street game.Street, pot int) (int64, error) {
	const q = `INSERT INTO hands (game_id, hand_number, dealer_seat, sb_seat, bb_seat, current_street, pot_size)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if s.dialect == dialectPostgres {
		var id int64
		err := s.db.QueryRowContext(ctx, s.rebind(q+" RETURNING id"),
			gameID, handNumber, dealerSeat, sbSeat, bbSeat, street.String(), pot).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert hand: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, q,
		gameID, handNumber, dealerSeat, sbSeat, bbSeat, street.String(), pot)
	if err != nil {
		return 0, fmt.Errorf("insert hand: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert hand: %w", err)
	}
	return id, nil
}

// InsertHoleCards records the two cards dealt to one player.
func (s *Store) InsertHoleCards(ctx context.Context, handID int64, userID string, c1, c2 poker.Card) error {
	const q = `INSERT INTO hand_cards (hand_id, user_id, card_1, card_2) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), handID, userID, c1.String(), c2.String()); err != nil {
		return fmt.Errorf("insert hole cards: %w", err)
	}
	return nil
}

// InsertAction records one betting action. Amount is the chips moved
// by the action, not the raise-to total.
func (s *Store) InsertAction(ctx context.Context, handID int64, userID string, action game.ActionType, amount int, street game.Street) error {
	const q = `INSERT INTO actions (hand_id, user_id, action_type, amount, street) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), handID, userID, action.String(), amount, street.String()); err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// UpdateHandBoardStreetPot advances the stored hand to a new street.
// The board is stored space-separated in deal order.
func (s *Store) UpdateHandBoardStreetPot(ctx context.Context, handID int64, board []poker.Card, street game.Street, pot int) error {
	const q = `UPDATE hands SET board_cards = ?, current_street = ?, pot_size = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(q), poker.FormatCards(board), street.String(), pot, handID)
	if err != nil {
		return fmt.Errorf("update hand: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update hand: hand %d not found", handID)
	}
	return nil
}

// InsertWinner records one pot award.
func (s *Store) InsertWinner(ctx context.Context, handID int64, userID string, amountWon int, handRankName string) error {
	const q = `INSERT INTO winners (hand_id, user_id, amount_won, hand_rank) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), handID, userID, amountWon, handRankName); err != nil {
		return fmt.Errorf("insert winner: %w", err)
	}
	return nil
}

// MarkHandCompleted flags the hand as finished.
func (s *Store) MarkHandCompleted(ctx context.Context, handID int64) error {
	const q = `UPDATE hands SET is_completed = TRUE WHERE id = ?`
	res, err := s.db.ExecContext(ctx, s.rebind(q), handID)
	if err != nil {
		return fmt.Errorf("mark hand completed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark hand completed: hand %d not found", handID)
	}
	return nil
}
