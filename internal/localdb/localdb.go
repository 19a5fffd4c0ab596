package localdb

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nantokaworks/betboard/internal/shared/logger"
	"go.uber.org/zap"
)

var DBClient *sql.DB

// SetupDB opens (or creates) the snapshot database and ensures the schema.
func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WAL plus a busy timeout so the synchronous write-through snapshot
	// never trips over a concurrent reader.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Single writer; one connection avoids SQLITE_BUSY entirely.
	db.SetMaxOpenConns(1)

	DBClient = db

	statements := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			id_counter INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY,
			home TEXT NOT NULL,
			away TEXT NOT NULL,
			scheduled_at TEXT NOT NULL DEFAULT '',
			prize TEXT NOT NULL DEFAULT '',
			max_winners INTEGER NOT NULL DEFAULT 1,
			closed BOOLEAN NOT NULL DEFAULT false,
			outcome TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS bets (
			event_id INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			position INTEGER NOT NULL,
			user_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			PRIMARY KEY (event_id, outcome, position)
		)`,
		`CREATE TABLE IF NOT EXISTS announcements (
			event_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			ref TEXT NOT NULL,
			PRIMARY KEY (event_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS operators (
			identity TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS aggregate (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			total_events INTEGER NOT NULL DEFAULT 0,
			total_bettors INTEGER NOT NULL DEFAULT 0,
			total_winners INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS winner_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_label TEXT NOT NULL,
			winner_name TEXT NOT NULL,
			prize TEXT NOT NULL,
			outcome_label TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			logger.Error("Failed to create table", zap.Error(err))
			return nil, err
		}
	}

	return db, nil
}

// GetDB returns the shared connection, or nil before SetupDB.
func GetDB() *sql.DB {
	return DBClient
}
