package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the database file created inside the data directory
const FileName = "sizefit.db"

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	path     string
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens (creating if needed) the survey database in dataDir
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, FileName)
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 4 max open, 2 idle, 5min lifetime
	pool := NewConnectionPool(db, 4, 2, 5*time.Minute)

	database := &DB{
		DB:       db,
		path:     dbPath,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS survey_content (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			subtitle TEXT NOT NULL DEFAULT '',
			page_title TEXT NOT NULL DEFAULT '',
			category_labels TEXT, -- JSON object keyed by category wire name
			findings TEXT,        -- JSON array
			strategic TEXT,       -- JSON object
			benchmarks TEXT,      -- JSON array
			action_items TEXT,    -- JSON array
			source TEXT NOT NULL,
			imported_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS size_buckets (
			survey_id TEXT NOT NULL,
			bucket_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			issues TEXT,         -- JSON array
			feedback TEXT,       -- JSON array
			recommendation TEXT, -- JSON object
			PRIMARY KEY (survey_id, bucket_id),
			FOREIGN KEY (survey_id) REFERENCES survey_content(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS response_counts (
			survey_id TEXT NOT NULL,
			bucket_id TEXT NOT NULL,
			category TEXT NOT NULL,
			count INTEGER NOT NULL CHECK (count >= 0),
			PRIMARY KEY (survey_id, bucket_id, category),
			FOREIGN KEY (survey_id, bucket_id) REFERENCES size_buckets(survey_id, bucket_id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_survey_content_imported ON survey_content(imported_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_size_buckets_position ON size_buckets(survey_id, position)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements initializes frequently used prepared statements
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"insert_content": `INSERT INTO survey_content (
			id, title, subtitle, page_title, category_labels, findings,
			strategic, benchmarks, action_items, source, imported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		"insert_bucket": `INSERT INTO size_buckets (survey_id, bucket_id, position, issues, feedback, recommendation)
			VALUES (?, ?, ?, ?, ?, ?)`,

		"insert_count": `INSERT INTO response_counts (survey_id, bucket_id, category, count)
			VALUES (?, ?, ?, ?)`,

		"get_latest_content": `SELECT id, title, subtitle, page_title, category_labels, findings,
			strategic, benchmarks, action_items, source, imported_at
			FROM survey_content ORDER BY imported_at DESC LIMIT 1`,

		"get_buckets": `SELECT bucket_id, issues, feedback, recommendation
			FROM size_buckets WHERE survey_id = ? ORDER BY position ASC`,

		"get_counts": `SELECT bucket_id, category, count
			FROM response_counts WHERE survey_id = ?`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}
	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
