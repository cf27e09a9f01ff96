package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		action TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_session ON transcripts(session_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_transcripts_created ON transcripts(created_at);

	CREATE TABLE IF NOT EXISTS escalations (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		issue TEXT NOT NULL,
		reason TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_escalations_created ON escalations(created_at);

	CREATE TABLE IF NOT EXISTS chat_payloads (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		type TEXT NOT NULL,
		from_user TEXT NOT NULL,
		user_type TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// AppendTranscript records one message of a conversation.
func (s *SQLiteStore) AppendTranscript(ctx context.Context, entry *domain.TranscriptEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO transcripts (id, session_id, direction, action, content, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.SessionID, entry.Direction, entry.Action,
		entry.Content, entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// ListTranscript returns up to limit entries for a session, oldest first.
func (s *SQLiteStore) ListTranscript(ctx context.Context, sessionID string, limit int) ([]*domain.TranscriptEntry, error) {
	query := `
		SELECT id, session_id, direction, action, content, created_at
		FROM (
			SELECT * FROM transcripts WHERE session_id = ?
			ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close transcript rows", "error", closeErr)
		}
	}()

	var entries []*domain.TranscriptEntry
	for rows.Next() {
		var entry domain.TranscriptEntry
		var createdAt int64
		if err := rows.Scan(
			&entry.ID, &entry.SessionID, &entry.Direction,
			&entry.Action, &entry.Content, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan transcript row: %w", err)
		}
		entry.CreatedAt = time.Unix(0, createdAt)
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript: %w", err)
	}
	return entries, nil
}

// RecordEscalation stores an escalation alert.
func (s *SQLiteStore) RecordEscalation(ctx context.Context, alert *domain.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO escalations (id, session_id, email, issue, reason, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		alert.ID, alert.SessionID, alert.Email, alert.Issue,
		alert.Reason, alert.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert escalation: %w", err)
	}
	return nil
}

// ListEscalations returns up to limit alerts, newest first.
func (s *SQLiteStore) ListEscalations(ctx context.Context, limit int) ([]*domain.Alert, error) {
	query := `
		SELECT id, session_id, email, issue, reason, created_at
		FROM escalations ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query escalations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close escalation rows", "error", closeErr)
		}
	}()

	var alerts []*domain.Alert
	for rows.Next() {
		var alert domain.Alert
		var createdAt int64
		if err := rows.Scan(
			&alert.ID, &alert.SessionID, &alert.Email,
			&alert.Issue, &alert.Reason, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan escalation row: %w", err)
		}
		alert.CreatedAt = time.Unix(0, createdAt)
		alerts = append(alerts, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate escalations: %w", err)
	}
	return alerts, nil
}

// SaveChatPayload stores a payload received through the /chat endpoint.
func (s *SQLiteStore) SaveChatPayload(ctx context.Context, payload *domain.ChatPayload) error {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}
	if payload.CreatedAt.IsZero() {
		payload.CreatedAt = time.Now()
	}

	query := `
	INSERT INTO chat_payloads (id, content, type, from_user, user_type, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		payload.ID, payload.Content, payload.Type,
		string(payload.FromUser), string(payload.UserType),
		payload.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert chat payload: %w", err)
	}
	return nil
}

// GetChatPayload retrieves a stored chat payload by ID.
func (s *SQLiteStore) GetChatPayload(ctx context.Context, id string) (*domain.ChatPayload, error) {
	query := `
		SELECT id, content, type, from_user, user_type, created_at
		FROM chat_payloads WHERE id = ?`

	var payload domain.ChatPayload
	var fromUser, userType string
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&payload.ID, &payload.Content, &payload.Type,
		&fromUser, &userType, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat payload: %w", err)
	}

	payload.FromUser = domain.UserFrom(fromUser)
	payload.UserType = domain.UserType(userType)
	payload.CreatedAt = time.Unix(0, createdAt)
	return &payload, nil
}

// PruneTranscripts deletes transcript entries created before cutoff.
func (s *SQLiteStore) PruneTranscripts(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune transcripts: %w", err)
	}
	return result.RowsAffected()
}
