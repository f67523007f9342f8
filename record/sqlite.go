package record

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/swdee/go-trafficwatch/violation"
)

// SQLiteSink stores records in a SQLite database, each stamped with the ID
// of the run that produced it
type SQLiteSink struct {
	conn  *sql.DB
	runID uuid.UUID
}

// NewSQLiteSink opens or creates the database at path.  Use ":memory:" for
// an in-memory database
func NewSQLiteSink(path string, runID uuid.UUID) (*SQLiteSink, error) {

	connStr := path

	if path != ":memory:" {
		connStr = fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL", path)
	}

	conn, err := sql.Open("sqlite3", connStr)

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single writer, also keeps an in-memory database on one connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &SQLiteSink{
		conn:  conn,
		runID: runID,
	}

	if err := s.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// initialize creates tables and indexes
func (s *SQLiteSink) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plate_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		license_plate TEXT NOT NULL,
		confidence REAL NOT NULL,
		vehicle_type TEXT NOT NULL,
		speed REAL NOT NULL,
		violations TEXT NOT NULL,
		track_id INTEGER NOT NULL DEFAULT 0,
		enrichment INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_plate_records_plate ON plate_records(license_plate);
	CREATE INDEX IF NOT EXISTS idx_plate_records_run ON plate_records(run_id, timestamp);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Name returns the sink name
func (s *SQLiteSink) Name() string {
	return "sqlite"
}

// RunID returns the run the sink stamps on rows
func (s *SQLiteSink) RunID() uuid.UUID {
	return s.runID
}

// Write inserts the record
func (s *SQLiteSink) Write(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO plate_records
		(run_id, timestamp, license_plate, confidence, vehicle_type, speed,
		 violations, track_id, enrichment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query,
		s.runID.String(), rec.Timestamp.UTC(), rec.Plate, rec.Confidence,
		rec.VehicleType, rec.Speed, strings.Join(rec.Violations.Strings(), ";"),
		rec.TrackID, rec.Enrichment,
	)

	return err
}

// Recent returns up to limit records of this run, newest first
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT timestamp, license_plate, confidence, vehicle_type, speed,
		       violations, track_id, enrichment
		FROM plate_records
		WHERE run_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.conn.QueryContext(ctx, query, s.runID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var ts time.Time
		var violations string

		err := rows.Scan(&ts, &rec.Plate, &rec.Confidence, &rec.VehicleType,
			&rec.Speed, &violations, &rec.TrackID, &rec.Enrichment)
		if err != nil {
			return nil, err
		}

		rec.Timestamp = ts
		rec.Violations = violation.ParseSet(violations)
		results = append(results, rec)
	}

	return results, rows.Err()
}

// Count returns the number of records stored for this run
func (s *SQLiteSink) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM plate_records WHERE run_id = ?", s.runID.String()).Scan(&count)
	return count, err
}

// Close closes the database connection
func (s *SQLiteSink) Close() error {
	return s.conn.Close()
}
