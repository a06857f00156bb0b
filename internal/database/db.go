package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jgoulah/powerdash/pkg/models"
	_ "modernc.org/sqlite"
)

// DB wraps the facility store connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	PRAGMA foreign_keys = ON;
	CREATE TABLE IF NOT EXISTS facilities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		baseline TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS usage_points (
		facility_id TEXT NOT NULL REFERENCES facilities(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		hour TEXT NOT NULL,
		kwh REAL NOT NULL,
		PRIMARY KEY (facility_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_usage_points_hour ON usage_points(hour);
	CREATE INDEX IF NOT EXISTS idx_facilities_category ON facilities(category);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SaveFacility inserts or replaces a facility and its usage points.
// Re-saving keeps the facility's original position in ListFacilities.
func (db *DB) SaveFacility(f *models.Facility) error {
	if f.ID == "" {
		return fmt.Errorf("saving facility: id is required")
	}

	var baseline sql.NullString
	if f.Baseline != nil {
		b, err := json.Marshal(f.Baseline)
		if err != nil {
			return fmt.Errorf("encoding baseline: %w", err)
		}
		baseline = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`
	INSERT INTO facilities (id, name, category, baseline, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		category = excluded.category,
		baseline = excluded.baseline,
		updated_at = excluded.updated_at
	`, f.ID, f.Name, f.Category, baseline, now, now)
	if err != nil {
		return fmt.Errorf("upserting facility: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM usage_points WHERE facility_id = ?`, f.ID); err != nil {
		return fmt.Errorf("clearing usage points: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO usage_points (facility_id, seq, hour, kwh) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing usage insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range f.Usage {
		if _, err := stmt.Exec(f.ID, i, p.Hour, p.KWh); err != nil {
			return fmt.Errorf("inserting usage point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing facility: %w", err)
	}
	return nil
}

// GetFacility retrieves one facility, or nil if it does not exist
func (db *DB) GetFacility(id string) (*models.Facility, error) {
	row := db.conn.QueryRow(`SELECT id, name, category, baseline FROM facilities WHERE id = ?`, id)

	f, err := scanFacility(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying facility: %w", err)
	}

	rows, err := db.conn.Query(`SELECT hour, kwh FROM usage_points WHERE facility_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying usage points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.UsagePoint
		if err := rows.Scan(&p.Hour, &p.KWh); err != nil {
			return nil, fmt.Errorf("scanning usage point: %w", err)
		}
		f.Usage = append(f.Usage, p)
	}

	return f, rows.Err()
}

// ListFacilities retrieves all facilities with their usage, in insertion order
func (db *DB) ListFacilities() ([]models.Facility, error) {
	rows, err := db.conn.Query(`SELECT id, name, category, baseline FROM facilities ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying facilities: %w", err)
	}
	defer rows.Close()

	results := []models.Facility{}
	index := make(map[string]int)
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning facility: %w", err)
		}
		index[f.ID] = len(results)
		results = append(results, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	points, err := db.conn.Query(`SELECT facility_id, hour, kwh FROM usage_points ORDER BY facility_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("querying usage points: %w", err)
	}
	defer points.Close()

	for points.Next() {
		var id string
		var p models.UsagePoint
		if err := points.Scan(&id, &p.Hour, &p.KWh); err != nil {
			return nil, fmt.Errorf("scanning usage point: %w", err)
		}
		if i, ok := index[id]; ok {
			results[i].Usage = append(results[i].Usage, p)
		}
	}

	return results, points.Err()
}

// DeleteFacility removes a facility and its usage points
func (db *DB) DeleteFacility(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM usage_points WHERE facility_id = ?`, id); err != nil {
		return fmt.Errorf("deleting usage points: %w", err)
	}
	if _, err := db.conn.Exec(`DELETE FROM facilities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting facility: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFacility(s scanner) (*models.Facility, error) {
	var f models.Facility
	var baseline sql.NullString
	if err := s.Scan(&f.ID, &f.Name, &f.Category, &baseline); err != nil {
		return nil, err
	}
	if baseline.Valid && baseline.String != "" {
		if err := json.Unmarshal([]byte(baseline.String), &f.Baseline); err != nil {
			return nil, fmt.Errorf("decoding baseline: %w", err)
		}
	}
	return &f, nil
}
