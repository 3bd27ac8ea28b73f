// Package sqlite is the write-side persistence collaborator: finished
// reports go in, the verification core never reads them back during a run.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/storage/models"
)

// ErrNotFound marks a report id with no stored row.
var ErrNotFound = errors.New("report not found")

type Client struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewClient(dbPath string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))
	return &Client{db: db, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		candidate_name TEXT NOT NULL,
		overall_score REAL NOT NULL,
		report_json TEXT NOT NULL,
		version TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_candidate ON reports(candidate_name);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	c.logger.Info("SQLite schema initialized")
	return nil
}

// StoredReport is one persisted run summary; the full report rides along
// as JSON.
type StoredReport struct {
	ID            string                   `json:"id"`
	CandidateName string                   `json:"candidate_name"`
	OverallScore  float64                  `json:"overall_score"`
	Report        *models.AggregatedReport `json:"report,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

func (c *Client) InsertReport(candidateName string, rep *models.AggregatedReport) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT INTO reports (id, candidate_name, overall_score, report_json, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rep.ID, candidateName, rep.OverallScore, string(payload), rep.Version, rep.GeneratedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	c.logger.Info("report stored",
		zap.String("report_id", rep.ID),
		zap.String("candidate", candidateName),
		zap.Float64("overall_score", rep.OverallScore),
	)
	return nil
}

func (c *Client) GetReport(id string) (*StoredReport, error) {
	row := c.db.QueryRow(
		`SELECT id, candidate_name, overall_score, report_json, created_at
		 FROM reports WHERE id = ?`, id,
	)

	var (
		stored  StoredReport
		payload string
		created int64
	)
	err := row.Scan(&stored.ID, &stored.CandidateName, &stored.OverallScore, &payload, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	stored.CreatedAt = time.Unix(created, 0).UTC()
	stored.Report = &models.AggregatedReport{}
	if err := json.Unmarshal([]byte(payload), stored.Report); err != nil {
		return nil, fmt.Errorf("failed to decode stored report: %w", err)
	}
	return &stored, nil
}

// ListReports returns recent run summaries, newest first, without the
// full report bodies.
func (c *Client) ListReports(limit int) ([]StoredReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := c.db.Query(
		`SELECT id, candidate_name, overall_score, created_at
		 FROM reports ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []StoredReport
	for rows.Next() {
		var (
			stored  StoredReport
			created int64
		)
		if err := rows.Scan(&stored.ID, &stored.CandidateName, &stored.OverallScore, &created); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		stored.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, stored)
	}
	return out, rows.Err()
}
