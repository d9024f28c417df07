// Package store persists scan records in SQLite. The full record is stored as
// a JSON document; status, progress and a few trend columns are kept
// relational so status polling and time-series queries never deserialize
// whole records.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/privalens/privalens/internal/logging"
	"github.com/privalens/privalens/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrScanNotFound = errors.New("scan not found")

type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open creates the database file under rootDir and runs migrations.
func Open(rootDir string, logger logging.Logger) (*Store, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("rootDir is required")
	}
	rootDir = filepath.Clean(rootDir)
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure rootDir %s: %w", rootDir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(rootDir, "privalens.db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	return New(db, logger)
}

// New wraps an existing database handle and runs migrations. Used directly by
// tests with an in-memory database.
func New(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// CreateScan inserts a new record. The scan's ID, timestamps and status must
// already be set by the caller.
func (s *Store) CreateScan(ctx context.Context, scan *model.Scan) error {
	record, progress, err := encodeScan(scan)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, domain_id, domain, status, record, progress, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID, scan.DomainID, scan.Domain, string(scan.Status),
		record, progress, scan.CreatedAt.Unix(), scan.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// UpdateScan rewrites the full record and the denormalized columns. It is
// called by the owning orchestrator only.
func (s *Store) UpdateScan(ctx context.Context, scan *model.Scan) error {
	scan.UpdatedAt = time.Now().UTC()
	record, progress, err := encodeScan(scan)
	if err != nil {
		return err
	}

	var finishedAt sql.NullInt64
	if !scan.Progress.FinishedAt.IsZero() {
		finishedAt = sql.NullInt64{Int64: scan.Progress.FinishedAt.Unix(), Valid: true}
	}
	var total, first, third, compliance int
	if scan.Statistics != nil {
		total = scan.Statistics.TotalCookies
		first = scan.Statistics.FirstPartyCookies
		third = scan.Statistics.ThirdPartyCookies
		compliance = scan.Statistics.GDPRComplianceRate
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scans
         SET status = ?, record = ?, progress = ?, updated_at = ?, finished_at = ?,
             total_cookies = ?, first_party_cookies = ?, third_party_cookies = ?, compliance_score = ?
         WHERE id = ?`,
		string(scan.Status), record, progress, scan.UpdatedAt.Unix(), finishedAt,
		total, first, third, compliance, scan.ID,
	)
	if err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	return requireRow(res)
}

// GetScan loads one full record by id.
func (s *Store) GetScan(ctx context.Context, id string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record, status, progress FROM scans WHERE id = ? LIMIT 1`, id)
	return scanRow(row)
}

// FindActiveScan returns the oldest pending or running scan for a domain, or
// ErrScanNotFound when the domain is idle.
func (s *Store) FindActiveScan(ctx context.Context, domainID string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record, status, progress FROM scans
         WHERE domain_id = ? AND status IN (?, ?)
         ORDER BY created_at ASC LIMIT 1`,
		domainID, string(model.StatusPending), string(model.StatusRunning))
	return scanRow(row)
}

// FindLatestCompleted returns the most recent completed scan for a domain,
// used as the diff baseline.
func (s *Store) FindLatestCompleted(ctx context.Context, domainID string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record, status, progress FROM scans
         WHERE domain_id = ? AND status = ?
         ORDER BY created_at DESC LIMIT 1`,
		domainID, string(model.StatusCompleted))
	return scanRow(row)
}

// UpdateProgress overwrites only the progress column so status pollers always
// read a consistent snapshot while the run mutates its record in memory.
func (s *Store) UpdateProgress(ctx context.Context, id string, progress model.Progress) error {
	blob, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET progress = ?, updated_at = ? WHERE id = ?`,
		string(blob), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return requireRow(res)
}

// AppendError adds one recoverable error to the persisted progress inside a
// transaction so concurrent pollers never observe a torn error list.
func (s *Store) AppendError(ctx context.Context, id string, scanErr model.ScanError) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var blob string
	row := tx.QueryRowContext(ctx, `SELECT progress FROM scans WHERE id = ? LIMIT 1`, id)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return ErrScanNotFound
		}
		return err
	}

	var progress model.Progress
	if err := json.Unmarshal([]byte(blob), &progress); err != nil {
		return fmt.Errorf("decode progress: %w", err)
	}
	progress.Errors = append(progress.Errors, scanErr)

	updated, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE scans SET progress = ?, updated_at = ? WHERE id = ?`,
		string(updated), time.Now().Unix(), id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListScans returns the most recent scans for a domain, newest first.
func (s *Store) ListScans(ctx context.Context, domainID string, limit int) ([]*model.Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT record, status, progress FROM scans
         WHERE domain_id = ?
         ORDER BY created_at DESC LIMIT ?`,
		domainID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Scan
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, scan)
	}
	return out, rows.Err()
}

// Trends returns the per-completed-scan compliance series for the last N days,
// oldest first, read entirely from the denormalized columns.
func (s *Store) Trends(ctx context.Context, domainID string, days int) ([]model.TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days).Unix()

	rows, err := s.db.QueryContext(ctx,
		`SELECT finished_at, total_cookies, first_party_cookies, third_party_cookies, compliance_score
         FROM scans
         WHERE domain_id = ? AND status = ? AND finished_at IS NOT NULL AND finished_at >= ?
         ORDER BY finished_at ASC`,
		domainID, string(model.StatusCompleted), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []model.TrendPoint
	for rows.Next() {
		var finishedAt int64
		var p model.TrendPoint
		if err := rows.Scan(&finishedAt, &p.TotalCookies, &p.FirstPartyCookies, &p.ThirdPartyCookies, &p.ComplianceScore); err != nil {
			return nil, err
		}
		p.Date = time.Unix(finishedAt, 0).UTC()
		points = append(points, p)
	}
	return points, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*model.Scan, error) {
	var record, status, progress string
	if err := row.Scan(&record, &status, &progress); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrScanNotFound
		}
		return nil, err
	}

	var scan model.Scan
	if err := json.Unmarshal([]byte(record), &scan); err != nil {
		return nil, fmt.Errorf("decode scan record: %w", err)
	}
	// The progress column may be newer than the embedded record.
	scan.Status = model.Status(status)
	if err := json.Unmarshal([]byte(progress), &scan.Progress); err != nil {
		return nil, fmt.Errorf("decode scan progress: %w", err)
	}
	return &scan, nil
}

func encodeScan(scan *model.Scan) (record string, progress string, err error) {
	recordBlob, err := json.Marshal(scan)
	if err != nil {
		return "", "", fmt.Errorf("encode scan record: %w", err)
	}
	progressBlob, err := json.Marshal(scan.Progress)
	if err != nil {
		return "", "", fmt.Errorf("encode scan progress: %w", err)
	}
	return string(recordBlob), string(progressBlob), nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScanNotFound
	}
	return nil
}
