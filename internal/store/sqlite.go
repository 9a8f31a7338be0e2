package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/restartfu/grid-bench/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS benchmark_reports (
	id          TEXT PRIMARY KEY,
	algorithm   TEXT NOT NULL,
	hash_count  INTEGER NOT NULL,
	threads     INTEGER NOT NULL,
	state       INTEGER NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	single      TEXT,
	multi       TEXT,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS benchmark_reports_started_at ON benchmark_reports (started_at);
`

// SQLite keeps the history of benchmark reports.
type SQLite struct {
	db *sql.DB
}

type storedResult struct {
	Workers         int     `json:"workers"`
	HashCount       int     `json:"hash_count"`
	ElapsedNanos    int64   `json:"elapsed_ns"`
	TotalOperations int64   `json:"total_operations"`
	Throughput      float64 `json:"throughput"`
}

func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create benchmark_reports table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) SaveReport(ctx context.Context, report domain.BenchmarkReport) error {
	single, err := encodeResult(report.Single)
	if err != nil {
		return err
	}
	multi, err := encodeResult(report.Multi)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO benchmark_reports
			(id, algorithm, hash_count, threads, state, started_at, finished_at, single, multi, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.Algorithm,
		report.HashCount,
		report.Threads,
		int(report.State),
		report.StartedAt.UnixNano(),
		report.FinishedAt.UnixNano(),
		single,
		multi,
		report.Error,
	)
	if err != nil {
		return fmt.Errorf("save report %s: %w", report.ID, err)
	}
	return nil
}

// ListReports returns up to limit reports, newest first.
func (s *SQLite) ListReports(ctx context.Context, limit int) ([]domain.BenchmarkReport, error) {
	if limit <= 0 {
		return []domain.BenchmarkReport{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, algorithm, hash_count, threads, state, started_at, finished_at, single, multi, error
		FROM benchmark_reports
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]domain.BenchmarkReport, 0, limit)
	for rows.Next() {
		var (
			report     domain.BenchmarkReport
			state      int
			startedAt  int64
			finishedAt int64
			single     sql.NullString
			multi      sql.NullString
		)
		if err := rows.Scan(&report.ID, &report.Algorithm, &report.HashCount, &report.Threads,
			&state, &startedAt, &finishedAt, &single, &multi, &report.Error); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		report.State = domain.RunState(state)
		report.StartedAt = time.Unix(0, startedAt).UTC()
		report.FinishedAt = time.Unix(0, finishedAt).UTC()
		if report.Single, err = decodeResult(single); err != nil {
			return nil, err
		}
		if report.Multi, err = decodeResult(multi); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

func encodeResult(result *domain.BenchmarkResult) (sql.NullString, error) {
	if result == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(storedResult{
		Workers:         result.Workers,
		HashCount:       result.HashCount,
		ElapsedNanos:    int64(result.Elapsed),
		TotalOperations: result.TotalOperations,
		Throughput:      result.Throughput,
	})
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeResult(value sql.NullString) (*domain.BenchmarkResult, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var stored storedResult
	if err := json.Unmarshal([]byte(value.String), &stored); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &domain.BenchmarkResult{
		Workers:         stored.Workers,
		HashCount:       stored.HashCount,
		Elapsed:         time.Duration(stored.ElapsedNanos),
		TotalOperations: stored.TotalOperations,
		Throughput:      stored.Throughput,
	}, nil
}
