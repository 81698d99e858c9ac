// Package mysql keeps the document build audit log.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hotel_recs/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Open connects with the driver options the repo relies on (parseTime, UTC).
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return db, nil
}

func (r *Repo) RecordBuild(ctx context.Context, b domain.BuildRecord) error {
	_, err := r.db.ExecContext(ctx, insertBuildSQL,
		b.ID,
		valStr(b.Filename),
		valStr(b.ClientName),
		valStr(b.Destination),
		b.Hotels,
		b.Pages,
		b.FailedAssets,
		b.Bytes,
		string(b.Status),
		valStr(b.Error),
		b.DurationMS,
		b.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record build %s: %w", b.ID, err)
	}
	return nil
}

func (r *Repo) ListBuilds(ctx context.Context, limit int) ([]domain.BuildRecord, error) {
	rows, err := r.db.QueryContext(ctx, listBuildsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.BuildRecord, 0, limit)
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) GetBuild(ctx context.Context, id string) (domain.BuildRecord, error) {
	b, err := scanBuild(r.db.QueryRowContext(ctx, getBuildSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BuildRecord{}, domain.ErrNotFound
	}
	return b, err
}

type scanner interface{ Scan(dest ...any) error }

func scanBuild(s scanner) (domain.BuildRecord, error) {
	var (
		b                              domain.BuildRecord
		filename, client, dest, errMsg sql.NullString
		status                         string
	)
	if err := s.Scan(&b.ID, &filename, &client, &dest, &b.Hotels, &b.Pages, &b.FailedAssets,
		&b.Bytes, &status, &errMsg, &b.DurationMS, &b.CreatedAt); err != nil {
		return domain.BuildRecord{}, err
	}
	b.Filename, b.ClientName, b.Destination, b.Error = filename.String, client.String, dest.String, errMsg.String
	b.Status = domain.BuildStatus(status)
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}
