package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/intake/pkg/pagination"
	"github.com/JaimeStill/intake/pkg/repository"
)

const recordColumns = `file_id, file_name, file_type, file_location, content_type,
	size_bytes, page_count, status, error_reason, uploaded_at, updated_at`

const upsertSQL = `
	INSERT INTO file_inventory (file_id, file_name, file_type, file_location, content_type, size_bytes, page_count, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, 'REQUESTED')
	ON CONFLICT (file_id) DO UPDATE SET
		file_name = EXCLUDED.file_name,
		file_type = EXCLUDED.file_type,
		file_location = EXCLUDED.file_location,
		content_type = EXCLUDED.content_type,
		size_bytes = EXCLUDED.size_bytes,
		page_count = EXCLUDED.page_count,
		status = 'REQUESTED',
		error_reason = NULL,
		uploaded_at = NULL,
		updated_at = NOW()
	RETURNING ` + recordColumns

const markUploadedSQL = `
	UPDATE file_inventory
	SET status = 'UPLOADED', uploaded_at = $3, error_reason = NULL, updated_at = NOW()
	WHERE file_id = $1 AND file_location = $2 AND status = 'REQUESTED'`

const markFailedSQL = `
	UPDATE file_inventory
	SET status = 'ERROR', error_reason = $3, updated_at = NOW()
	WHERE file_id = $1 AND file_location = $2 AND status = 'REQUESTED'`

type pgStore struct {
	db *sql.DB
}

// PostgresTables lists the tables the Postgres store reads and writes.
var PostgresTables = []string{"file_inventory", "data_scan_result"}

// NewPostgresStore creates a Store over the file_inventory and
// data_scan_result tables.
func NewPostgresStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Upsert(ctx context.Context, reg Registration) (*Record, error) {
	args := []any{
		reg.FileID,
		reg.FileName,
		reg.FileType,
		reg.StorageLocation,
		reg.ContentType,
		reg.SizeBytes,
		reg.PageCount,
	}

	rec, err := repository.QueryOne(ctx, s.db, upsertSQL, args, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("upsert file_inventory: %w", err)
	}
	return &rec, nil
}

func (s *pgStore) MarkUploaded(ctx context.Context, fileID, location string, at time.Time) error {
	err := repository.ExecExpectOne(ctx, s.db, markUploadedSQL, fileID, location, at)
	return repository.MapError(err, ErrSuperseded)
}

func (s *pgStore) MarkFailed(ctx context.Context, fileID, location, reason string) error {
	err := repository.ExecExpectOne(ctx, s.db, markFailedSQL, fileID, location, reason)
	return repository.MapError(err, ErrSuperseded)
}

func (s *pgStore) Find(ctx context.Context, fileID string) (*Record, error) {
	q := `SELECT ` + recordColumns + ` FROM file_inventory WHERE file_id = $1`

	rec, err := repository.QueryOne(ctx, s.db, q, []any{fileID}, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound)
	}
	return &rec, nil
}

func (s *pgStore) FindResults(ctx context.Context, fileID string) (*Results, error) {
	q := `SELECT file_id, results FROM data_scan_result WHERE file_id = $1`

	res, err := repository.QueryOne(ctx, s.db, q, []any{fileID}, scanResults)
	if err != nil {
		return nil, repository.MapError(err, ErrResultsNotFound)
	}
	return &res, nil
}

func (s *pgStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	where, args := whereClause(filters)

	var total int
	countSQL := `SELECT COUNT(*) FROM file_inventory` + where
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count file_inventory: %w", err)
	}

	pageSQL, pageArgs := pageQuery(where, args, page)
	records, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query file_inventory: %w", err)
	}

	result := pagination.NewPageResult(records, total, page)
	return &result, nil
}

func whereClause(filters Filters) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filters.Status != nil {
		args = append(args, string(*filters.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func pageQuery(where string, args []any, page pagination.PageRequest) (string, []any) {
	n := len(args)
	q := fmt.Sprintf(
		`SELECT %s FROM file_inventory%s ORDER BY updated_at DESC, file_id LIMIT $%d OFFSET $%d`,
		recordColumns, where, n+1, n+2,
	)

	out := make([]any, 0, n+2)
	out = append(out, args...)
	out = append(out, page.PageSize, page.Offset())
	return q, out
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	err := s.Scan(
		&r.FileID,
		&r.FileName,
		&r.FileType,
		&r.StorageLocation,
		&r.ContentType,
		&r.SizeBytes,
		&r.PageCount,
		&r.Status,
		&r.ErrorReason,
		&r.UploadedAt,
		&r.UpdatedAt,
	)
	return r, err
}

func scanResults(s repository.Scanner) (Results, error) {
	var (
		res Results
		raw []byte
	)

	if err := s.Scan(&res.FileID, &raw); err != nil {
		return res, err
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &res.Results); err != nil {
			return res, fmt.Errorf("decode results: %w", err)
		}
	}
	if res.Results == nil {
		res.Results = make([]map[string]any, 0)
	}
	return res, nil
}
