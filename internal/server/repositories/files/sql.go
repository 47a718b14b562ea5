// Package files implements the file registry over database/sql. A single
// implementation serves SQLite and PostgreSQL: queries are written with "?"
// placeholders and rebound per dialect.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/dmitrijs2005/clipvault/internal/dbx"
	"github.com/dmitrijs2005/clipvault/internal/server/models"
)

const selectColumns = `id, owner_id, folder_name, logical_name, storage_key, title, size_bytes, status, created_at`

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Insert stores a committed record and fills rec.ID. CreatedAt defaults to
// now when zero. A duplicate (folder_name, logical_name) or storage_key is
// reported as common.ErrNameTaken.
func (r *SQLRepository) Insert(ctx context.Context, rec *models.FileRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Microsecond)
	if rec.Status == "" {
		rec.Status = models.StatusCommitted
	}

	query := r.dialect.Rebind(`
		INSERT INTO file_records (owner_id, folder_name, logical_name, storage_key, title, size_bytes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowContext(ctx, query,
		rec.OwnerID, rec.FolderName, rec.LogicalName, rec.StorageKey, rec.Title, rec.SizeBytes, string(rec.Status), rec.CreatedAt).
		Scan(&rec.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", common.ErrNameTaken, rec.FolderName, rec.LogicalName)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the record for (folder, name) or common.ErrorNotFound.
func (r *SQLRepository) Get(ctx context.Context, folder, name string) (*models.FileRecord, error) {
	query := r.dialect.Rebind(`SELECT ` + selectColumns + ` FROM file_records
		WHERE folder_name = ? AND logical_name = ?`)

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, folder, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// Exists reports whether any row, in any status, holds (folder, name).
func (r *SQLRepository) Exists(ctx context.Context, folder, name string) (bool, error) {
	query := r.dialect.Rebind(`SELECT COUNT(*) FROM file_records WHERE folder_name = ? AND logical_name = ?`)

	var n int
	if err := r.db.QueryRowContext(ctx, query, folder, name).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// ListByOwner returns the owner's committed records, newest first.
func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	query := r.dialect.Rebind(`SELECT ` + selectColumns + ` FROM file_records
		WHERE owner_id = ? AND status = ?
		ORDER BY created_at DESC, id DESC`)
	return r.list(ctx, query, ownerID, string(models.StatusCommitted))
}

// CountCommitted counts the owner's committed records.
func (r *SQLRepository) CountCommitted(ctx context.Context, ownerID string) (int, error) {
	query := r.dialect.Rebind(`SELECT COUNT(*) FROM file_records WHERE owner_id = ? AND status = ?`)

	var n int
	if err := r.db.QueryRowContext(ctx, query, ownerID, string(models.StatusCommitted)).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// ListExpired returns committed records created strictly before the cutoff,
// oldest first.
func (r *SQLRepository) ListExpired(ctx context.Context, before time.Time) ([]*models.FileRecord, error) {
	query := r.dialect.Rebind(`SELECT ` + selectColumns + ` FROM file_records
		WHERE status = ? AND created_at < ?
		ORDER BY created_at, id`)
	return r.list(ctx, query, string(models.StatusCommitted), before.UTC())
}

// ListPendingDelete returns records left in pending_delete, oldest first.
func (r *SQLRepository) ListPendingDelete(ctx context.Context) ([]*models.FileRecord, error) {
	query := r.dialect.Rebind(`SELECT ` + selectColumns + ` FROM file_records
		WHERE status = ?
		ORDER BY created_at, id`)
	return r.list(ctx, query, string(models.StatusPendingDelete))
}

// ListKeys returns every record in any status. The orphan sweep compares
// their storage keys against the object store listing.
func (r *SQLRepository) ListKeys(ctx context.Context) ([]*models.FileRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM file_records ORDER BY id`
	return r.list(ctx, query)
}

// MarkPendingDelete moves a record to pending_delete. Marking an already
// pending row succeeds; a missing row is common.ErrorNotFound.
func (r *SQLRepository) MarkPendingDelete(ctx context.Context, id int64) error {
	query := r.dialect.Rebind(`UPDATE file_records SET status = ? WHERE id = ?`)
	return r.execOne(ctx, query, string(models.StatusPendingDelete), id)
}

// Delete removes the row. A missing row is common.ErrorNotFound.
func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	query := r.dialect.Rebind(`DELETE FROM file_records WHERE id = ?`)
	return r.execOne(ctx, query, id)
}

func (r *SQLRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]*models.FileRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.FileRecord, error) {
	var (
		rec    models.FileRecord
		status string
	)
	if err := s.Scan(&rec.ID, &rec.OwnerID, &rec.FolderName, &rec.LogicalName, &rec.StorageKey,
		&rec.Title, &rec.SizeBytes, &status, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Status = models.FileStatus(status)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}
