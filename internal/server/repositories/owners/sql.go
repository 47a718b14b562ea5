// Package owners implements the owner profile table over database/sql.
package owners

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

// SQLRepository implements Repository over a dbx.DBTX.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	now     func() time.Time
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, now: time.Now}
}

func (r *SQLRepository) Get(ctx context.Context, ownerID string) (*models.OwnerProfile, error) {
	query := r.dialect.Rebind(`SELECT owner_id, folder_name, upload_limit, created_at, updated_at
		FROM owner_profiles WHERE owner_id = ?`)

	p := &models.OwnerProfile{}
	err := r.db.QueryRowContext(ctx, query, ownerID).
		Scan(&p.OwnerID, &p.FolderName, &p.UploadLimit, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// Create inserts a new profile. An existing owner_id is reported as
// common.ErrorAlreadyExists.
func (r *SQLRepository) Create(ctx context.Context, p *models.OwnerProfile) error {
	now := r.now().UTC().Truncate(time.Microsecond)
	p.CreatedAt, p.UpdatedAt = now, now

	query := r.dialect.Rebind(`INSERT INTO owner_profiles (owner_id, folder_name, upload_limit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`)

	if _, err := r.db.ExecContext(ctx, query, p.OwnerID, p.FolderName, p.UploadLimit, p.CreatedAt, p.UpdatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) UpdateLimit(ctx context.Context, ownerID string, limit int) error {
	query := r.dialect.Rebind(`UPDATE owner_profiles SET upload_limit = ?, updated_at = ? WHERE owner_id = ?`)
	return r.execOne(ctx, query, limit, r.now().UTC(), ownerID)
}

func (r *SQLRepository) UpdateFolder(ctx context.Context, ownerID, folder string) error {
	query := r.dialect.Rebind(`UPDATE owner_profiles SET folder_name = ?, updated_at = ? WHERE owner_id = ?`)
	return r.execOne(ctx, query, folder, r.now().UTC(), ownerID)
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
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
