// Package quota enforces the per-owner ceiling on committed uploads and
// manages owner profiles.
//
// Reserve is a check, not a reservation: the pipeline's per-owner slot is
// what keeps the count stable between the check and the commit.
package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/dmitrijs2005/clipvault/internal/logging"
	"github.com/dmitrijs2005/clipvault/internal/server/models"
	"github.com/dmitrijs2005/clipvault/internal/server/naming"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/repomanager"
)

type Tracker struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	defaultLimit int
	log          logging.Logger
}

func NewTracker(db *sql.DB, repos repomanager.RepositoryManager, defaultLimit int, log logging.Logger) *Tracker {
	return &Tracker{db: db, repos: repos, defaultLimit: defaultLimit, log: log}
}

// Profile returns the owner's profile, creating it with defaults on first
// use. The folder is derived from the owner id. An insert that loses a race
// with a concurrent creator re-reads the winner's row.
func (t *Tracker) Profile(ctx context.Context, ownerID string) (*models.OwnerProfile, error) {
	repo := t.repos.Owners(t.db)

	p, err := repo.Get(ctx, ownerID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	p = &models.OwnerProfile{
		OwnerID:     ownerID,
		FolderName:  naming.FolderFromOwner(ownerID),
		UploadLimit: t.defaultLimit,
	}
	switch err := repo.Create(ctx, p); {
	case err == nil:
		t.log.Info(ctx, "owner profile created", "owner_id", ownerID, "folder", p.FolderName, "limit", p.UploadLimit)
		return p, nil
	case errors.Is(err, common.ErrorAlreadyExists):
		return repo.Get(ctx, ownerID)
	default:
		return nil, fmt.Errorf("create profile: %w", err)
	}
}

// Reserve fails with common.ErrQuotaExceeded when the owner already has
// limit committed files. A limit of 0 means unlimited. Nothing is written;
// an owner without a profile is checked against the default limit.
func (t *Tracker) Reserve(ctx context.Context, ownerID string) error {
	limit := t.defaultLimit
	p, err := t.repos.Owners(t.db).Get(ctx, ownerID)
	switch {
	case err == nil:
		limit = p.UploadLimit
	case !errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("get profile: %w", err)
	}

	if limit <= 0 {
		return nil
	}

	n, err := t.repos.Files(t.db).CountCommitted(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("count files: %w", err)
	}
	if n >= limit {
		return fmt.Errorf("%w: %d of %d", common.ErrQuotaExceeded, n, limit)
	}
	return nil
}

// Usage returns the committed count and the effective limit.
func (t *Tracker) Usage(ctx context.Context, ownerID string) (count, limit int, err error) {
	limit = t.defaultLimit
	p, err := t.repos.Owners(t.db).Get(ctx, ownerID)
	switch {
	case err == nil:
		limit = p.UploadLimit
	case !errors.Is(err, common.ErrorNotFound):
		return 0, 0, fmt.Errorf("get profile: %w", err)
	}
	count, err = t.repos.Files(t.db).CountCommitted(ctx, ownerID)
	if err != nil {
		return 0, 0, fmt.Errorf("count files: %w", err)
	}
	return count, limit, nil
}

// SetLimit sets the owner's ceiling, creating the profile first if needed.
// Existing files are never removed when the new limit is lower.
func (t *Tracker) SetLimit(ctx context.Context, ownerID string, limit uint) error {
	if limit > math.MaxInt32 {
		return fmt.Errorf("limit %d out of range", limit)
	}
	if _, err := t.Profile(ctx, ownerID); err != nil {
		return err
	}
	if err := t.repos.Owners(t.db).UpdateLimit(ctx, ownerID, int(limit)); err != nil {
		return fmt.Errorf("update limit: %w", err)
	}
	t.log.Info(ctx, "upload limit changed", "owner_id", ownerID, "limit", limit)
	return nil
}

// SetFolder changes the folder used for the owner's future uploads. Stored
// objects keep their keys.
func (t *Tracker) SetFolder(ctx context.Context, ownerID, folder string) error {
	f, err := naming.Validate(folder)
	if err != nil {
		return err
	}
	if _, err := t.Profile(ctx, ownerID); err != nil {
		return err
	}
	if err := t.repos.Owners(t.db).UpdateFolder(ctx, ownerID, f); err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	t.log.Info(ctx, "folder changed", "owner_id", ownerID, "folder", f)
	return nil
}
