// Package services implements the list, delete and admin operations exposed
// to the front end. Every call receives the caller's auth.Capabilities.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/dmitrijs2005/clipvault/internal/logging"
	"github.com/dmitrijs2005/clipvault/internal/server/auth"
	"github.com/dmitrijs2005/clipvault/internal/server/models"
	"github.com/dmitrijs2005/clipvault/internal/server/naming"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clipvault/internal/server/storage"
)

// Reclaimer removes one file and its object. The reconciler implements it.
type Reclaimer interface {
	Reclaim(ctx context.Context, rec *models.FileRecord) error
}

// FileView is one listed file.
type FileView struct {
	LogicalName string
	FolderName  string
	Title       string
	PublicURL   string
	SizeBytes   int64
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

type FileService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	store     storage.ObjectStore
	reclaimer Reclaimer
	retention time.Duration
	log       logging.Logger
}

func NewFileService(db *sql.DB, repos repomanager.RepositoryManager, store storage.ObjectStore,
	reclaimer Reclaimer, retention time.Duration, log logging.Logger) *FileService {
	return &FileService{db: db, repos: repos, store: store, reclaimer: reclaimer, retention: retention, log: log}
}

// List returns ownerID's committed files, newest first.
func (s *FileService) List(ctx context.Context, caps auth.Capabilities, ownerID string) ([]FileView, error) {
	if !caps.CanAccess(ownerID) {
		return nil, common.ErrForbidden
	}

	recs, err := s.repos.Files(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	out := make([]FileView, 0, len(recs))
	for _, r := range recs {
		v := FileView{
			LogicalName: r.LogicalName,
			FolderName:  r.FolderName,
			Title:       r.Title,
			PublicURL:   s.store.PublicURL(r.StorageKey),
			SizeBytes:   r.SizeBytes,
			CreatedAt:   r.CreatedAt,
		}
		if s.retention > 0 {
			v.ExpiresAt = r.ExpiresAt(s.retention)
		}
		out = append(out, v)
	}
	return out, nil
}

// Delete removes ownerID's committed file named logicalName. Once the row is
// marked pending_delete the file is gone for the caller; a failed object or
// row delete after that point is finished by the reconciler.
func (s *FileService) Delete(ctx context.Context, caps auth.Capabilities, ownerID, logicalName string) error {
	if !caps.CanAccess(ownerID) {
		return common.ErrForbidden
	}
	name, err := naming.Validate(logicalName)
	if err != nil {
		return err
	}

	recs, err := s.repos.Files(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	found := false
	for _, r := range recs {
		if r.LogicalName != name {
			continue
		}
		found = true
		if err := s.reclaimer.Reclaim(ctx, r); err != nil {
			if r.Status != models.StatusPendingDelete {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			s.log.Warn(ctx, "delete deferred to reconciler", "owner_id", ownerID, "key", r.StorageKey, "error", err)
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", common.ErrorNotFound, name)
	}
	s.log.Info(ctx, "file deleted", "owner_id", ownerID, "name", name, "by", caps.OwnerID)
	return nil
}
