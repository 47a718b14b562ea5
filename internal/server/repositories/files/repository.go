package files

import (
	"context"
	"time"

	"github.com/dmitrijs2005/clipvault/internal/server/models"
)

// Repository is the file registry. Rows are created only by the upload
// pipeline, moved to pending_delete before their object is removed, and
// deleted once the object is gone.
type Repository interface {
	Insert(ctx context.Context, rec *models.FileRecord) error
	Get(ctx context.Context, folder, name string) (*models.FileRecord, error)
	Exists(ctx context.Context, folder, name string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error)
	CountCommitted(ctx context.Context, ownerID string) (int, error)
	ListExpired(ctx context.Context, before time.Time) ([]*models.FileRecord, error)
	ListPendingDelete(ctx context.Context) ([]*models.FileRecord, error)
	ListKeys(ctx context.Context) ([]*models.FileRecord, error)
	MarkPendingDelete(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
